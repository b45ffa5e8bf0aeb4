package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeAlpaca struct {
	bars    []marketdata.Bar
	latest  *marketdata.Bar
	err     error
	lastReq marketdata.GetBarsRequest
}

func (f *fakeAlpaca) GetBars(_ string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.lastReq = req
	return f.bars, f.err
}

func (f *fakeAlpaca) GetLatestBar(_ string, _ marketdata.GetLatestBarRequest) (*marketdata.Bar, error) {
	return f.latest, f.err
}

func TestAlpaca_FetchDailyBars(t *testing.T) {
	now := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	fake := &fakeAlpaca{bars: []marketdata.Bar{
		{Timestamp: now.AddDate(0, 0, -1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 500},
		{Timestamp: now.AddDate(0, 0, -3), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 400},
		{Timestamp: now.AddDate(0, 0, -2), Open: 9.5, High: 10.5, Low: 9, Close: 10, Volume: 450},
	}}
	f := &AlpacaFetcher{Client: fake, Feed: "iex", now: func() time.Time { return now }}

	bars, err := f.FetchDailyBars(context.Background(), "TSLA", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 10 || bars[1].Close != 10.5 {
		t.Errorf("expected ascending trimmed closes, got %.2f, %.2f", bars[0].Close, bars[1].Close)
	}
	if bars[1].Volume != 500 {
		t.Errorf("expected volume 500, got %.0f", bars[1].Volume)
	}
	if !fake.lastReq.Start.Before(now.AddDate(0, 0, -2)) {
		t.Errorf("start %v does not cover the lookback", fake.lastReq.Start)
	}
}

func TestAlpaca_FetchCurrentPrice(t *testing.T) {
	f := &AlpacaFetcher{Client: &fakeAlpaca{latest: &marketdata.Bar{Close: 42.1}}, now: time.Now}
	price, err := f.FetchCurrentPrice(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 42.1 {
		t.Errorf("expected 42.1, got %.2f", price)
	}
}

func TestAlpaca_Errors(t *testing.T) {
	boom := errors.New("forbidden")
	f := &AlpacaFetcher{Client: &fakeAlpaca{err: boom}, now: time.Now}
	if _, err := f.FetchDailyBars(context.Background(), "TSLA", 10); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if _, err := f.FetchCurrentPrice(context.Background(), "TSLA"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}

	empty := &AlpacaFetcher{Client: &fakeAlpaca{}, now: time.Now}
	if _, err := empty.FetchDailyBars(context.Background(), "TSLA", 10); err == nil {
		t.Error("expected error for empty bars")
	}
	if _, err := empty.FetchCurrentPrice(context.Background(), "TSLA"); err == nil {
		t.Error("expected error for nil latest bar")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.FetchDailyBars(ctx, "TSLA", 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

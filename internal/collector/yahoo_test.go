package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1717200000,1717027200,1717113600,1717286400],
"indicators":{"quote":[{"open":[11,10,null,12],"high":[12,11,null,13],"low":[10,9,null,11],
"close":[11.5,10.5,null,12.5],"volume":[100,200,null,300]}]}}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	return f
}

func TestYahoo_FetchDailyBars_SortsAndSkipsNulls(t *testing.T) {
	var gotPath, gotRange string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Write([]byte(chartBody))
	})

	bars, err := f.FetchDailyBars(context.Background(), "TSLA", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/TSLA" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotRange != "3mo" {
		t.Errorf("expected range 3mo for 60 days, got %q", gotRange)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars after skipping null, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Errorf("bars not ascending at %d", i)
		}
	}
	if bars[0].Close != 10.5 || bars[2].Close != 12.5 {
		t.Errorf("unexpected closes %.2f, %.2f", bars[0].Close, bars[2].Close)
	}
}

func TestYahoo_FetchDailyBars_TrimsToRequested(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	})
	bars, err := f.FetchDailyBars(context.Background(), "TSLA", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 || bars[1].Close != 12.5 {
		t.Errorf("expected the 2 most recent bars, got %+v", bars)
	}
}

func TestYahoo_FetchCurrentPrice(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") != "1d" {
			t.Errorf("expected range 1d, got %q", r.URL.Query().Get("range"))
		}
		w.Write([]byte(chartBody))
	})
	price, err := f.FetchCurrentPrice(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 12.5 {
		t.Errorf("expected 12.5, got %.2f", price)
	}
}

func TestYahoo_MapsSymbol(t *testing.T) {
	var gotPath string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartBody))
	})
	if _, err := f.FetchCurrentPrice(context.Background(), "SPX500"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/^GSPC" {
		t.Errorf("expected mapped symbol path, got %q", gotPath)
	}
}

func TestYahoo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unknown symbol", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, "delisted"},
		{"server error", http.StatusInternalServerError, `oops`, "status 500"},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, "no data"},
		{"bad json", http.StatusOK, `{`, "decode"},
	}
	for _, tt := range tests {
		f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		})
		_, err := f.FetchDailyBars(context.Background(), "ZZZZ", 60)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{20, "1mo"},
		{60, "3mo"},
		{120, "6mo"},
		{250, "1y"},
		{260, "2y"},
	}
	for _, tt := range tests {
		if got := yahooRange(tt.days); got != tt.want {
			t.Errorf("days %d: expected %q, got %q", tt.days, tt.want, got)
		}
	}
}

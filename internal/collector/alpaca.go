package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"CoveredStop/internal/model"
)

// alpacaBarsClient is the subset of *marketdata.Client used by AlpacaFetcher.
type alpacaBarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetLatestBar(symbol string, req marketdata.GetLatestBarRequest) (*marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using the Alpaca market data API.
type AlpacaFetcher struct {
	Client alpacaBarsClient
	Feed   marketdata.Feed
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
// An empty feed selects IEX, which free accounts can query.
func NewAlpacaFetcher(apiKey, apiSecret, baseURL, feed string) *AlpacaFetcher {
	if feed == "" {
		feed = "iex"
	}
	return &AlpacaFetcher{
		Client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		Feed: marketdata.Feed(feed),
		now:  time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Calendar window wide enough to hold days sessions plus holidays.
	start := f.now().AddDate(0, 0, -(days*7/5 + 10))
	raw, err := f.Client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Split,
		Start:      start,
		Feed:       f.Feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("alpaca: no bars returned for %s", symbol)
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = fromAlpacaBar(b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (f *AlpacaFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	bar, err := f.Client.GetLatestBar(symbol, marketdata.GetLatestBarRequest{Feed: f.Feed})
	if err != nil {
		return 0, fmt.Errorf("alpaca latest bar: %w", err)
	}
	if bar == nil {
		return 0, fmt.Errorf("alpaca: no latest bar for %s", symbol)
	}
	return bar.Close, nil
}

func fromAlpacaBar(b marketdata.Bar) model.Bar {
	return model.Bar{
		Time:   b.Timestamp.UTC(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: float64(b.Volume),
	}
}

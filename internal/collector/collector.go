package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"CoveredStop/internal/model"
)

// ErrFetch marks any failure talking to the market data provider.
var ErrFetch = errors.New("market data fetch failed")

// Collector fetches the price history and latest close for one symbol.
type Collector struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, Logger: logger}
}

// Collect fetches days daily bars plus the latest close. Any failure is
// reported as a single error wrapping ErrFetch; no partial series is returned.
func (c *Collector) Collect(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrFetch)
	}

	log := c.Logger.With(zap.String("symbol", symbol), zap.String("source", c.Fetcher.Name()))

	dailyBars, err := c.Fetcher.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		log.Warn("fetch daily bars failed", zap.Error(err))
		return nil, fmt.Errorf("%w: daily bars for %s: %w", ErrFetch, symbol, err)
	}
	currentPrice, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		log.Warn("fetch current price failed", zap.Error(err))
		return nil, fmt.Errorf("%w: current price for %s: %w", ErrFetch, symbol, err)
	}

	log.Debug("collected price series",
		zap.Int("bars", len(dailyBars)),
		zap.Int("requested", days),
		zap.Float64("current_price", currentPrice))

	return &model.PriceSeries{
		Symbol:       symbol,
		DailyBars:    dailyBars,
		CurrentPrice: currentPrice,
		FetchedAt:    time.Now(),
	}, nil
}

package collector

import (
	"context"

	"CoveredStop/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns up to days daily bars ordered oldest to newest.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.Bar, error)
	// FetchCurrentPrice returns the most recent close.
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// Package advisor turns a user request into a stop-loss report: one fetch
// from the market data provider followed by one stop-loss computation.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CoveredStop/internal/collector"
	"CoveredStop/internal/model"
	"CoveredStop/internal/stoploss"
)

// Input bounds mirror the controls exposed to users.
const (
	MinMaxLossPct    = 5.0
	MaxMaxLossPct    = 20.0
	MinATRMultiplier = 1.0
	MaxATRMultiplier = 3.0
	MinWeeks         = 4
	MaxWeeks         = 52

	// TradingDaysPerWeek converts a lookback in weeks to daily bars.
	TradingDaysPerWeek = 5
)

// ErrInvalidRequest is returned for out-of-range user input.
var ErrInvalidRequest = errors.New("invalid request")

// Request carries the user inputs of one calculation.
type Request struct {
	Symbol        string
	MaxLossPct    float64 // percent, e.g. 10 for 10%
	ATRMultiplier float64
	Weeks         int
}

// Normalize trims and upper-cases the symbol.
func (r *Request) Normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
}

// Validate checks the request against the input bounds.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if r.MaxLossPct < MinMaxLossPct || r.MaxLossPct > MaxMaxLossPct {
		return fmt.Errorf("%w: max loss %.2f%% outside [%.0f, %.0f]", ErrInvalidRequest, r.MaxLossPct, MinMaxLossPct, MaxMaxLossPct)
	}
	if r.ATRMultiplier < MinATRMultiplier || r.ATRMultiplier > MaxATRMultiplier {
		return fmt.Errorf("%w: atr multiplier %.2f outside [%.0f, %.0f]", ErrInvalidRequest, r.ATRMultiplier, MinATRMultiplier, MaxATRMultiplier)
	}
	if r.Weeks < MinWeeks || r.Weeks > MaxWeeks {
		return fmt.Errorf("%w: weeks %d outside [%d, %d]", ErrInvalidRequest, r.Weeks, MinWeeks, MaxWeeks)
	}
	return nil
}

// Params converts the request to estimator parameters.
func (r Request) Params() model.Params {
	return model.Params{
		MaxLossFraction: r.MaxLossPct / 100,
		ATRMultiplier:   r.ATRMultiplier,
	}
}

// LookbackDays is the number of daily bars requested from the provider.
func (r Request) LookbackDays() int {
	return r.Weeks * TradingDaysPerWeek
}

// Advisor computes stop-loss reports.
type Advisor struct {
	Collector *collector.Collector
	Logger    *zap.Logger
}

// New creates an Advisor.
func New(col *collector.Collector, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{Collector: col, Logger: logger}
}

// Advise validates req, fetches the price history and computes the report.
// Either a complete report or an error is returned, never both.
func (a *Advisor) Advise(ctx context.Context, req Request) (*model.Report, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	params := req.Params()
	if err := stoploss.ValidateParams(params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	id := uuid.NewString()
	log := a.Logger.With(zap.String("calc_id", id), zap.String("symbol", req.Symbol))

	series, err := a.Collector.Collect(ctx, req.Symbol, req.LookbackDays())
	if err != nil {
		log.Error("collect failed", zap.Error(err))
		return nil, err
	}

	res, err := stoploss.Compute(series.DailyBars, series.CurrentPrice, params)
	if err != nil {
		log.Warn("stop-loss computation rejected",
			zap.Int("bars", len(series.DailyBars)),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", req.Symbol, err)
	}

	log.Info("stop-loss computed",
		zap.Float64("entry", res.EntryPrice),
		zap.Float64("atr", res.ATR),
		zap.Float64("stop", res.StopLossPrice),
		zap.String("binding", string(res.Binding)))

	return &model.Report{
		ID:          id,
		Symbol:      req.Symbol,
		Weeks:       req.Weeks,
		BarsUsed:    len(series.DailyBars),
		Params:      params,
		Result:      *res,
		Source:      a.Collector.Fetcher.Name(),
		GeneratedAt: time.Now(),
	}, nil
}

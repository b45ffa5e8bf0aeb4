// Package stoploss computes a suggested stop-loss for a covered-call position
// from a volatility floor (entry minus a multiple of ATR) and a maximum-loss
// floor (entry times one minus the loss fraction). The higher floor wins.
package stoploss

import (
	"errors"
	"fmt"
	"math"

	"CoveredStop/internal/calculator"
	"CoveredStop/internal/model"
)

var (
	ErrInvalidParams       = errors.New("invalid stop-loss parameters")
	ErrInvalidData         = errors.New("invalid price data")
	ErrInsufficientHistory = errors.New("insufficient price history")
)

// MinBars is the shortest history for which the last ATR window is defined.
const MinBars = calculator.ATRPeriod + 1

// ValidateParams rejects parameters outside their domain.
func ValidateParams(p model.Params) error {
	if !isFinite(p.MaxLossFraction) || p.MaxLossFraction <= 0 || p.MaxLossFraction >= 1 {
		return fmt.Errorf("%w: max loss fraction %v not in (0,1)", ErrInvalidParams, p.MaxLossFraction)
	}
	if !isFinite(p.ATRMultiplier) || p.ATRMultiplier <= 0 {
		return fmt.Errorf("%w: atr multiplier %v must be positive", ErrInvalidParams, p.ATRMultiplier)
	}
	return nil
}

// ValidateBars checks that every bar is usable for the true-range reduction.
// Ordering is only checked between bars that carry a timestamp.
func ValidateBars(bars []model.Bar) error {
	for i, b := range bars {
		for _, v := range [...]float64{b.High, b.Low, b.Close} {
			if !isFinite(v) || v <= 0 {
				return fmt.Errorf("%w: bar %d has non-positive or missing value", ErrInvalidData, i)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d high %.4f below low %.4f", ErrInvalidData, i, b.High, b.Low)
		}
		if i > 0 && !b.Time.IsZero() && !bars[i-1].Time.IsZero() && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) not after previous bar", ErrInvalidData, i, b.Time.Format("2006-01-02"))
		}
	}
	return nil
}

// Compute derives the stop-loss for entryPrice from bars ordered oldest to
// newest. It is a pure function of its inputs.
func Compute(bars []model.Bar, entryPrice float64, params model.Params) (*model.Result, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if !isFinite(entryPrice) || entryPrice <= 0 {
		return nil, fmt.Errorf("%w: entry price %v must be positive", ErrInvalidData, entryPrice)
	}
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: %d bars, need at least %d", ErrInsufficientHistory, len(bars), MinBars)
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	atr, err := calculator.CalculateATR(bars, calculator.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientHistory, err)
	}

	stopATR := entryPrice - params.ATRMultiplier*atr
	stopMax := entryPrice * (1 - params.MaxLossFraction)

	res := &model.Result{
		EntryPrice:  entryPrice,
		ATR:         atr,
		StopLossATR: stopATR,
		StopLossMax: stopMax,
	}
	if stopATR >= stopMax {
		res.StopLossPrice = stopATR
		res.Binding = model.BindingATR
	} else {
		res.StopLossPrice = stopMax
		res.Binding = model.BindingMaxLoss
	}
	return res, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package calculator

import "errors"

// ErrNotEnoughData is returned when a window is longer than the series.
var ErrNotEnoughData = errors.New("not enough data for SMA calculation")

// CalculateSMA computes the simple moving average of the given values over the
// trailing period. It never averages over a shorter window.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

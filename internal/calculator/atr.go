package calculator

import (
	"errors"
	"fmt"
	"math"

	"CoveredStop/internal/model"
)

// ATRPeriod is the window of the average true range.
const ATRPeriod = 14

// ErrNotEnoughBars is returned when fewer than period+1 bars are supplied.
var ErrNotEnoughBars = errors.New("not enough bars for ATR calculation")

// TrueRange returns the true range of cur given the previous close.
func TrueRange(cur model.Bar, prevClose float64) float64 {
	highLow := cur.High - cur.Low
	highClose := math.Abs(cur.High - prevClose)
	lowClose := math.Abs(cur.Low - prevClose)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

// TrueRanges returns one true range per bar after the first.
func TrueRanges(bars []model.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, TrueRange(bars[i], bars[i-1].Close))
	}
	return trs
}

// CalculateATR returns the trailing simple moving average of the true range
// evaluated at the last bar. Requires at least period+1 bars.
func CalculateATR(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughBars, len(bars), period+1)
	}
	return CalculateSMA(TrueRanges(bars), period)
}

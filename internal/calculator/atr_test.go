package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"CoveredStop/internal/model"
)

func flatBars(n int, high, low, close float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: close, High: high, Low: low, Close: close}
	}
	return bars
}

func TestTrueRange_PicksLargestCandidate(t *testing.T) {
	tests := []struct {
		name      string
		bar       model.Bar
		prevClose float64
		want      float64
	}{
		{"high-low", model.Bar{High: 105, Low: 100, Close: 102}, 102, 5},
		{"gap up", model.Bar{High: 112, Low: 110, Close: 111}, 100, 12},
		{"gap down", model.Bar{High: 92, Low: 90, Close: 91}, 100, 10},
	}
	for _, tt := range tests {
		if got := TrueRange(tt.bar, tt.prevClose); got != tt.want {
			t.Errorf("%s: expected %.2f, got %.2f", tt.name, tt.want, got)
		}
	}
}

func TestTrueRanges_SkipsFirstBar(t *testing.T) {
	trs := TrueRanges(flatBars(5, 101, 99, 100))
	if len(trs) != 4 {
		t.Fatalf("expected 4 true ranges, got %d", len(trs))
	}
	for i, tr := range trs {
		if tr != 2 {
			t.Errorf("tr[%d]: expected 2, got %.4f", i, tr)
		}
	}
	if TrueRanges(flatBars(1, 101, 99, 100)) != nil {
		t.Error("expected nil for a single bar")
	}
}

func TestCalculateATR_UsesTrailingWindow(t *testing.T) {
	bars := flatBars(30, 101, 99, 100)
	// Widen the oldest bars; they fall outside the last 14 true ranges.
	for i := 0; i < 10; i++ {
		bars[i].High = 120
		bars[i].Low = 80
	}
	atr, err := CalculateATR(bars, ATRPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(atr-2) > 1e-9 {
		t.Errorf("expected ATR 2, got %.6f", atr)
	}
}

func TestCalculateATR_ExactMinimum(t *testing.T) {
	if _, err := CalculateATR(flatBars(ATRPeriod+1, 101, 99, 100), ATRPeriod); err != nil {
		t.Errorf("expected ATR with %d bars, got %v", ATRPeriod+1, err)
	}
}

func TestCalculateATR_NotEnoughBars(t *testing.T) {
	_, err := CalculateATR(flatBars(ATRPeriod, 101, 99, 100), ATRPeriod)
	if !errors.Is(err, ErrNotEnoughBars) {
		t.Errorf("expected ErrNotEnoughBars, got %v", err)
	}
}

func TestCalculateSMA(t *testing.T) {
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
	if _, err := CalculateSMA([]float64{1, 2}, 3); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("expected ErrNotEnoughData, got %v", err)
	}
	got, err := CalculateSMA([]float64{100, 1, 2, 3}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("expected 2, got %.4f", got)
	}
}

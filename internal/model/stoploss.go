package model

import "time"

// Binding names which floor produced the final stop-loss price.
type Binding string

const (
	BindingATR     Binding = "atr"
	BindingMaxLoss Binding = "max_loss"
)

// Params are the two tunables of the stop-loss estimate.
type Params struct {
	MaxLossFraction float64 `json:"max_loss_fraction"` // (0,1)
	ATRMultiplier   float64 `json:"atr_multiplier"`    // > 0
}

// Result is the output of one stop-loss computation.
type Result struct {
	EntryPrice    float64 `json:"entry_price"`
	ATR           float64 `json:"atr"`
	StopLossPrice float64 `json:"stop_loss_price"`
	StopLossATR   float64 `json:"stop_loss_atr"`
	StopLossMax   float64 `json:"stop_loss_max"`
	Binding       Binding `json:"binding"`
}

// Report wraps a Result with the request context it was produced for.
type Report struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Weeks       int       `json:"weeks"`
	BarsUsed    int       `json:"bars_used"`
	Params      Params    `json:"params"`
	Result      Result    `json:"result"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

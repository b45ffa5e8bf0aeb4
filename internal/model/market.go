package model

import "time"

// Bar represents a single daily candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the raw price data of one fetch.
type PriceSeries struct {
	Symbol       string
	DailyBars    []Bar
	CurrentPrice float64
	FetchedAt    time.Time
}

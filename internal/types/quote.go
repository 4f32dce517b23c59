package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// StandardPipSize is the pip unit for most currency pairs (fourth decimal).
	StandardPipSize = 0.0001
	// JPYPipSize is the pip unit for JPY-quoted instruments (second decimal).
	JPYPipSize = 0.01
)

// Quote is a point-in-time bid/ask snapshot for a symbol.
type Quote struct {
	Symbol  string    `yaml:"symbol" json:"symbol"`
	Bid     float64   `yaml:"bid" json:"bid"`
	Ask     float64   `yaml:"ask" json:"ask"`
	PipSize float64   `yaml:"pip_size" json:"pip_size"`
	Time    time.Time `yaml:"time" json:"time"`
}

// EffectivePipSize returns the quote's pip size, falling back to the
// symbol-derived default when the venue did not report one.
func (q Quote) EffectivePipSize() float64 {
	if q.PipSize > 0 {
		return q.PipSize
	}

	return DefaultPipSize(q.Symbol)
}

// Spread returns the bid/ask spread expressed in pips.
func (q Quote) Spread() float64 {
	pip := q.EffectivePipSize()

	spread, _ := decimal.NewFromFloat(q.Ask).
		Sub(decimal.NewFromFloat(q.Bid)).
		Div(decimal.NewFromFloat(pip)).
		Float64()

	return spread
}

// DefaultPipSize returns the conventional pip unit for a symbol.
// JPY-quoted instruments use the second decimal; everything else the fourth.
func DefaultPipSize(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return JPYPipSize
	}

	return StandardPipSize
}

// PipsToPrice converts a pip distance to a price distance for the given pip size.
func PipsToPrice(pips float64, pipSize float64) float64 {
	price, _ := decimal.NewFromFloat(pips).
		Mul(decimal.NewFromFloat(pipSize)).
		Float64()

	return price
}

// PriceToPips converts a price distance to pips for the given pip size.
func PriceToPips(price float64, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}

	pips, _ := decimal.NewFromFloat(price).
		Div(decimal.NewFromFloat(pipSize)).
		Float64()

	return pips
}

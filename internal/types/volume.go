package types

import "github.com/shopspring/decimal"

// DefaultVolumeStep is the venue's minimum volume increment used when the
// instrument does not report one.
const DefaultVolumeStep = 0.01

// RoundVolumeToStep rounds a volume down to the venue's volume step.
func RoundVolumeToStep(volume, step float64) float64 {
	if step <= 0 {
		step = DefaultVolumeStep
	}

	stepDec := decimal.NewFromFloat(step)

	out, _ := decimal.NewFromFloat(volume).
		Div(stepDec).
		Floor().
		Mul(stepDec).
		Float64()

	return out
}

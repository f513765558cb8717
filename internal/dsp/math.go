package dsp

import "math"

func log1p(x float64) float64 {
	return math.Log1p(x)
}

func cos2pi(x float64) float64 {
	return math.Cos(2 * math.Pi * x)
}

package ocarina

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// expApprox evaluates e^x through the fast float32 approximation. Only used
// for per-sample decay factors where float32 precision is plenty.
func expApprox(x float64) float64 {
	if x < -80 {
		return 0
	}
	return float64(approx.FastExp(float32(x)))
}

func isFinite64(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// finiteOr returns x, or fallback if x is NaN or infinite.
func finiteOr(x, fallback float64) float64 {
	if isFinite64(x) {
		return x
	}
	return fallback
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampFrequency(f float64) float64 {
	if !isFinite64(f) {
		return defaultFrequency
	}
	return clamp(f, minSynthFrequency, maxSynthFrequency)
}

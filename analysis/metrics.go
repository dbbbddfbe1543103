package analysis

import "math"

// RenderReport summarises the properties a player notices first: clicks,
// level and whether the tail is silent.
type RenderReport struct {
	Frames      int     `json:"frames"`
	Peak        float64 `json:"peak"`
	RMS         float64 `json:"rms"`
	MaxStep     float64 `json:"max_step"`
	TailPeak    float64 `json:"tail_peak"`
	NonFinite   int     `json:"non_finite"`
	PitchHz     float64 `json:"pitch_hz"`
	ClippedRuns int     `json:"clipped_runs"`
}

// Inspect reports on a mono render. tailFraction selects the final share of
// the buffer used for TailPeak.
func Inspect(x []float64, sampleRate int, tailFraction float64) RenderReport {
	r := RenderReport{Frames: len(x)}
	if len(x) == 0 {
		return r
	}
	var sum float64
	inClip := false
	for i, v := range x {
		if !isFinite(v) {
			r.NonFinite++
			continue
		}
		a := math.Abs(v)
		r.Peak = math.Max(r.Peak, a)
		sum += v * v
		if i > 0 && isFinite(x[i-1]) {
			r.MaxStep = math.Max(r.MaxStep, math.Abs(v-x[i-1]))
		}
		if a >= 0.999 {
			if !inClip {
				r.ClippedRuns++
			}
			inClip = true
		} else {
			inClip = false
		}
	}
	r.RMS = math.Sqrt(sum / float64(len(x)))
	r.TailPeak = TailPeak(x, tailFraction)
	if f, err := EstimateFundamental(x, sampleRate, 50, 4000); err == nil {
		r.PitchHz = f
	}
	return r
}

// MaxStep is the largest absolute difference between adjacent samples.
func MaxStep(x []float64) float64 {
	var m float64
	for i := 1; i < len(x); i++ {
		m = math.Max(m, math.Abs(x[i]-x[i-1]))
	}
	return m
}

// TailPeak returns the peak magnitude over the final fraction of x.
func TailPeak(x []float64, fraction float64) float64 {
	if len(x) == 0 {
		return 0
	}
	fraction = math.Min(math.Max(fraction, 0), 1)
	start := len(x) - int(math.Ceil(float64(len(x))*fraction))
	var p float64
	for _, v := range x[start:] {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

// Float32ToFloat64 widens a mono buffer.
func Float32ToFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

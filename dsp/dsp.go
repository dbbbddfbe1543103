package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process
// or in the coefficient setters).
type Biquad struct {
	// Coefficients
	b0, b1, b2 float64
	a1, a2     float64

	// State (previous samples)
	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

// NewBiquad creates a new biquad filter with the given normalized coefficients
func NewBiquad(b0, b1, b2, a1, a2 float64) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float64) float64 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = dspcore.FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// Finite reports whether the filter history holds only finite values.
func (b *Biquad) Finite() bool {
	for _, v := range [4]float64{b.x1, b.x2, b.y1, b.y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SetBandpass recomputes the coefficients in place as a constant 0 dB peak
// gain bandpass (RBJ cookbook). The centre is clamped below Nyquist.
func (b *Biquad) SetBandpass(center, q, sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	nyq := 0.49 * sampleRate
	if center < 1 {
		center = 1
	}
	if center > nyq {
		center = nyq
	}
	if q < 0.05 {
		q = 0.05
	}
	w0 := 2.0 * math.Pi * center / sampleRate
	sinw, cosw := math.Sincos(w0)
	alpha := sinw / (2.0 * q)
	a0 := 1.0 + alpha

	b.b0 = alpha / a0
	b.b1 = 0
	b.b2 = -alpha / a0
	b.a1 = -2.0 * cosw / a0
	b.a2 = (1.0 - alpha) / a0
}

// NewLowpass creates a simple lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float64) *Biquad {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	// Normalize by a0
	return NewBiquad(b0/a0, b1/a0, b2/a0, a1/a0, a2/a0)
}

// OnePole is a one-pole lowpass smoother y += a*(x-y).
type OnePole struct {
	a float64
	y float64
}

// SetTimeConstant sets the smoothing time constant in seconds for a step of
// dt seconds. tau <= 0 makes the filter transparent.
func (p *OnePole) SetTimeConstant(tau, dt float64) {
	if tau <= 0 || dt <= 0 {
		p.a = 1
		return
	}
	p.a = 1.0 - math.Exp(-dt/tau)
}

func (p *OnePole) Process(x float64) float64 {
	p.y += p.a * (x - p.y)
	p.y = dspcore.FlushDenormals(p.y)
	return p.y
}

func (p *OnePole) Reset() { p.y = 0 }

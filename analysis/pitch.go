package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	ErrEmptyBuffer     = errors.New("empty audio buffer")
	ErrVolumeThreshold = errors.New("volume below threshold")
)

// silenceRMS is the level below which no pitch is reported.
const silenceRMS = 1e-4

// EstimateFundamental returns the strongest spectral peak between minHz and
// maxHz, refined by quadratic interpolation. Up to the first 16384 samples
// are analysed with a Hann window.
func EstimateFundamental(x []float64, sampleRate int, minHz, maxHz float64) (float64, error) {
	if len(x) < 2 || sampleRate <= 0 {
		return 0, ErrEmptyBuffer
	}
	n := min(len(x), 16384)
	seg := x[:n]
	if rms1(seg) < silenceRMS {
		return 0, ErrVolumeThreshold
	}

	size := nextPow2(n)
	w := make([]float64, size)
	for i := 0; i < n; i++ {
		w[i] = seg[i] * (0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	spectrum := fft.FFTReal(w)
	half := spectrum[:size/2]

	binHz := float64(sampleRate) / float64(size)
	lo := max(1, int(minHz/binHz))
	hi := min(len(half)-2, int(maxHz/binHz)+1)
	if lo >= hi {
		return 0, ErrVolumeThreshold
	}

	best := lo
	bestMag := 0.0
	for k := lo; k <= hi; k++ {
		if m := cmplx.Abs(half[k]); m > bestMag {
			bestMag = m
			best = k
		}
	}
	if bestMag == 0 {
		return 0, ErrVolumeThreshold
	}

	prev := cmplx.Abs(half[best-1])
	next := cmplx.Abs(half[best+1])
	delta := 0.0
	if den := prev - 2*bestMag + next; den != 0 {
		delta = 0.5 * (prev - next) / den
	}
	return (float64(best) + delta) * binHz, nil
}

// PitchTrack estimates the fundamental over consecutive windows. Silent
// windows yield 0.
func PitchTrack(x []float64, sampleRate, window, hop int, minHz, maxHz float64) []float64 {
	if window <= 0 || hop <= 0 || len(x) < window {
		return nil
	}
	out := make([]float64, 0, 1+(len(x)-window)/hop)
	for start := 0; start+window <= len(x); start += hop {
		f, err := EstimateFundamental(x[start:start+window], sampleRate, minHz, maxHz)
		if err != nil {
			f = 0
		}
		out = append(out, f)
	}
	return out
}

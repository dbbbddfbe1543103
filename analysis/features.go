package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
)

const (
	spectrumSize      = 2048
	maxSpectrumFrames = 64
	spectrumFloorDB   = 90
)

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	return 20 * math.Log10(math.Max(x, 1e-12))
}

func envelopePeak(env []float64) float64 {
	var peak float64
	for _, v := range env {
		peak = math.Max(peak, v)
	}
	return peak
}

// attackTime is the 10%..90% rise time of the envelope in seconds, 0 for a
// silent envelope.
func attackTime(env []float64, hopS float64) float64 {
	peak := envelopePeak(env)
	if peak <= 0 {
		return 0
	}
	start := -1
	for i, v := range env {
		if start < 0 && v >= 0.1*peak {
			start = i
		}
		if v >= 0.9*peak {
			// Never report zero: the frame grid cannot resolve faster onsets.
			return math.Max(float64(i-start), 0.5) * hopS
		}
	}
	return 0
}

// releaseTime measures from the last frame at 90% of peak to the first
// later frame 40 dB down. 0 when the signal never gets that quiet.
func releaseTime(env []float64, hopS float64) float64 {
	peak := envelopePeak(env)
	if peak <= 0 {
		return 0
	}
	last := -1
	for i, v := range env {
		if v >= 0.9*peak {
			last = i
		}
	}
	for i := last + 1; i < len(env); i++ {
		if env[i] < 0.01*peak {
			return math.Max(float64(i-last), 0.5) * hopS
		}
	}
	return 0
}

// averagePowerSpectrum averages Hann-windowed power spectra over up to
// maxSpectrumFrames half-overlapping frames. Nil when x is shorter than one
// frame.
func averagePowerSpectrum(x []float64, size int) []float64 {
	if len(x) < size {
		return nil
	}
	hop := size / 2
	frames := min(maxSpectrumFrames, 1+(len(x)-size)/hop)
	stride := hop
	if total := 1 + (len(x)-size)/hop; total > frames {
		stride = (len(x) - size) / (frames - 1)
	}
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	buf := make([]float64, size)
	power := make([]float64, size/2)
	for f := 0; f < frames; f++ {
		seg := x[f*stride : f*stride+size]
		for i, v := range seg {
			buf[i] = v * window[i]
		}
		spec := fft.FFTReal(buf)
		for k := range power {
			a := cmplx.Abs(spec[k])
			power[k] += a * a
		}
	}
	for k := range power {
		power[k] /= float64(frames)
	}
	return power
}

// spectralDistanceDB is the RMS log-power difference across bins. Each
// spectrum is floored spectrumFloorDB below its own peak so numerical noise
// in silent bands does not dominate.
func spectralDistanceDB(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0
	}
	fa := floorFor(a[:n])
	fb := floorFor(b[:n])
	var sum float64
	for k := 1; k < n; k++ {
		d := 10*math.Log10(math.Max(a[k], fa)) - 10*math.Log10(math.Max(b[k], fb))
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func floorFor(p []float64) float64 {
	var peak float64
	for _, v := range p {
		peak = math.Max(peak, v)
	}
	return math.Max(peak*math.Pow(10, -spectrumFloorDB/10), 1e-30)
}

// breathiness is the spectral flatness (geometric over arithmetic mean) of
// an averaged power spectrum between 200 Hz and 8 kHz. A clean harmonic
// tone scores near 0, white noise near 1.
func breathiness(power []float64, sampleRate int) float64 {
	if len(power) < 2 || sampleRate <= 0 {
		return 0
	}
	binHz := float64(sampleRate) / float64(2*len(power))
	lo := max(1, int(200/binHz))
	hi := min(len(power)-1, int(math.Min(8000, 0.45*float64(sampleRate))/binHz))
	if hi <= lo {
		return 0
	}
	floor := floorFor(power)
	var logSum, sum float64
	for k := lo; k <= hi; k++ {
		p := math.Max(power[k], floor)
		logSum += math.Log(p)
		sum += p
	}
	count := float64(hi - lo + 1)
	arith := sum / count
	if arith <= 0 {
		return 0
	}
	return clamp01(math.Exp(logSum/count) / arith)
}

// medianPitch is the median of the voiced frames of a pitch track, or 0 when
// no frame is voiced.
func medianPitch(x []float64, sampleRate int) float64 {
	window := min(4096, nextPow2(sampleRate/10))
	track := PitchTrack(x, sampleRate, window, window/2, 50, 4000)
	voiced := track[:0]
	for _, f := range track {
		if f > 0 {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) == 0 {
		return 0
	}
	sort.Float64s(voiced)
	mid := len(voiced) / 2
	if len(voiced)%2 == 0 {
		return 0.5 * (voiced[mid-1] + voiced[mid])
	}
	return voiced[mid]
}

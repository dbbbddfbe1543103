package ocarina

import (
	"math"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
)

func TestRoomConvolverMatchesFFTConvolution(t *testing.T) {
	c := NewRoomConvolver(48000)

	input := make([]float32, 1024)
	for i := range input {
		input[i] = float32(math.Sin(float64(i)*0.07)) * 0.8
	}
	leftIR := []float32{1.0, 0.3, -0.2, 0.1, 0.05}
	rightIR := []float32{0.8, -0.1, 0.05}
	if err := c.SetIR(leftIR, rightIR); err != nil {
		t.Fatalf("SetIR: %v", err)
	}

	stereo := c.Process(input)
	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	for i := range input {
		outL[i] = stereo[i*2]
		outR[i] = stereo[i*2+1]
	}

	refL := make([]float32, len(input)+len(leftIR)-1)
	if err := algofft.ConvolveReal(refL, input, leftIR); err != nil {
		t.Fatalf("ConvolveReal: %v", err)
	}
	refR := make([]float32, len(input)+len(rightIR)-1)
	if err := algofft.ConvolveReal(refR, input, rightIR); err != nil {
		t.Fatalf("ConvolveReal: %v", err)
	}

	if d := maxAbsDiff(outL, refL[:len(input)]); d > 1e-4 {
		t.Fatalf("left channel mismatch: max diff=%g", d)
	}
	if d := maxAbsDiff(outR, refR[:len(input)]); d > 1e-4 {
		t.Fatalf("right channel mismatch: max diff=%g", d)
	}
	if d := maxAbsDiff(refL, directConvolve(input, leftIR)); d > 1e-4 {
		t.Fatalf("fft reference disagrees with direct convolution: %g", d)
	}
}

func TestRoomConvolverDryWet(t *testing.T) {
	c := NewRoomConvolver(48000)
	c.Dry = 0.5
	c.Wet = 0.25
	_ = c.SetIR([]float32{1}, []float32{0})

	out := c.Process([]float32{1, 0, 0, 0})
	if math.Abs(float64(out[0])-0.75) > 1e-5 || math.Abs(float64(out[1])-0.5) > 1e-5 {
		t.Fatalf("first frame L=%f R=%f", out[0], out[1])
	}
}

func TestRoomConvolverResetClearsTail(t *testing.T) {
	c := NewRoomConvolver(48000)
	_ = c.SetIR([]float32{1, 0.5, 0.25}, []float32{1, 0.5, 0.25})

	_ = c.Process([]float32{1, 0, 0, 0})
	c.Reset()
	after := c.Process([]float32{0, 0, 0, 0})
	if rms := windowRMS(after); rms > 1e-7 {
		t.Fatalf("expected near-silence after reset, got rms=%g", rms)
	}
}

func TestRoomConvolverLoadsAndResamplesWav(t *testing.T) {
	left := []float32{1.0, 0.2, 0.1, 0.0}
	right := []float32{0.5, 0.1, 0.05, 0.0}
	path := writeTempIRWav(t, left, right, 96000)

	c := NewRoomConvolver(48000)
	if err := c.SetIRFromWAV(path); err != nil {
		t.Fatalf("SetIRFromWAV: %v", err)
	}
	input := make([]float32, 512)
	input[0] = 1
	out := c.Process(input)
	if len(out) != len(input)*2 {
		t.Fatalf("unexpected stereo length: %d", len(out))
	}
	var peakL, peakR float64
	for i := 0; i < len(input); i++ {
		peakL = math.Max(peakL, math.Abs(float64(out[2*i])))
		peakR = math.Max(peakR, math.Abs(float64(out[2*i+1])))
	}
	if peakL < 1e-7 || peakR < 1e-7 {
		t.Fatalf("weak response after resample: L=%g R=%g", peakL, peakR)
	}
}

func TestRoomConvolverMonoWavIsDualMono(t *testing.T) {
	path := writeTempIRWav(t, []float32{1.0, 0.4, 0.2, 0.1}, nil, 48000)
	c := NewRoomConvolver(48000)
	if err := c.SetIRFromWAV(path); err != nil {
		t.Fatalf("SetIRFromWAV: %v", err)
	}
	out := c.Process([]float32{1, 0, 0, 0, 0, 0})
	for i := 0; i < len(out); i += 2 {
		if math.Abs(float64(out[i]-out[i+1])) > 1e-6 {
			t.Fatalf("frame %d not dual mono: L=%f R=%f", i/2, out[i], out[i+1])
		}
	}
}

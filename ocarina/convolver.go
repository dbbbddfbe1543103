package ocarina

import (
	"errors"
	"fmt"
	"os"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// ErrEmptyIR is returned when an impulse response file holds no frames.
var ErrEmptyIR = errors.New("empty impulse response")

const roomPartSize = 128

// RoomConvolver places the dry mono voice in a stereo room with partitioned
// convolution. It is meant for offline rendering and players that can
// afford the extra latency, never for the core audio callback.
type RoomConvolver struct {
	sampleRate int
	partSize   int
	irLen      int

	Wet float32
	Dry float32

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	leftOut  []float32
	rightOut []float32
	block    []float32
}

// NewRoomConvolver returns a convolver with an identity IR, fully wet.
func NewRoomConvolver(sampleRate int) *RoomConvolver {
	c := &RoomConvolver{
		sampleRate: sampleRate,
		partSize:   roomPartSize,
		Wet:        1,
		block:      make([]float32, roomPartSize),
	}
	_ = c.SetIR([]float32{1}, []float32{1})
	return c
}

// IRLength returns the longer of the two channel IR lengths in samples.
func (c *RoomConvolver) IRLength() int { return c.irLen }

// SetIR installs left and right impulse responses. An empty channel falls
// back to an identity response.
func (c *RoomConvolver) SetIR(left, right []float32) error {
	if len(left) == 0 {
		left = []float32{1}
	}
	if len(right) == 0 {
		right = []float32{1}
	}
	leftOLA, err := dspconv.NewStreamingOverlapAdd32(left, c.partSize)
	if err != nil {
		return fmt.Errorf("left ir: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(right, c.partSize)
	if err != nil {
		return fmt.Errorf("right ir: %w", err)
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.irLen = max(len(left), len(right))
	c.leftOut = make([]float32, c.partSize)
	c.rightOut = make([]float32, c.partSize)
	c.Reset()
	return nil
}

// SetIRFromWAV loads a mono or stereo IR and resamples it to the
// convolver's rate when needed.
func (c *RoomConvolver) SetIRFromWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return fmt.Errorf("invalid wav buffer: %s", path)
	}
	numCh := buf.Format.NumChannels
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return fmt.Errorf("invalid wav sample-rate: %d", srcRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyIR)
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := range frames {
		left[i] = buf.Data[i*numCh]
		if numCh > 1 {
			right[i] = buf.Data[i*numCh+1]
		} else {
			right[i] = left[i]
		}
	}
	if left, err = c.resample(left, srcRate); err != nil {
		return err
	}
	if right, err = c.resample(right, srcRate); err != nil {
		return err
	}
	return c.SetIR(left, right)
}

// Reset clears convolution history.
func (c *RoomConvolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}

// Process convolves mono input and returns interleaved stereo output of the
// same frame count. The reverb tail beyond the input is kept for the next
// call; pad the input with zeros to flush it.
func (c *RoomConvolver) Process(input []float32) []float32 {
	out := make([]float32, len(input)*2)
	for done := 0; done < len(input); {
		n := min(c.partSize, len(input)-done)
		copy(c.block, input[done:done+n])
		clear(c.block[n:])

		errL := c.leftOLA.ProcessBlockTo(c.leftOut, c.block)
		errR := c.rightOLA.ProcessBlockTo(c.rightOut, c.block)
		for i := 0; i < n; i++ {
			dry := c.Dry * input[done+i]
			l, r := input[done+i], input[done+i]
			if errL == nil && errR == nil {
				l, r = c.leftOut[i], c.rightOut[i]
			}
			out[(done+i)*2] = dry + c.Wet*l
			out[(done+i)*2+1] = dry + c.Wet*r
		}
		done += n
	}
	return out
}

func (c *RoomConvolver) resample(in []float32, inRate int) ([]float32, error) {
	if inRate == c.sampleRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(inRate),
		float64(c.sampleRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

package ocarina

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Step is one held fingering in a scripted performance.
type Step struct {
	Keys     KeySet
	Mode     InstrumentMode
	Breath   bool
	Duration float64 // seconds
}

// Performance is a fixed sequence of steps played under one transposition.
type Performance struct {
	KeySignature int
	OctaveShift  int
	Steps        []Step
}

// Duration returns the total length in seconds.
func (p Performance) Duration() float64 {
	var d float64
	for _, s := range p.Steps {
		if s.Duration > 0 {
			d += s.Duration
		}
	}
	return d
}

// StepAt returns the step sounding t seconds into the performance. It
// reports false before the start and once every step has elapsed.
func (p Performance) StepAt(t float64) (Step, bool) {
	if t < 0 {
		return Step{}, false
	}
	var acc float64
	for _, s := range p.Steps {
		acc += math.Max(s.Duration, 0)
		if t < acc {
			return s, true
		}
	}
	return Step{}, false
}

// ParsePerformance reads a whitespace separated list of "fingering:seconds"
// tokens. The fingering "rest" (or "-") releases the breath for that step.
// Example: "01234567:0.5 0123456:0.5 rest:0.25".
func ParsePerformance(s string, mode InstrumentMode) ([]Step, error) {
	var steps []Step
	for _, tok := range strings.Fields(s) {
		fing, durStr, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, fmt.Errorf("step %q: expected fingering:seconds", tok)
		}
		dur, err := strconv.ParseFloat(durStr, 64)
		if err != nil || dur <= 0 || math.IsInf(dur, 0) {
			return nil, fmt.Errorf("step %q: invalid duration %q", tok, durStr)
		}
		step := Step{Mode: mode, Duration: dur}
		if fing != "rest" && fing != "-" {
			keys, err := ParseFingering(fing)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", tok, err)
			}
			step.Keys = keys
			step.Breath = true
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty performance")
	}
	return steps, nil
}

// RenderPerformance drives e the way a host would: one Tick every
// 1/controlRate seconds, with RenderAudio called in blocks of blockSize
// frames in between. The result is interleaved with channels channels and
// lasts for the performance duration plus tail seconds of release.
func RenderPerformance(e *Engine, p Performance, controlRate float64, blockSize, channels int, tail float64) []float32 {
	if controlRate <= 0 {
		controlRate = 60
	}
	if blockSize <= 0 {
		blockSize = 256
	}
	if channels < 1 {
		channels = 1
	}
	if tail < 0 {
		tail = 0
	}
	sr := float64(e.SampleRate())
	total := int(math.Round((p.Duration() + tail) * sr))
	out := make([]float32, total*channels)

	e.PublishTransposition(p.KeySignature, p.OctaveShift)

	// Step boundaries in frames.
	bounds := make([]int, len(p.Steps))
	acc := 0.0
	for i, s := range p.Steps {
		acc += math.Max(s.Duration, 0)
		bounds[i] = int(math.Round(acc * sr))
	}

	tickEvery := int(math.Max(1, math.Round(sr/controlRate)))
	step := -1
	nextTick := 0
	for frame := 0; frame < total; {
		if frame >= nextTick {
			cur := 0
			for cur < len(bounds) && frame >= bounds[cur] {
				cur++
			}
			if cur != step {
				step = cur
				if step < len(p.Steps) {
					s := p.Steps[step]
					e.PublishKeyState(s.Keys, s.Mode)
					e.PublishBreath(s.Breath)
				} else {
					e.PublishBreath(false)
				}
			}
			e.Tick()
			nextTick += tickEvery
		}
		n := blockSize
		if frame+n > nextTick {
			n = nextTick - frame
		}
		if frame+n > total {
			n = total - frame
		}
		e.RenderAudio(out[frame*channels:(frame+n)*channels], n, channels)
		frame += n
	}
	return out
}

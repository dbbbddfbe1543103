package fitcommon

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-ocarina/irsynth"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

// RenderOptions control an offline performance render.
type RenderOptions struct {
	SampleRate  int
	ControlRate float64
	BlockSize   int
	Tail        float64 // seconds of release after the last step
	Logger      *slog.Logger
}

// Render plays steps through a fresh engine configured from p. With a nil
// room the result is mono; otherwise it is interleaved stereo.
func Render(p *preset.Preset, steps []ocarina.Step, room *ocarina.RoomConvolver, opts RenderOptions) ([]float32, int) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := ocarina.NewEngine(opts.SampleRate, &p.Config,
		ocarina.WithLogger(logger),
		ocarina.WithInstrumentMode(p.Mode),
	)
	perf := ocarina.Performance{
		KeySignature: p.KeySignature,
		OctaveShift:  p.OctaveShift,
		Steps:        steps,
	}
	mono := ocarina.RenderPerformance(e, perf, opts.ControlRate, opts.BlockSize, 1, opts.Tail)
	if st := e.Stats(); st.Resets > 0 {
		logger.Warn("engine reset during render", "resets", st.Resets)
	}
	if room == nil {
		return mono, 1
	}
	room.Reset()
	return room.Process(mono), 2
}

// LoadRoom builds the room stage for p. A non-empty roomName selects a
// synthetic room; otherwise the preset IR path is used. Without either it
// returns nil.
func LoadRoom(p *preset.Preset, roomName string, sampleRate int) (*ocarina.RoomConvolver, error) {
	var c *ocarina.RoomConvolver
	switch {
	case roomName != "":
		cfg, err := irsynth.LookupRoom(roomName, sampleRate)
		if err != nil {
			return nil, err
		}
		l, r, err := irsynth.GenerateRoom(cfg)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", roomName, err)
		}
		c = ocarina.NewRoomConvolver(sampleRate)
		if err := c.SetIR(l, r); err != nil {
			return nil, err
		}
	case p.RoomIRWavPath != "":
		c = ocarina.NewRoomConvolver(sampleRate)
		if err := c.SetIRFromWAV(p.RoomIRWavPath); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	c.Wet = float32(p.RoomWetMix)
	c.Dry = float32(p.RoomDryMix)
	return c, nil
}

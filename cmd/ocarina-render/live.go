package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-ocarina/internal/audio"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

// playLive streams the performance to the default output device. The
// control domain runs on a wall-clock ticker while oto pulls audio blocks.
func playLive(ctx context.Context, p *preset.Preset, steps []ocarina.Step, sampleRate int, controlRate, tail float64, logger *slog.Logger) error {
	e := ocarina.NewEngine(sampleRate, &p.Config,
		ocarina.WithLogger(logger),
		ocarina.WithInstrumentMode(p.Mode),
	)
	perf := ocarina.Performance{
		KeySignature: p.KeySignature,
		OctaveShift:  p.OctaveShift,
		Steps:        steps,
	}
	e.PublishTransposition(perf.KeySignature, perf.OctaveShift)

	out, err := audio.NewOtoPlayer(sampleRate, 1)
	if err != nil {
		return err
	}
	defer out.Close()
	out.SetRenderer(e)
	out.Start()

	end := perf.Duration() + max(tail, 0)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	start := time.Now()
	audio.RunControl(ctx, controlRate, func() {
		now := time.Since(start).Seconds()
		if now >= end {
			cancel()
			return
		}
		liveTick(e, perf, now)
	})

	st := e.Stats()
	logger.Info("played", "seconds", time.Since(start).Seconds(), "frames", st.RenderedFrames, "resets", st.Resets)
	return nil
}

// liveTick publishes the step sounding at now and advances the control
// domain. Past the last step only the breath is released.
func liveTick(e *ocarina.Engine, perf ocarina.Performance, now float64) {
	if s, ok := perf.StepAt(now); ok {
		e.PublishKeyState(s.Keys, s.Mode)
		e.PublishBreath(s.Breath)
	} else {
		e.PublishBreath(false)
	}
	e.Tick()
}

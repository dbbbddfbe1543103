package main

import (
	"testing"

	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

func TestLiveTickFollowsSteps(t *testing.T) {
	p := preset.Default()
	steps, err := ocarina.ParsePerformance("01234567:0.5 0123:0.5", ocarina.EightHole)
	if err != nil {
		t.Fatal(err)
	}
	perf := ocarina.Performance{Steps: steps}
	e := ocarina.NewEngine(8000, &p.Config, ocarina.WithInstrumentMode(ocarina.EightHole))
	buf := make([]float32, 800)

	liveTick(e, perf, 0.1)
	if got := e.CurrentDegree().String(); got != "M1" {
		t.Fatalf("degree at 0.1s = %s, want M1", got)
	}
	e.RenderAudio(buf, len(buf), 1)
	if e.CurrentGain() == 0 {
		t.Fatal("voice silent while the first step sounds")
	}

	liveTick(e, perf, 0.7)
	if got := e.CurrentDegree().String(); got != "M5" {
		t.Fatalf("degree at 0.7s = %s, want M5", got)
	}

	liveTick(e, perf, 1.2)
	for range 20 {
		e.RenderAudio(buf, len(buf), 1)
	}
	if g := e.CurrentGain(); g > 1e-3 {
		t.Fatalf("breath not released after the last step: gain %g", g)
	}
}

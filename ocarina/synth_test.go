package ocarina

import (
	"math"
	"testing"
)

func TestSynthPitchAccuracy(t *testing.T) {
	const sampleRate = 44100
	cfg := cleanConfig()

	for _, freq := range []float64{220, 261.63, 440, 880} {
		s := NewSynth(sampleRate)
		samples := renderMono(s, sampleRate*2, Targets{Frequency: freq, Breath: true}, cfg)
		got := measureFundamentalFreq(samples, sampleRate)
		if math.Abs(float64(got)-freq) > 1.0 {
			t.Errorf("target %.2f Hz, measured %.2f Hz", freq, got)
		}
	}
}

// A leap of an octave while sounding must glide without a click.
func TestNoClickOnFrequencyJump(t *testing.T) {
	const sampleRate = 44100
	cfg := NewDefaultConfig()
	s := NewSynth(sampleRate)

	a := renderMono(s, sampleRate/2, Targets{Frequency: 220, Breath: true}, cfg)
	b := renderMono(s, sampleRate/2, Targets{Frequency: 440, Breath: true}, cfg)

	// Include the boundary between the two blocks.
	joined := append(a[len(a)-64:], b...)
	dumpWav(t, "jump.wav", append(a, b...), sampleRate)
	if d := maxStep(joined); d > 0.3 {
		t.Fatalf("max sample step %.4f exceeds click threshold", d)
	}
	if windowRMS(b[len(b)/2:]) < 0.05 {
		t.Fatal("voice went quiet after the jump")
	}
}

func TestSilenceAfterBreathOff(t *testing.T) {
	const sampleRate = 44100
	cfg := NewDefaultConfig()
	s := NewSynth(sampleRate)

	on := renderMono(s, sampleRate/2, Targets{Frequency: 440, Breath: true}, cfg)
	if peakAbs(on) < 0.1 {
		t.Fatalf("voice too quiet while blowing: peak %.4f", peakAbs(on))
	}
	off := renderMono(s, sampleRate, Targets{Frequency: 440, Breath: false}, cfg)
	tail := off[len(off)*9/10:]
	if p := peakAbs(tail); p >= 1e-3 {
		t.Fatalf("peak %.6f in final 10%% after breath off", p)
	}
}

func TestSilentWithoutBreath(t *testing.T) {
	s := NewSynth(44100)
	out := renderMono(s, 44100, Targets{Frequency: 523.25}, NewDefaultConfig())
	if p := peakAbs(out); p != 0 {
		t.Fatalf("expected exact silence, peak %g", p)
	}
}

// Alternating absurd targets every sample must never produce a non-finite
// or out-of-range sample, and the state must stay valid.
func TestNumericSafetyUnderPathologicalTargets(t *testing.T) {
	s := NewSynth(44100)
	cfg := NewDefaultConfig()
	for i := 0; i < 10000; i++ {
		f := 0.0001
		if i%2 == 1 {
			f = 50000
		}
		y := s.ProcessSample(Targets{Frequency: f, Breath: true}, cfg)
		if math.IsNaN(y) || math.IsInf(y, 0) || math.Abs(y) > 1 {
			t.Fatalf("sample %d: bad output %v", i, y)
		}
		snap := s.Snapshot()
		if fault, bad := CheckState(snap); bad {
			t.Fatalf("sample %d: state fault %s (%+v)", i, fault, snap)
		}
		if snap.Frequency < minSynthFrequency || snap.Frequency > maxSynthFrequency {
			t.Fatalf("sample %d: frequency %.3f escaped clamp", i, snap.Frequency)
		}
	}
}

func TestNonFiniteTargetsIgnored(t *testing.T) {
	s := NewSynth(48000)
	cfg := NewDefaultConfig()
	renderMono(s, 4800, Targets{Frequency: 440, Breath: true}, cfg)
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		for i := 0; i < 256; i++ {
			y := s.ProcessSample(Targets{Frequency: f, Breath: true}, cfg)
			if math.IsNaN(y) || math.Abs(y) > 1 {
				t.Fatalf("target %v: bad output %v", f, y)
			}
		}
	}
	if got := s.Snapshot().Frequency; math.Abs(got-440) > 1 {
		t.Fatalf("frequency drifted to %.3f on non-finite targets", got)
	}
}

func TestFrequencyFrozenDuringRelease(t *testing.T) {
	const sampleRate = 48000
	s := NewSynth(sampleRate)
	cfg := NewDefaultConfig()
	renderMono(s, sampleRate/4, Targets{Frequency: 440, Breath: true}, cfg)

	// Change the target right as the breath stops: the frequency holds while
	// the tail decays, then snaps once the voice is silent.
	for i := 0; i < 32; i++ {
		s.ProcessSample(Targets{Frequency: 660}, cfg)
	}
	if got := s.Snapshot().Frequency; math.Abs(got-440) > 1e-6 {
		t.Fatalf("frequency moved during release: %.4f", got)
	}
	renderMono(s, sampleRate, Targets{Frequency: 660}, cfg)
	if got := s.Snapshot().Frequency; got != 660 {
		t.Fatalf("frequency did not snap after silence: %.4f", got)
	}
}

func TestPhaseStaysBounded(t *testing.T) {
	s := NewSynth(48000)
	cfg := NewDefaultConfig()
	renderMono(s, 48000*3, Targets{Frequency: 1000, Breath: true}, cfg)
	snap := s.Snapshot()
	if cycles := snap.Phase * snap.Frequency; cycles > phaseFoldCycles+1 || cycles < 0 {
		t.Fatalf("phase accumulator not folded: %.1f cycles", cycles)
	}
}

func TestSynthResetRestoresDefaults(t *testing.T) {
	s := NewSynth(48000)
	renderMono(s, 4800, Targets{Frequency: 880, Breath: true}, NewDefaultConfig())
	s.Reset()
	snap := s.Snapshot()
	if snap.Frequency != defaultFrequency || snap.Gain != 0 || snap.Phase != 0 || snap.Sample != 0 {
		t.Fatalf("unexpected state after reset: %+v", snap)
	}
	if s.state.Seed != noiseSeed || s.state.SilenceEnv != 1 {
		t.Fatalf("noise or envelope not reset: %+v", s.state)
	}
	if lp := s.state.NoiseLP.Process(0); lp != 0 {
		t.Fatalf("noise lowpass kept history: %g", lp)
	}
}

// A formant filter whose history went non-finite must be cleared on the
// next sample instead of poisoning the output.
func TestCorruptFormantHistoryRecovers(t *testing.T) {
	s := NewSynth(48000)
	cfg := NewDefaultConfig()
	renderMono(s, 480, Targets{Frequency: 440, Breath: true}, cfg)

	s.state.Formant2.Process(math.Inf(1))
	y := s.ProcessSample(Targets{Frequency: 440, Breath: true}, cfg)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		t.Fatalf("non-finite output %v", y)
	}
	if !s.state.Formant1.Finite() || !s.state.Formant2.Finite() {
		t.Fatal("formant history not cleared")
	}
	out := renderMono(s, 24000, Targets{Frequency: 440, Breath: true}, cfg)
	if windowRMS(out[len(out)/2:]) < 0.05 {
		t.Fatal("voice did not recover")
	}
}

func TestRenderInterleavesAndBoundsFrames(t *testing.T) {
	s := NewSynth(48000)
	buf := make([]float32, 2*100+1)
	n := s.Render(buf, 512, 2, Targets{Frequency: 440, Breath: true}, NewDefaultConfig())
	if n != 100 {
		t.Fatalf("rendered %d frames, want 100", n)
	}
	for i := 0; i < n; i++ {
		if buf[2*i] != buf[2*i+1] {
			t.Fatalf("frame %d channels differ: %f %f", i, buf[2*i], buf[2*i+1])
		}
	}
	if buf[len(buf)-1] != 0 {
		t.Fatal("wrote past the last whole frame")
	}
}

func TestSoftKnee(t *testing.T) {
	for _, x := range []float64{0, 0.3, 0.6, -0.6} {
		if softKnee(x, 0.6) != x {
			t.Fatalf("softKnee changed %.2f below the knee", x)
		}
	}
	prev := 0.6
	for x := 0.61; x < 20; x += 0.37 {
		y := softKnee(x, 0.6)
		if y <= prev || y >= 1 {
			t.Fatalf("softKnee(%.2f) = %.4f not monotone below 1", x, y)
		}
		if softKnee(-x, 0.6) != -y {
			t.Fatal("softKnee not odd")
		}
		prev = y
	}
}

func BenchmarkProcessSample(b *testing.B) {
	s := NewSynth(48000)
	cfg := NewDefaultConfig()
	tg := Targets{Frequency: 440, Breath: true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.ProcessSample(tg, cfg)
	}
}

package analysis

import (
	"errors"
	"math"
	"testing"
)

func makeSine(sr int, freq, seconds, amp float64) []float64 {
	n := int(float64(sr) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return out
}

func TestEstimateFundamental(t *testing.T) {
	const sr = 44100
	for _, freq := range []float64{110, 261.63, 440, 987.77, 2093} {
		x := makeSine(sr, freq, 0.5, 0.5)
		// A weaker second harmonic must not win.
		for i := range x {
			x[i] += 0.2 * math.Sin(4*math.Pi*freq*float64(i)/sr)
		}
		got, err := EstimateFundamental(x, sr, 50, 4000)
		if err != nil {
			t.Fatalf("%.2f Hz: %v", freq, err)
		}
		cents := 1200 * math.Log2(got/freq)
		if math.Abs(cents) > 5 {
			t.Errorf("%.2f Hz: estimated %.2f Hz (%.1f cents)", freq, got, cents)
		}
	}
}

func TestEstimateFundamentalErrors(t *testing.T) {
	if _, err := EstimateFundamental(nil, 48000, 50, 4000); !errors.Is(err, ErrEmptyBuffer) {
		t.Fatalf("nil buffer: %v", err)
	}
	if _, err := EstimateFundamental(make([]float64, 4096), 48000, 50, 4000); !errors.Is(err, ErrVolumeThreshold) {
		t.Fatalf("silence: %v", err)
	}
}

func TestPitchTrackFollowsStep(t *testing.T) {
	const sr = 48000
	x := append(makeSine(sr, 300, 0.5, 0.4), makeSine(sr, 600, 0.5, 0.4)...)
	track := PitchTrack(x, sr, 4096, 4096, 50, 4000)
	if len(track) < 8 {
		t.Fatalf("track too short: %d", len(track))
	}
	if math.Abs(track[1]-300) > 5 {
		t.Fatalf("early window %.2f Hz, want 300", track[1])
	}
	if last := track[len(track)-1]; math.Abs(last-600) > 5 {
		t.Fatalf("late window %.2f Hz, want 600", last)
	}
}

package ocarina

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// cleanConfig disables noise, formants and vibrato so zero-crossing pitch
// measurement sees a clean periodic signal.
func cleanConfig() *Config {
	c := NewDefaultConfig()
	c.NoiseIntensity = 0
	c.FormantCoupling = 0
	c.VibratoDepth = 0
	return c
}

func renderMono(s *Synth, n int, t Targets, cfg *Config) []float32 {
	out := make([]float32, n)
	s.Render(out, n, 1, t, cfg)
	return out
}

func measureFundamentalFreq(samples []float32, sampleRate float32) float32 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float32(len(samples)-startIdx) / sampleRate
	return float32(crossings) / (2.0 * duration)
}

func peakAbs(samples []float32) float64 {
	var p float64
	for _, s := range samples {
		if v := math.Abs(float64(s)); v > p {
			p = v
		}
	}
	return p
}

func maxStep(samples []float32) float64 {
	var m float64
	for i := 1; i < len(samples); i++ {
		if d := math.Abs(float64(samples[i] - samples[i-1])); d > m {
			m = d
		}
	}
	return m
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func directConvolve(x []float32, h []float32) []float32 {
	y := make([]float32, len(x)+len(h)-1)
	for i := 0; i < len(x); i++ {
		for j := 0; j < len(h); j++ {
			y[i+j] += x[i] * h[j]
		}
	}
	return y
}

func maxAbsDiff(a []float32, b []float32) float64 {
	n := min(len(a), len(b))
	m := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(float64(a[i] - b[i])); d > m {
			m = d
		}
	}
	return m
}

func writeWav(t *testing.T, path string, data []float32, sampleRate, numCh int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numCh, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("wav write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("wav close: %v", err)
	}
}

func writeTempIRWav(t *testing.T, left []float32, right []float32, sampleRate int) string {
	t.Helper()
	numCh := 1
	data := append([]float32(nil), left...)
	if right != nil {
		if len(right) != len(left) {
			t.Fatalf("left/right length mismatch")
		}
		numCh = 2
		data = make([]float32, len(left)*2)
		for i := range left {
			data[i*2] = left[i]
			data[i*2+1] = right[i]
		}
	}
	path := filepath.Join(t.TempDir(), "ir.wav")
	writeWav(t, path, data, sampleRate, numCh)
	return path
}

// dumpWav writes rendered audio next to the test binary when OCARINA_DUMP
// is set, for listening to failing cases.
func dumpWav(t *testing.T, name string, data []float32, sampleRate int) {
	t.Helper()
	dir := os.Getenv("OCARINA_DUMP")
	if dir == "" {
		return
	}
	writeWav(t, filepath.Join(dir, name), data, sampleRate, 1)
}

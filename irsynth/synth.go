package irsynth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/cwbudde/algo-ocarina/dsp"
)

// RoomConfig controls stereo room impulse response generation.
type RoomConfig struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	PreDelayS   float64 // Gap between the direct sound and the first reflection
	EarlyCount  int     // Discrete reflections in the first EarlySpanS seconds
	EarlySpanS  float64
	DirectLevel float64
	LateLevel   float64
	StereoWidth float64

	// TailCutoffHz is the lowpass corner of the diffuse tail. Higher values
	// give a brighter, more reflective space.
	TailCutoffHz float64
	LowDecayS    float64 // RT60-like decay of the low band
	HighDecayS   float64 // RT60-like decay of the air band
	FadeOutS     float64 // Cosine fade at the end; 0 disables it

	NormalizePeak float64
}

// DefaultRoomConfig is a small, dry chamber.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SampleRate:    48000,
		DurationS:     1.0,
		Seed:          1,
		PreDelayS:     0.004,
		EarlyCount:    24,
		EarlySpanS:    0.05,
		DirectLevel:   1.0,
		LateLevel:     0.06,
		StereoWidth:   0.6,
		TailCutoffHz:  6000,
		LowDecayS:     1.2,
		HighDecayS:    0.25,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

// Rooms are named starting points for common playing spaces.
var Rooms = map[string]func() RoomConfig{
	"chamber": DefaultRoomConfig,
	"hall": func() RoomConfig {
		c := DefaultRoomConfig()
		c.DurationS = 2.5
		c.PreDelayS = 0.02
		c.EarlyCount = 40
		c.EarlySpanS = 0.09
		c.LateLevel = 0.09
		c.LowDecayS = 2.6
		c.HighDecayS = 0.8
		c.StereoWidth = 0.9
		return c
	},
	"cave": func() RoomConfig {
		c := DefaultRoomConfig()
		c.DurationS = 3.5
		c.PreDelayS = 0.035
		c.EarlyCount = 12
		c.EarlySpanS = 0.15
		c.LateLevel = 0.12
		c.TailCutoffHz = 2500
		c.LowDecayS = 3.5
		c.HighDecayS = 0.6
		return c
	},
	"field": func() RoomConfig {
		c := DefaultRoomConfig()
		c.DurationS = 0.4
		c.EarlyCount = 3
		c.LateLevel = 0.01
		c.LowDecayS = 0.3
		c.HighDecayS = 0.1
		c.StereoWidth = 0.3
		return c
	},
}

// RoomNames lists the keys of Rooms in sorted order.
func RoomNames() []string {
	names := make([]string, 0, len(Rooms))
	for k := range Rooms {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupRoom returns the named room config at the given sample rate.
func LookupRoom(name string, sampleRate int) (RoomConfig, error) {
	f, ok := Rooms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return RoomConfig{}, fmt.Errorf("unknown room %q (have %s)", name, strings.Join(RoomNames(), ", "))
	}
	c := f()
	c.SampleRate = sampleRate
	return c, nil
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.PreDelayS < 0 || c.PreDelayS >= c.DurationS {
		return fmt.Errorf("pre-delay must be in [0, duration)")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.EarlyCount > 0 && c.EarlySpanS <= 0 {
		return fmt.Errorf("early span must be > 0")
	}
	if c.DirectLevel < 0 || c.LateLevel < 0 {
		return fmt.Errorf("levels must be >= 0")
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0,1]")
	}
	if c.TailCutoffHz <= 20 {
		return fmt.Errorf("tail cutoff must be > 20 Hz")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// decayRate converts an RT60 time into a per-second exponential rate.
func decayRate(rt60 float64) float64 {
	return math.Log(1000) / rt60
}

// GenerateRoom synthesizes a stereo room IR: a direct impulse, sparse early
// reflections and a two-band diffuse tail.
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sr := float64(cfg.SampleRate)
	n := max(1, int(math.Round(cfg.DurationS*sr)))
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	left[0] = cfg.DirectLevel
	right[0] = cfg.DirectLevel

	pre := int(cfg.PreDelayS * sr)
	for i := 0; i < cfg.EarlyCount; i++ {
		t := cfg.PreDelayS + cfg.EarlySpanS*rng.Float64()
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.15 + 0.35*rng.Float64()) * math.Exp(-t*decayRate(cfg.LowDecayS)*0.5)
		if rng.Intn(2) == 0 {
			amp = -amp
		}
		pan := (rng.Float64()*2 - 1) * cfg.StereoWidth
		left[idx] += amp * (1 - 0.5*pan)
		right[idx] += amp * (1 + 0.5*pan)
	}

	if cfg.LateLevel > 0 {
		lowL := dsp.NewLowpass(math.Min(cfg.TailCutoffHz, 0.45*sr)*0.15, sr, 0.707)
		lowR := dsp.NewLowpass(math.Min(cfg.TailCutoffHz, 0.45*sr)*0.15, sr, 0.707)
		airL := dsp.NewLowpass(math.Min(cfg.TailCutoffHz, 0.45*sr), sr, 0.707)
		airR := dsp.NewLowpass(math.Min(cfg.TailCutoffHz, 0.45*sr), sr, 0.707)
		lowRate := decayRate(cfg.LowDecayS)
		highRate := decayRate(cfg.HighDecayS)
		corr := 1 - cfg.StereoWidth
		for i := pre; i < n; i++ {
			t := float64(i-pre) / sr
			onset := math.Min(1, t/0.01)
			common := rng.NormFloat64()
			nL := corr*common + (1-corr)*rng.NormFloat64()
			nR := corr*common + (1-corr)*rng.NormFloat64()
			lo := math.Exp(-t * lowRate)
			hi := math.Exp(-t * highRate)

			bodyL, bodyR := lowL.Process(nL), lowR.Process(nR)
			l := lo*bodyL + hi*(airL.Process(nL)-bodyL)
			r := lo*bodyR + hi*(airR.Process(nR)-bodyR)
			left[i] += cfg.LateLevel * onset * l
			right[i] += cfg.LateLevel * onset * r
		}
	}

	highpassDC(left, 0.995)
	highpassDC(right, 0.995)
	applyFadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	applyFadeOut(right, cfg.FadeOutS, cfg.SampleRate)

	peak := math.Max(maxAbs(left), maxAbs(right))
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := 0; i < n; i++ {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

func highpassDC(x []float64, r float64) {
	prevIn, prevOut := 0.0, 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// applyFadeOut applies a cosine fade to the last fadeS seconds of buf.
func applyFadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fade := min(len(buf), int(math.Round(fadeS*float64(sampleRate))))
	start := len(buf) - fade
	for i := 0; i < fade; i++ {
		t := float64(i) / float64(fade)
		buf[start+i] *= 0.5 * (1 + math.Cos(t*math.Pi))
	}
}

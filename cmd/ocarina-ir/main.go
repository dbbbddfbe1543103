package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/irsynth"
)

func main() {
	room := flag.String("room", "chamber", "Starting room: "+strings.Join(irsynth.RoomNames(), ", "))
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate")
	output := flag.String("output", "assets/ir/room.wav", "Output WAV path")

	// Overrides are applied only when set explicitly.
	duration := flag.Float64("duration", 0, "IR length in seconds")
	seed := flag.Int64("seed", 0, "Random seed")
	preDelay := flag.Float64("pre-delay", -1, "Pre-delay in seconds")
	early := flag.Int("early", -1, "Number of early reflections")
	late := flag.Float64("late", -1, "Diffuse tail level")
	width := flag.Float64("stereo-width", -1, "Stereo decorrelation width in [0,1]")
	cutoff := flag.Float64("tail-cutoff", 0, "Tail lowpass corner in Hz")
	lowDecay := flag.Float64("low-decay", 0, "Low band decay time (s)")
	highDecay := flag.Float64("high-decay", 0, "Air band decay time (s)")
	normalize := flag.Float64("normalize", 0, "Peak normalization target")
	flag.Parse()

	cfg, err := irsynth.LookupRoom(*room, *sampleRate)
	if err != nil {
		die("ocarina-ir: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.DurationS = *duration
		case "seed":
			cfg.Seed = *seed
		case "pre-delay":
			cfg.PreDelayS = *preDelay
		case "early":
			cfg.EarlyCount = *early
		case "late":
			cfg.LateLevel = *late
		case "stereo-width":
			cfg.StereoWidth = *width
		case "tail-cutoff":
			cfg.TailCutoffHz = *cutoff
		case "low-decay":
			cfg.LowDecayS = *lowDecay
		case "high-decay":
			cfg.HighDecayS = *highDecay
		case "normalize":
			cfg.NormalizePeak = *normalize
		}
	})

	left, right, err := irsynth.GenerateRoom(cfg)
	if err != nil {
		die("ocarina-ir: %v", err)
	}
	if err := fitcommon.WriteStereoWAV(*output, left, right, cfg.SampleRate); err != nil {
		die("wav write error: %v", err)
	}

	peak, rms := stats(left, right)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("Room: %s, SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", *room, cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}

func stats(left, right []float32) (peak, rms float64) {
	for i := range left {
		peak = math.Max(peak, math.Max(math.Abs(float64(left[i])), math.Abs(float64(right[i]))))
	}
	rms = math.Sqrt(0.5 * (math.Pow(fitcommon.RMS(left), 2) + math.Pow(fitcommon.RMS(right), 2)))
	return peak, rms
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

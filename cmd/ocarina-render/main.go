package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-ocarina/analysis"
	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

func main() {
	sequence := flag.String("sequence", "01234567:1.0", "Whitespace separated fingering:seconds steps; 'rest' releases the breath")
	mode := flag.String("mode", "", "Instrument mode override: 8-hole or 10-hole")
	keySignature := flag.Int("key-signature", 0, "Key signature override in [-4,7] (used when -transpose is set)")
	octaveShift := flag.Int("octave-shift", 0, "Octave shift override in [-3,2] (used when -transpose is set)")
	transpose := flag.Bool("transpose", false, "Apply -key-signature and -octave-shift instead of the preset values")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	controlRate := flag.Float64("control-rate", 60, "Control ticks per second")
	blockSize := flag.Int("block-size", 256, "Audio block size in frames")
	tail := flag.Float64("tail", 0.5, "Seconds rendered after the last step")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	room := flag.String("room", "", "Synthetic room: chamber, hall, cave or field (overrides the preset IR)")
	irPath := flag.String("ir", "", "Room IR WAV path override (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	report := flag.Bool("report", false, "Print render metrics as JSON")
	live := flag.Bool("live", false, "Play the sequence on the default output device instead of writing a WAV")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := fitcommon.NewLogger(*verbose)

	p := preset.Default()
	if *presetPath != "" {
		var err error
		p, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("error loading preset %q: %v", *presetPath, err)
		}
	}
	if *mode != "" {
		m, err := ocarina.ParseInstrumentMode(*mode)
		if err != nil {
			die("invalid -mode: %v", err)
		}
		p.Mode = m
	}
	if *transpose {
		p.KeySignature = ocarina.ClampKeySignature(*keySignature)
		p.OctaveShift = ocarina.ClampOctaveShift(*octaveShift)
	}
	if *irPath != "" {
		p.RoomIRWavPath = *irPath
	}

	steps, err := ocarina.ParsePerformance(*sequence, p.Mode)
	if err != nil {
		die("invalid -sequence: %v", err)
	}
	roomStage, err := fitcommon.LoadRoom(p, *room, *sampleRate)
	if err != nil {
		die("error loading room: %v", err)
	}

	if *live {
		if roomStage != nil {
			logger.Warn("room is not applied in live playback")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := playLive(ctx, p, steps, *sampleRate, *controlRate, *tail, logger); err != nil {
			die("live playback failed: %v", err)
		}
		return
	}

	logger.Info("rendering",
		"steps", len(steps),
		"mode", p.Mode.String(),
		"key", ocarina.KeySignatureName(p.KeySignature),
		"octave", p.OctaveShift,
		"sample_rate", *sampleRate,
		"room", roomStage != nil,
	)

	samples, channels := fitcommon.Render(p, steps, roomStage, fitcommon.RenderOptions{
		SampleRate:  *sampleRate,
		ControlRate: *controlRate,
		BlockSize:   *blockSize,
		Tail:        *tail,
		Logger:      logger,
	})

	if err := fitcommon.WriteWAV(*output, samples, channels, *sampleRate); err != nil {
		die("error writing WAV file: %v", err)
	}
	frames := len(samples) / channels
	logger.Info("wrote", "path", *output, "frames", frames, "channels", channels)

	if *report {
		rep := analysis.Inspect(fitcommon.Downmix(samples, channels), *sampleRate, 0.1)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			die("json encode failed: %v", err)
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

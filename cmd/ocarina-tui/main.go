package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ocarina/internal/audio"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

type options struct {
	presetPath   string
	mode         string
	sampleRate   int
	bufferFrames int
	keySignature int
	octaveShift  int
	controlRate  float64
	logPath      string
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "ocarina-tui",
		Short: "Play the ocarina from the terminal",
		Long: "Toggle holes with the number keys and the breath with space.\n" +
			"Audio is rendered in real time through PortAudio.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.presetPath, "preset", "p", "", "preset JSON file")
	f.StringVarP(&opts.mode, "mode", "m", "", "instrument mode: 8-hole or 10-hole")
	f.IntVar(&opts.sampleRate, "sample-rate", 48000, "output sample rate in Hz")
	f.IntVar(&opts.bufferFrames, "buffer", 256, "frames per audio callback")
	f.IntVarP(&opts.keySignature, "key", "k", 0, "key signature in [-4,7]")
	f.IntVarP(&opts.octaveShift, "octave", "o", 0, "octave shift in [-3,2]")
	f.Float64Var(&opts.controlRate, "control-rate", audio.DefaultControlRate, "control ticks per second")
	f.StringVar(&opts.logPath, "log", "", "write logs to this file (the screen belongs to the UI)")
	return cmd
}

func run(opts options) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	p := preset.Default()
	if opts.presetPath != "" {
		var err error
		if p, err = preset.LoadJSON(opts.presetPath); err != nil {
			return fmt.Errorf("load preset: %w", err)
		}
	} else {
		p.KeySignature = opts.keySignature
		p.OctaveShift = opts.octaveShift
	}
	if opts.mode != "" {
		mode, err := ocarina.ParseInstrumentMode(opts.mode)
		if err != nil {
			return err
		}
		p.Mode = mode
	}

	engine := ocarina.NewEngine(opts.sampleRate, &p.Config, ocarina.WithLogger(logger), ocarina.WithInstrumentMode(p.Mode))
	out, err := audio.NewPortAudioPlayer(engine, engine.SampleRate(), 1, opts.bufferFrames)
	if err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	if err := out.Start(); err != nil {
		return fmt.Errorf("audio start: %w", err)
	}
	defer func() {
		if err := out.Stop(); err != nil {
			logger.Warn("audio stop", "err", err)
		}
	}()

	model := NewModel(engine, p.Mode, p.KeySignature, p.OctaveShift, opts.controlRate)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	st := engine.Stats()
	logger.Info("stopped", "frames", st.RenderedFrames, "resets", st.Resets)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

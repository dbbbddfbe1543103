package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cwbudde/algo-ocarina/internal/audio"
	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

var layoutKeys = map[byte]ebiten.Key{
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL, ';': ebiten.KeySemicolon,
	'g': ebiten.KeyG, 'h': ebiten.KeyH,
}

// game is the control domain: ebiten calls Update at a fixed tick rate.
type game struct {
	engine *ocarina.Engine
	mode   ocarina.InstrumentMode
	trans  transposition
	frame  ocarina.LabelFrame
}

func (g *game) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.trans = g.trans.shiftKey(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.trans = g.trans.shiftKey(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.trans = g.trans.shiftOctave(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.trans = g.trans.shiftOctave(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		if g.mode == ocarina.EightHole {
			g.mode = ocarina.TenHole
		} else {
			g.mode = ocarina.EightHole
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if g.frame == ocarina.Transposed {
			g.frame = ocarina.Fixed
		} else {
			g.frame = ocarina.Transposed
		}
	}

	keys := keysFromPressed(g.mode, func(ch byte) bool { return ebiten.IsKeyPressed(layoutKeys[ch]) })
	g.engine.PublishKeyState(keys, g.mode)
	g.engine.PublishBreath(ebiten.IsKeyPressed(ebiten.KeySpace))
	g.engine.PublishTransposition(g.trans.sig, g.trans.oct)
	g.engine.Tick()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x1d, 0x23, 0x2a, 0xff})
	label := g.engine.CurrentPitchLabel(g.frame)
	name := label.String()
	if g.frame == ocarina.Fixed {
		name = label.NoteName()
	}
	if name == "" {
		name = "-"
	}
	msg := fmt.Sprintf(
		"%s  keys: %s  breath: SPACE\nkey: %s  octave: %+d  labels: %s\n\nnote: %s\nfreq: %.2f Hz  gain: %.3f\n\narrows transpose, TAB mode, N label frame, ESC quit",
		g.mode, legend(g.mode),
		ocarina.KeySignatureName(g.trans.sig), g.trans.oct, g.frame,
		name, g.engine.CurrentFrequencyHz(), g.engine.CurrentGain(),
	)
	ebitenutil.DebugPrint(screen, msg)
}

func (g *game) Layout(_, _ int) (int, int) {
	return 480, 200
}

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON path (optional)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := fitcommon.NewLogger(*verbose)

	p := preset.Default()
	if *presetPath != "" {
		var err error
		if p, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}

	engine := ocarina.NewEngine(*sampleRate, &p.Config, ocarina.WithLogger(logger), ocarina.WithInstrumentMode(p.Mode))
	player, err := audio.NewOtoPlayer(engine.SampleRate(), 1)
	if err != nil {
		die("audio init failed: %v", err)
	}
	defer player.Close()
	player.SetRenderer(engine)
	player.Start()

	g := &game{
		engine: engine,
		mode:   p.Mode,
		trans:  transposition{sig: p.KeySignature, oct: p.OctaveShift},
	}
	ebiten.SetWindowSize(960, 400)
	ebiten.SetWindowTitle("ocarina")
	ebiten.SetTPS(audio.DefaultControlRate)
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("window closed with error", "err", err)
	}
	logger.Debug("stopped", "frames", engine.Stats().RenderedFrames, "resets", engine.Stats().Resets)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

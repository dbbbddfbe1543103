//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

const maxBlockFrames = 128

// host owns the engine created by wasmInit. JavaScript drives the control
// domain from its animation frame and the audio domain from an
// AudioWorklet, both through this value.
type host struct {
	engine *ocarina.Engine
	out    []float32
}

func main() {
	h := &host{}
	exports := map[string]func(js.Value, []js.Value) any{
		"wasmInit":             h.init,
		"wasmSetKeys":          h.setKeys,
		"wasmSetBreath":        h.setBreath,
		"wasmSetTransposition": h.setTransposition,
		"wasmSetPreset":        h.setPreset,
		"wasmTick":             h.tick,
		"wasmReset":            h.reset,
		"wasmGetState":         h.state,
		"wasmProcessBlock":     h.processBlock,
		"wasmGetMemoryBuffer":  h.memoryBuffer,
	}
	for name, fn := range exports {
		js.Global().Set(name, js.FuncOf(fn))
	}
	println("WASM ocarina module loaded")
	select {}
}

// init(sampleRate) creates the engine with the default voicing.
func (h *host) init(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	h.engine = ocarina.NewEngine(args[0].Int(), nil)
	h.out = make([]float32, maxBlockFrames)
	println("Ocarina initialized at", h.engine.SampleRate(), "Hz")
	return nil
}

// setKeys(mask, tenHole) publishes the held keys as a bitmask.
func (h *host) setKeys(_ js.Value, args []js.Value) any {
	if len(args) < 1 || h.engine == nil {
		return nil
	}
	mode := ocarina.EightHole
	if len(args) > 1 && args[1].Truthy() {
		mode = ocarina.TenHole
	}
	h.engine.PublishKeyState(ocarina.KeySet(args[0].Int()), mode)
	return nil
}

func (h *host) setBreath(_ js.Value, args []js.Value) any {
	if len(args) < 1 || h.engine == nil {
		return nil
	}
	h.engine.PublishBreath(args[0].Bool())
	return nil
}

func (h *host) setTransposition(_ js.Value, args []js.Value) any {
	if len(args) < 2 || h.engine == nil {
		return nil
	}
	h.engine.PublishTransposition(args[0].Int(), args[1].Int())
	return nil
}

// setPreset(json) applies a preset document. It returns an error string or
// null.
func (h *host) setPreset(_ js.Value, args []js.Value) any {
	if len(args) < 1 || h.engine == nil {
		return "engine not initialized"
	}
	var f preset.File
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return err.Error()
	}
	p := preset.Default()
	if err := preset.ApplyFile(p, &f); err != nil {
		return err.Error()
	}
	if err := h.engine.PublishConfig(p.Config); err != nil {
		return err.Error()
	}
	h.engine.PublishTransposition(p.KeySignature, p.OctaveShift)
	return nil
}

// tick runs one control tick and returns the resolved fingering.
func (h *host) tick(_ js.Value, _ []js.Value) any {
	if h.engine == nil {
		return ""
	}
	return h.engine.Tick().String()
}

func (h *host) reset(_ js.Value, _ []js.Value) any {
	if h.engine != nil {
		h.engine.ResetState()
	}
	return nil
}

// state(fixed) returns {frequency, gain, label}.
func (h *host) state(_ js.Value, args []js.Value) any {
	if h.engine == nil {
		return nil
	}
	frame := ocarina.Transposed
	if len(args) > 0 && args[0].Truthy() {
		frame = ocarina.Fixed
	}
	label := h.engine.CurrentPitchLabel(frame)
	name := label.String()
	if frame == ocarina.Fixed {
		name = label.NoteName()
	}
	return map[string]any{
		"frequency": h.engine.CurrentFrequencyHz(),
		"gain":      h.engine.CurrentGain(),
		"label":     name,
	}
}

// processBlock(frames) renders mono audio and returns its address in
// linear memory.
func (h *host) processBlock(_ js.Value, args []js.Value) any {
	if len(args) < 1 || h.engine == nil {
		return 0
	}
	n := min(args[0].Int(), maxBlockFrames)
	h.engine.RenderAudio(h.out, n, 1)
	return js.ValueOf(int(uintptr(unsafe.Pointer(&h.out[0]))))
}

func (h *host) memoryBuffer(_ js.Value, _ []js.Value) any {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}

package ocarina

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Engine couples the control domain (input, fingering, pitch, safety) with
// the audio domain (RenderAudio). The two sides share only atomics: the
// control side publishes targets and config, the audio side publishes a
// state snapshot after every block.
//
// Publish*, Tick and the Current* queries are safe from any goroutine.
// RenderAudio must only be called from a single audio goroutine.
type Engine struct {
	sampleRate int
	logger     *slog.Logger

	// Control domain. Never touched by RenderAudio.
	mu      sync.Mutex
	control controlState

	// Control -> audio.
	targetFreq   atomicFloat64
	breath       atomic.Bool
	config       atomic.Pointer[Config]
	resetPending atomic.Bool

	// Audio -> control.
	snapshot snapshotCell
	frames   atomic.Uint64
	resets   atomic.Uint64

	// Audio domain.
	synth *Synth
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes safety and config warnings to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInstrumentMode selects the fingering table used until the next
// PublishKeyState.
func WithInstrumentMode(mode InstrumentMode) Option {
	return func(e *Engine) {
		e.control.mode = mode
	}
}

// NewEngine builds an engine with the given sample rate and voicing. A nil
// cfg selects NewDefaultConfig. Out-of-range fields are clamped.
func NewEngine(sampleRate int, cfg *Config, opts ...Option) *Engine {
	e := &Engine{
		sampleRate: sampleRate,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.synth = NewSynth(sampleRate)
	e.sampleRate = e.synth.SampleRate()

	c := NewDefaultConfig()
	if cfg != nil {
		*c = *cfg
	}
	if changed := c.Sanitize(); len(changed) > 0 {
		e.logger.Warn("config clamped", "fields", changed)
	}
	e.config.Store(c)

	e.snapshot.store(e.synth.Snapshot())
	e.Tick()
	return e
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// PublishKeyState records the currently held keys and the instrument layout.
func (e *Engine) PublishKeyState(keys KeySet, mode InstrumentMode) {
	e.mu.Lock()
	e.control.keys = keys
	e.control.mode = mode
	e.mu.Unlock()
}

// PublishBreath records whether the player is blowing.
func (e *Engine) PublishBreath(active bool) {
	e.mu.Lock()
	e.control.breath = active
	e.mu.Unlock()
}

// PublishTransposition records the key signature and octave shift. Values
// outside the supported ranges are clamped.
func (e *Engine) PublishTransposition(keySignature, octaveShift int) {
	e.mu.Lock()
	e.control.keySignature = ClampKeySignature(keySignature)
	e.control.octaveShift = ClampOctaveShift(octaveShift)
	e.mu.Unlock()
}

// PublishConfig replaces the voicing. The new config takes effect at the
// next audio block. If any field had to be clamped the clamped config is
// still applied and a *ClampedFieldsError is returned.
func (e *Engine) PublishConfig(cfg Config) error {
	c := cfg
	changed := c.Sanitize()
	e.config.Store(&c)
	if len(changed) > 0 {
		e.logger.Warn("config clamped", "fields", changed)
		return &ClampedFieldsError{Fields: changed}
	}
	return nil
}

// Config returns a copy of the active voicing.
func (e *Engine) Config() Config {
	return *e.config.Load()
}

// Tick runs one control-rate step: it resolves the fingering, maps it to a
// target frequency, publishes the targets to the audio domain and runs the
// safety monitor. Call it once per UI frame or control period.
func (e *Engine) Tick() ScaleDegree {
	e.mu.Lock()
	c := &e.control
	c.degree = Resolve(c.keys, c.mode)
	c.target = Frequency(c.degree, c.keySignature, c.octaveShift)
	target, breath, degree := c.target, c.breath, c.degree
	e.mu.Unlock()

	e.targetFreq.Store(target)
	e.breath.Store(breath)
	e.monitor()
	return degree
}

func (e *Engine) monitor() {
	snap := e.snapshot.load()
	fault, bad := CheckState(snap)
	// The stale snapshot stays bad until the audio side has reset, so only
	// the tick that raises the request counts and logs it.
	if !bad || !e.requestReset() {
		return
	}
	e.logger.Warn("synth state invalid, resetting",
		"fault", fault.String(),
		"frequency", snap.Frequency,
		"gain", snap.Gain,
		"phase", snap.Phase,
		"sample", snap.Sample,
	)
}

// requestReset raises the pending flag and reports whether it was newly set.
func (e *Engine) requestReset() bool {
	if e.resetPending.Swap(true) {
		return false
	}
	e.resets.Add(1)
	return true
}

// ResetState forces the synth back to its defaults at the start of the next
// audio block.
func (e *Engine) ResetState() {
	e.requestReset()
	e.snapshot.store(StateSnapshot{Frequency: defaultFrequency})
}

// RenderAudio fills buf with frameCount interleaved frames of channelCount
// channels. It does not allocate, lock or block. If buf is shorter than
// frameCount*channelCount only the frames that fit are rendered.
func (e *Engine) RenderAudio(buf []float32, frameCount, channelCount int) {
	if e.resetPending.Swap(false) {
		e.synth.Reset()
	}
	t := Targets{
		Frequency: e.targetFreq.Load(),
		Breath:    e.breath.Load(),
	}
	n := e.synth.Render(buf, frameCount, channelCount, t, e.config.Load())
	e.snapshot.store(e.synth.Snapshot())
	e.frames.Add(uint64(n))
}

// CurrentFrequencyHz returns the smoothed frequency as of the last block.
func (e *Engine) CurrentFrequencyHz() float64 {
	return e.snapshot.freq.Load()
}

// CurrentGain returns the smoothed amplitude as of the last block.
func (e *Engine) CurrentGain() float64 {
	return e.snapshot.gain.Load()
}

// CurrentDegree returns the degree resolved at the last Tick.
func (e *Engine) CurrentDegree() ScaleDegree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control.degree
}

// CurrentPitchLabel names the sounding pitch in the requested frame. The
// label is empty while breath is off or the voice is inaudible.
func (e *Engine) CurrentPitchLabel(frame LabelFrame) PitchLabel {
	e.mu.Lock()
	breath, sig, oct := e.control.breath, e.control.keySignature, e.control.octaveShift
	e.mu.Unlock()
	if !breath || e.CurrentGain() < audibleGain {
		return PitchLabel{}
	}
	return Label(e.CurrentFrequencyHz(), sig, oct, frame)
}

// Stats is a snapshot of engine counters.
type Stats struct {
	RenderedFrames uint64
	Resets         uint64
}

func (e *Engine) Stats() Stats {
	return Stats{
		RenderedFrames: e.frames.Load(),
		Resets:         e.resets.Load(),
	}
}

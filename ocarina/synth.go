package ocarina

import (
	"math"

	"github.com/cwbudde/algo-ocarina/dsp"
)

const (
	defaultFrequency  = ReferenceFrequency
	minSynthFrequency = 20.0
	maxSynthFrequency = 20000.0

	// silenceGain is where a frozen frequency may snap to a new target.
	silenceGain = 1e-4
	// audibleGain is the threshold below which no pitch label is reported.
	audibleGain = 1e-3

	retargetJump     = 0.05 // relative target change that counts as a leap
	leapAttackScale  = 2.5
	leapHoldAttacks  = 2.0 // leap scaling lasts this many attack times
	minPhaseRatio    = 0.1
	maxPhaseRatio    = 10.0
	phaseFoldCycles  = 4096.0
	noiseSeed        = 22222
	softKneeStart    = 0.6
	silenceRecoverHz = 200.0
)

// Harmonic weights relative to the fundamental. A vessel flute is close to
// a sine with a little even-harmonic colour.
var harmonicWeights = [4]float64{1.0, 0.32, 0.14, 0.06}

const harmonicNorm = 1.0 / (1.0 + 0.32 + 0.14 + 0.06)

// Targets is the latest control-rate input seen by the audio domain.
type Targets struct {
	Frequency float64 // Hz; <= 0 means no pitch
	Breath    bool
}

// SynthState is every piece of mutable state the synthesis core owns.
type SynthState struct {
	// Phase is a time-like accumulator; the instantaneous phase is
	// 2π·Freq·Phase, so a frequency change rescales it by old/new.
	Phase float64

	Freq       Smoother
	TargetFreq float64
	Gain       Smoother
	TargetGain float64

	Formant1 dsp.Biquad
	Formant2 dsp.Biquad

	NoiseLP dsp.OnePole
	Seed    uint32

	Prev         float64
	SilenceEnv   float64
	VibratoPhase float64
	LeapHold     float64 // seconds of leap-scaled attack remaining
}

// StateSnapshot is the read-only view shared with the control domain.
type StateSnapshot struct {
	Frequency float64
	Gain      float64
	Phase     float64
	Sample    float64
}

// Synth renders the ocarina voice one sample at a time.
type Synth struct {
	sampleRate float64
	dt         float64
	state      SynthState
}

// NewSynth creates a synth in its reset state.
func NewSynth(sampleRate int) *Synth {
	if sampleRate < 8000 {
		sampleRate = 8000
	}
	s := &Synth{
		sampleRate: float64(sampleRate),
		dt:         1.0 / float64(sampleRate),
	}
	s.Reset()
	return s
}

func (s *Synth) SampleRate() int { return int(s.sampleRate) }

// Reset restores every field to its known-good default.
func (s *Synth) Reset() {
	s.state = SynthState{
		Freq:       Smoother{Value: defaultFrequency},
		Seed:       noiseSeed,
		SilenceEnv: 1,
	}
	s.state.Formant1.Reset()
	s.state.Formant2.Reset()
	s.state.NoiseLP.Reset()
}

// Snapshot returns the values the safety monitor and queries look at.
func (s *Synth) Snapshot() StateSnapshot {
	return StateSnapshot{
		Frequency: s.state.Freq.Value,
		Gain:      s.state.Gain.Value,
		Phase:     s.state.Phase,
		Sample:    s.state.Prev,
	}
}

// Render fills dst with interleaved frames, writing the same sample to every
// channel. It returns the number of frames written, which is frames unless
// dst is too short.
func (s *Synth) Render(dst []float32, frames, channels int, t Targets, cfg *Config) int {
	if channels < 1 {
		channels = 1
	}
	if frames < 0 {
		frames = 0
	}
	if max := len(dst) / channels; frames > max {
		frames = max
	}
	for i := 0; i < frames; i++ {
		v := float32(s.ProcessSample(t, cfg))
		base := i * channels
		for c := 0; c < channels; c++ {
			dst[base+c] = v
		}
	}
	return frames
}

// ProcessSample advances the voice by one sample and returns it in [-1, 1].
func (s *Synth) ProcessSample(t Targets, cfg *Config) float64 {
	if cfg == nil {
		cfg = defaultConfig
	}
	st := &s.state
	dt := s.dt

	// 1. Smoothers.
	hasPitch := t.Frequency > 0 && isFinite64(t.Frequency)
	if hasPitch {
		target := clampFrequency(t.Frequency)
		if st.TargetFreq > 0 && math.Abs(target-st.TargetFreq) > retargetJump*st.TargetFreq {
			st.LeapHold = leapHoldAttacks * cfg.AttackTime
		}
		st.TargetFreq = target
	}
	sounding := t.Breath && hasPitch

	oldFreq := st.Freq.Value
	if st.Gain.Value < silenceGain && st.TargetFreq > 0 {
		st.Freq.Snap(st.TargetFreq)
	} else if sounding {
		st.Freq.Step(st.TargetFreq, cfg.GlideTime, dt)
	}
	f := clampFrequency(st.Freq.Value)
	if f != st.Freq.Value {
		st.Freq.Snap(f)
	}

	var gainTau float64
	if sounding {
		st.TargetGain = cfg.Volume
		gainTau = cfg.AttackTime
		if st.LeapHold > 0 {
			gainTau *= leapAttackScale
		}
	} else {
		st.TargetGain = 0
		gainTau = cfg.ReleaseTime * clamp(math.Sqrt(ReferenceFrequency/f), 0.5, 2.5)
	}
	if st.LeapHold > 0 {
		st.LeapHold -= dt
	}
	gain := st.Gain.Step(st.TargetGain, gainTau, dt)
	if !isFinite64(gain) || gain < 0 {
		st.Gain.Snap(0)
		gain = 0
	}

	if oldFreq > 0 && math.Abs(f-oldFreq) > 1e-6 {
		st.Phase *= clamp(oldFreq/f, minPhaseRatio, maxPhaseRatio)
	}

	// Transient amount in [0,1]: fast glides and the rising edge of an attack.
	glideRate := math.Abs(f-oldFreq) / f * s.sampleRate
	transient := clamp(glideRate/40.0, 0, 1)
	if sounding && cfg.Volume > 0 && st.Gain.Velocity > 0 {
		atk := st.Gain.Velocity * cfg.AttackTime / cfg.Volume
		transient = math.Max(transient, clamp(atk, 0, 1))
	}

	// 2. Phase-modulated harmonic oscillator.
	st.VibratoPhase += 2 * math.Pi * cfg.VibratoRate * dt
	if st.VibratoPhase > 2*math.Pi {
		st.VibratoPhase -= 2 * math.Pi
	}
	theta := 2*math.Pi*f*st.Phase + cfg.VibratoDepth*math.Sin(st.VibratoPhase)
	var osc float64
	for n, w := range harmonicWeights {
		hf := float64(n+1) * f
		if hf >= 0.45*s.sampleRate {
			break
		}
		roll := 1.0 / math.Sqrt(1.0+(hf/cfg.Brightness)*(hf/cfg.Brightness))
		osc += w * roll * math.Sin(float64(n+1)*theta)
	}
	osc = finiteOr(osc*harmonicNorm, 0)

	// 3. Breath noise.
	var noise float64
	if t.Breath {
		st.Seed = st.Seed*1664525 + 1013904223
		white := float64(st.Seed)/2147483648.0 - 1.0
		cutoff := clamp(3*f, 300, 9000)
		st.NoiseLP.SetTimeConstant(1/(2*math.Pi*cutoff), dt)
		lp := st.NoiseLP.Process(white)
		if !isFinite64(lp) {
			st.NoiseLP.Reset()
			lp = 0
		}
		intensity := cfg.NoiseIntensity * (0.4 + 0.6*cfg.BreathPressure)
		noise = finiteOr(2*lp*intensity, 0)
	}

	// 4. Dual formant filters.
	x := finiteOr((osc+noise)*gain, 0)
	st.Formant1.SetBandpass(f*cfg.PreResonanceRatio, 6.0/cfg.FormantWidth, s.sampleRate)
	st.Formant2.SetBandpass(1100+0.6*f, 3.0/cfg.FormantWidth, s.sampleRate)
	bp := 0.6*st.Formant1.Process(x) + 0.4*st.Formant2.Process(x)
	if !isFinite64(bp) || !st.Formant1.Finite() || !st.Formant2.Finite() {
		st.Formant1.Reset()
		st.Formant2.Reset()
		bp = 0
	}
	y := (1-cfg.FormantCoupling)*x + cfg.FormantCoupling*bp

	// 5. Pressure damping, soft knee and adaptive soft clip.
	y *= expApprox(-0.12 * cfg.BreathPressure)
	y = softKnee(y, softKneeStart)
	clipMix := 0.15 + 0.6*transient
	y = (1-clipMix)*y + clipMix*math.Tanh(y)
	y = finiteOr(y, 0)

	// 6. Transition blend with the previous sample, then hard clamp.
	beta := 0.1 + 0.45*transient
	y = (1-beta)*y + beta*st.Prev
	y = clamp(finiteOr(y, 0), -1, 1)

	// 7. Extra decay while breath is off.
	if !t.Breath {
		st.SilenceEnv *= expApprox(-dt * (8 + f/100))
	} else {
		st.SilenceEnv += (1 - st.SilenceEnv) * (1 - expApprox(-2*math.Pi*silenceRecoverHz*dt))
	}
	y *= st.SilenceEnv

	// 8. Bookkeeping.
	st.Prev = y
	st.Phase += dt
	if cycles := f * st.Phase; cycles > phaseFoldCycles {
		st.Phase = (cycles - math.Floor(cycles)) / f
	}
	if !isFinite64(st.Phase) {
		st.Phase = 0
	}
	return y
}

// softKnee compresses magnitudes above knee so the output approaches but
// never exceeds 1.
func softKnee(x, knee float64) float64 {
	a := math.Abs(x)
	if a <= knee {
		return x
	}
	room := 1 - knee
	over := a - knee
	out := knee + over/(1+over/room)
	if x < 0 {
		return -out
	}
	return out
}

var defaultConfig = NewDefaultConfig()

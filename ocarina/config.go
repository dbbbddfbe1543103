package ocarina

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds the tunable synthesis constants.
type Config struct {
	Volume float64 // Gain target while breath is active

	NoiseIntensity float64 // Breath noise level relative to the tone
	BreathPressure float64 // Scales noise and output damping

	FormantCoupling   float64 // Wet share of the formant filters, 0..1
	FormantWidth      float64 // Relative formant bandwidth, larger = wider
	PreResonanceRatio float64 // First formant centre as a multiple of f0
	Brightness        float64 // Harmonic roll-off corner in Hz

	AttackTime  float64 // Seconds
	ReleaseTime float64 // Seconds
	GlideTime   float64 // Seconds, frequency smoothing while sounding

	VibratoRate  float64 // Hz
	VibratoDepth float64 // Phase modulation depth in radians
}

// NewDefaultConfig returns the stock ocarina voicing.
func NewDefaultConfig() *Config {
	return &Config{
		Volume:            0.7,
		NoiseIntensity:    0.06,
		BreathPressure:    1.0,
		FormantCoupling:   0.35,
		FormantWidth:      1.0,
		PreResonanceRatio: 1.0,
		Brightness:        2400,
		AttackTime:        0.03,
		ReleaseTime:       0.06,
		GlideTime:         0.025,
		VibratoRate:       5.2,
		VibratoDepth:      0.0,
	}
}

type limit struct {
	name   string
	field  *float64
	lo, hi float64
}

func (c *Config) limits() []limit {
	return []limit{
		{"volume", &c.Volume, 0, 1},
		{"noise_intensity", &c.NoiseIntensity, 0, 1},
		{"breath_pressure", &c.BreathPressure, 0.05, 4},
		{"formant_coupling", &c.FormantCoupling, 0, 1},
		{"formant_width", &c.FormantWidth, 0.1, 8},
		{"pre_resonance_ratio", &c.PreResonanceRatio, 0.25, 4},
		{"brightness", &c.Brightness, 200, 16000},
		{"attack_time", &c.AttackTime, 0.001, 2},
		{"release_time", &c.ReleaseTime, 0.001, 4},
		{"glide_time", &c.GlideTime, 0.001, 2},
		{"vibrato_rate", &c.VibratoRate, 0, 20},
		{"vibrato_depth", &c.VibratoDepth, 0, 1},
	}
}

// Sanitize clamps every field into its supported range and replaces
// non-finite values with the defaults. It returns the names of the fields
// it had to change.
func (c *Config) Sanitize() []string {
	def := NewDefaultConfig()
	defLimits := def.limits()
	var changed []string
	for i, l := range c.limits() {
		v := *l.field
		switch {
		case !isFinite64(v):
			v = *defLimits[i].field
		case v < l.lo:
			v = l.lo
		case v > l.hi:
			v = l.hi
		}
		if v != *l.field {
			*l.field = v
			changed = append(changed, l.name)
		}
	}
	return changed
}

// Validate reports the first field outside its supported range.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	for _, l := range c.limits() {
		v := *l.field
		if !isFinite64(v) {
			return fmt.Errorf("%s must be finite", l.name)
		}
		if v < l.lo || v > l.hi {
			return fmt.Errorf("%s must be in [%g,%g], got %g", l.name, l.lo, l.hi, v)
		}
	}
	return nil
}

// ClampedFieldsError lists fields that PublishConfig had to clamp.
type ClampedFieldsError struct {
	Fields []string
}

func (e *ClampedFieldsError) Error() string {
	return "config fields clamped: " + strings.Join(e.Fields, ", ")
}

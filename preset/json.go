package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-ocarina/ocarina"
)

// File is the JSON schema for ocarina presets. Every field is optional and
// overrides the default voicing only when present.
type File struct {
	Volume            *float64 `json:"volume,omitempty"`
	NoiseIntensity    *float64 `json:"noise_intensity,omitempty"`
	BreathPressure    *float64 `json:"breath_pressure,omitempty"`
	FormantCoupling   *float64 `json:"formant_coupling,omitempty"`
	FormantWidth      *float64 `json:"formant_width,omitempty"`
	PreResonanceRatio *float64 `json:"pre_resonance_ratio,omitempty"`
	Brightness        *float64 `json:"brightness,omitempty"`
	AttackTime        *float64 `json:"attack_time,omitempty"`
	ReleaseTime       *float64 `json:"release_time,omitempty"`
	GlideTime         *float64 `json:"glide_time,omitempty"`
	VibratoRate       *float64 `json:"vibrato_rate,omitempty"`
	VibratoDepth      *float64 `json:"vibrato_depth,omitempty"`

	Mode         string `json:"mode,omitempty"`
	KeySignature *int   `json:"key_signature,omitempty"`
	OctaveShift  *int   `json:"octave_shift,omitempty"`

	RoomIRWavPath string   `json:"room_ir_wav_path,omitempty"`
	RoomWetMix    *float64 `json:"room_wet_mix,omitempty"`
	RoomDryMix    *float64 `json:"room_dry_mix,omitempty"`
}

// Preset is a voicing plus the instrument setup it was made for.
type Preset struct {
	Config       ocarina.Config
	Mode         ocarina.InstrumentMode
	KeySignature int
	OctaveShift  int

	RoomIRWavPath string
	RoomWetMix    float64
	RoomDryMix    float64
}

// Default returns the stock eight-hole preset in C without a room.
func Default() *Preset {
	return &Preset{
		Config:     *ocarina.NewDefaultConfig(),
		Mode:       ocarina.EightHole,
		RoomWetMix: 0.25,
		RoomDryMix: 1.0,
	}
}

// LoadJSON loads a preset JSON file and applies it on top of Default.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p := Default()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if p.RoomIRWavPath != "" && !filepath.IsAbs(p.RoomIRWavPath) {
		base := filepath.Dir(path)
		p.RoomIRWavPath = filepath.Clean(filepath.Join(base, p.RoomIRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing preset. Values
// outside the supported ranges are rejected rather than clamped.
func ApplyFile(dst *Preset, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination preset")
	}
	if f == nil {
		return nil
	}

	cfg := dst.Config
	for _, o := range []struct {
		src *float64
		dst *float64
	}{
		{f.Volume, &cfg.Volume},
		{f.NoiseIntensity, &cfg.NoiseIntensity},
		{f.BreathPressure, &cfg.BreathPressure},
		{f.FormantCoupling, &cfg.FormantCoupling},
		{f.FormantWidth, &cfg.FormantWidth},
		{f.PreResonanceRatio, &cfg.PreResonanceRatio},
		{f.Brightness, &cfg.Brightness},
		{f.AttackTime, &cfg.AttackTime},
		{f.ReleaseTime, &cfg.ReleaseTime},
		{f.GlideTime, &cfg.GlideTime},
		{f.VibratoRate, &cfg.VibratoRate},
		{f.VibratoDepth, &cfg.VibratoDepth},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dst.Config = cfg

	if f.Mode != "" {
		mode, err := ocarina.ParseInstrumentMode(f.Mode)
		if err != nil {
			return err
		}
		dst.Mode = mode
	}
	if f.KeySignature != nil {
		sig := *f.KeySignature
		if sig < ocarina.MinKeySignature || sig > ocarina.MaxKeySignature {
			return fmt.Errorf("key_signature must be in [%d,%d]", ocarina.MinKeySignature, ocarina.MaxKeySignature)
		}
		dst.KeySignature = sig
	}
	if f.OctaveShift != nil {
		oct := *f.OctaveShift
		if oct < ocarina.MinOctaveShift || oct > ocarina.MaxOctaveShift {
			return fmt.Errorf("octave_shift must be in [%d,%d]", ocarina.MinOctaveShift, ocarina.MaxOctaveShift)
		}
		dst.OctaveShift = oct
	}

	if f.RoomIRWavPath != "" {
		dst.RoomIRWavPath = strings.TrimSpace(f.RoomIRWavPath)
	}
	if f.RoomWetMix != nil {
		if *f.RoomWetMix < 0 {
			return fmt.Errorf("room_wet_mix must be >= 0")
		}
		dst.RoomWetMix = *f.RoomWetMix
	}
	if f.RoomDryMix != nil {
		if *f.RoomDryMix < 0 {
			return fmt.Errorf("room_dry_mix must be >= 0")
		}
		dst.RoomDryMix = *f.RoomDryMix
	}
	return nil
}

// ToFile converts a preset into a fully populated File.
func ToFile(p *Preset) *File {
	c := p.Config
	sig, oct := p.KeySignature, p.OctaveShift
	wet, dry := p.RoomWetMix, p.RoomDryMix
	return &File{
		Volume:            &c.Volume,
		NoiseIntensity:    &c.NoiseIntensity,
		BreathPressure:    &c.BreathPressure,
		FormantCoupling:   &c.FormantCoupling,
		FormantWidth:      &c.FormantWidth,
		PreResonanceRatio: &c.PreResonanceRatio,
		Brightness:        &c.Brightness,
		AttackTime:        &c.AttackTime,
		ReleaseTime:       &c.ReleaseTime,
		GlideTime:         &c.GlideTime,
		VibratoRate:       &c.VibratoRate,
		VibratoDepth:      &c.VibratoDepth,
		Mode:              p.Mode.String(),
		KeySignature:      &sig,
		OctaveShift:       &oct,
		RoomIRWavPath:     p.RoomIRWavPath,
		RoomWetMix:        &wet,
		RoomDryMix:        &dry,
	}
}

// SaveJSON writes p as an indented preset file.
func SaveJSON(path string, p *Preset) error {
	b, err := json.MarshalIndent(ToFile(p), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

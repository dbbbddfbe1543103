package main

import (
	"fmt"
	"math"
	"strings"

	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/irsynth"
	"github.com/cwbudde/algo-ocarina/preset"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

var validGroups = []string{"voice", "envelope", "room", "mix"}

// parseOptimizeGroups parses a comma-separated list of knob groups.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ok := false
		for _, g := range validGroups {
			ok = ok || g == s
		}
		if !ok {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(validGroups, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

func initCandidate(base *preset.Preset, sampleRate int, groups map[string]bool) ([]knobDef, candidate) {
	room := irsynth.DefaultRoomConfig()
	room.SampleRate = sampleRate
	c := base.Config

	defs := make([]knobDef, 0, 24)
	vals := make([]float64, 0, 24)
	add := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["voice"] {
		add(knobDef{Name: "volume", Min: 0.1, Max: 1.0}, c.Volume)
		add(knobDef{Name: "noise_intensity", Min: 0.0, Max: 0.3}, c.NoiseIntensity)
		add(knobDef{Name: "breath_pressure", Min: 0.1, Max: 2.0}, c.BreathPressure)
		add(knobDef{Name: "formant_coupling", Min: 0.0, Max: 1.0}, c.FormantCoupling)
		add(knobDef{Name: "formant_width", Min: 0.2, Max: 3.0}, c.FormantWidth)
		add(knobDef{Name: "pre_resonance_ratio", Min: 0.5, Max: 3.0}, c.PreResonanceRatio)
		add(knobDef{Name: "brightness", Min: 500, Max: 8000}, c.Brightness)
		add(knobDef{Name: "vibrato_rate", Min: 0.0, Max: 8.0}, c.VibratoRate)
		add(knobDef{Name: "vibrato_depth", Min: 0.0, Max: 0.5}, c.VibratoDepth)
	}
	if groups["envelope"] {
		add(knobDef{Name: "attack_time", Min: 0.005, Max: 0.3}, c.AttackTime)
		add(knobDef{Name: "release_time", Min: 0.01, Max: 0.5}, c.ReleaseTime)
		add(knobDef{Name: "glide_time", Min: 0.005, Max: 0.2}, c.GlideTime)
	}
	if groups["room"] {
		add(knobDef{Name: "room_early", Min: 0, Max: 48, IsInt: true}, float64(room.EarlyCount))
		add(knobDef{Name: "room_pre_delay", Min: 0.0, Max: 0.05}, room.PreDelayS)
		add(knobDef{Name: "room_late", Min: 0.0, Max: 0.15}, room.LateLevel)
		add(knobDef{Name: "room_stereo_width", Min: 0.0, Max: 1.0}, room.StereoWidth)
		add(knobDef{Name: "room_tail_cutoff", Min: 1000, Max: 12000}, room.TailCutoffHz)
		add(knobDef{Name: "room_low_decay", Min: 0.2, Max: 3.0}, room.LowDecayS)
		add(knobDef{Name: "room_high_decay", Min: 0.05, Max: 0.8}, room.HighDecayS)
	}
	if groups["mix"] {
		add(knobDef{Name: "room_wet", Min: 0.0, Max: 1.0}, base.RoomWetMix)
		add(knobDef{Name: "room_dry", Min: 0.2, Max: 1.5}, base.RoomDryMix)
	}

	for i := range vals {
		vals[i] = fitcommon.Clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a preset and room config with the candidate's
// knob values applied to copies of base.
func applyCandidate(base *preset.Preset, sampleRate int, defs []knobDef, c candidate) (*preset.Preset, irsynth.RoomConfig) {
	p := *base
	room := irsynth.DefaultRoomConfig()
	room.SampleRate = sampleRate
	room.DurationS = 1.5

	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "volume":
			p.Config.Volume = v
		case "noise_intensity":
			p.Config.NoiseIntensity = v
		case "breath_pressure":
			p.Config.BreathPressure = v
		case "formant_coupling":
			p.Config.FormantCoupling = v
		case "formant_width":
			p.Config.FormantWidth = v
		case "pre_resonance_ratio":
			p.Config.PreResonanceRatio = v
		case "brightness":
			p.Config.Brightness = v
		case "vibrato_rate":
			p.Config.VibratoRate = v
		case "vibrato_depth":
			p.Config.VibratoDepth = v
		case "attack_time":
			p.Config.AttackTime = v
		case "release_time":
			p.Config.ReleaseTime = v
		case "glide_time":
			p.Config.GlideTime = v
		case "room_early":
			room.EarlyCount = max(0, int(math.Round(v)))
		case "room_pre_delay":
			room.PreDelayS = v
		case "room_late":
			room.LateLevel = v
		case "room_stereo_width":
			room.StereoWidth = v
		case "room_tail_cutoff":
			room.TailCutoffHz = v
		case "room_low_decay":
			room.LowDecayS = v
		case "room_high_decay":
			room.HighDecayS = v
		case "room_wet":
			p.RoomWetMix = v
		case "room_dry":
			p.RoomDryMix = v
		}
	}
	p.Config.Sanitize()
	return &p, room
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}

// candidateFromKnobs overlays named values onto fallback.
func candidateFromKnobs(knobs map[string]float64, defs []knobDef, fallback candidate) (candidate, bool) {
	vals := append([]float64(nil), fallback.Vals...)
	updated := false
	for i, d := range defs {
		if v, ok := knobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	return candidate{Vals: vals}, updated
}

package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-ocarina/ocarina"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesVoicingAndSetup(t *testing.T) {
	path := writePreset(t, `{
  "volume": 0.5,
  "noise_intensity": 0.1,
  "brightness": 3200,
  "attack_time": 0.05,
  "mode": "10-hole",
  "key_signature": 5,
  "octave_shift": -1,
  "room_ir_wav_path": "ir.wav",
  "room_wet_mix": 0.4
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.Config.Volume != 0.5 || p.Config.NoiseIntensity != 0.1 || p.Config.Brightness != 3200 || p.Config.AttackTime != 0.05 {
		t.Fatalf("voicing mismatch: %+v", p.Config)
	}
	def := ocarina.NewDefaultConfig()
	if p.Config.ReleaseTime != def.ReleaseTime || p.Config.FormantCoupling != def.FormantCoupling {
		t.Fatalf("unset fields lost their defaults: %+v", p.Config)
	}
	if p.Mode != ocarina.TenHole || p.KeySignature != 5 || p.OctaveShift != -1 {
		t.Fatalf("setup mismatch: %+v", p)
	}
	if want := filepath.Join(filepath.Dir(path), "ir.wav"); p.RoomIRWavPath != want {
		t.Fatalf("ir path mismatch: got=%q want=%q", p.RoomIRWavPath, want)
	}
	if p.RoomWetMix != 0.4 || p.RoomDryMix != 1.0 {
		t.Fatalf("room mix mismatch: wet=%v dry=%v", p.RoomWetMix, p.RoomDryMix)
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	tests := map[string]string{
		"volume":        `{"volume": 1.5}`,
		"attack_time":   `{"attack_time": 0}`,
		"key_signature": `{"key_signature": 9}`,
		"octave_shift":  `{"octave_shift": 3}`,
		"mode":          `{"mode": "12-hole"}`,
		"room_wet_mix":  `{"room_wet_mix": -1}`,
	}
	for field, content := range tests {
		t.Run(field, func(t *testing.T) {
			_, err := LoadJSON(writePreset(t, content))
			if err == nil {
				t.Fatalf("expected error for %s", content)
			}
			if field != "mode" && !strings.Contains(err.Error(), field) {
				t.Fatalf("error %q does not name %s", err, field)
			}
		})
	}
}

func TestLoadJSONRejectsMalformed(t *testing.T) {
	if _, err := LoadJSON(writePreset(t, `{"volume": "loud"}`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	p := Default()
	p.Config.Volume = 0.42
	p.Config.VibratoDepth = 0.2
	p.Mode = ocarina.TenHole
	p.KeySignature = -2
	p.RoomWetMix = 0.1

	path := filepath.Join(t.TempDir(), "out", "best.json")
	if err := SaveJSON(path, p); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got.Config != p.Config || got.Mode != p.Mode || got.KeySignature != p.KeySignature || got.RoomWetMix != p.RoomWetMix {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestApplyFileNil(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatal("expected error for nil destination")
	}
	p := Default()
	if err := ApplyFile(p, nil); err != nil {
		t.Fatalf("nil file: %v", err)
	}
}

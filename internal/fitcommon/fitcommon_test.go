package fitcommon

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

func TestParseWorkers(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "auto", want: 0},
		{in: " AUTO ", want: 0},
		{in: "4", want: 4},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "many", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseWorkers(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseWorkers(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseWorkers(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestClampAndDB(t *testing.T) {
	if Clamp(2, 0, 1) != 1 || Clamp(-1, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("clamp mismatch")
	}
	if v := DBToLinear(-20); math.Abs(v-0.1) > 1e-12 {
		t.Fatalf("DBToLinear(-20) = %g", v)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	const sr = 8000
	left := make([]float32, 400)
	right := make([]float32, 400)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.25
	}
	path := filepath.Join(t.TempDir(), "nested", "st.wav")
	if err := WriteStereoWAV(path, left, right, sr); err != nil {
		t.Fatalf("WriteStereoWAV: %v", err)
	}
	mono, gotSR, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if gotSR != sr || len(mono) != len(left) {
		t.Fatalf("got sr=%d frames=%d", gotSR, len(mono))
	}
	if math.Abs(mono[10]-0.125) > 1e-3 {
		t.Fatalf("downmixed value = %g, want 0.125", mono[10])
	}
}

func TestWriteWAVClipsOverload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	data := []float32{1.5, -2, 0.5, 0}
	if err := WriteWAV(path, data, 1, 8000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	mono, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(mono) != len(data) {
		t.Fatalf("frames = %d", len(mono))
	}
	if mono[0] < 0.99 || mono[1] > -0.99 {
		t.Fatalf("overload wrapped instead of clipping: %v", mono)
	}
	if data[0] != 1.5 {
		t.Fatal("WriteWAV modified the caller's buffer")
	}
}

func TestWriteWAVRejectsRaggedBuffer(t *testing.T) {
	if err := WriteWAV(filepath.Join(t.TempDir(), "x.wav"), make([]float32, 3), 2, 8000); err == nil {
		t.Fatal("expected error for odd stereo sample count")
	}
	if err := WriteStereoWAV(filepath.Join(t.TempDir(), "y.wav"), make([]float32, 2), make([]float32, 3), 8000); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestDownmixAndRMS(t *testing.T) {
	m := Downmix([]float32{1, 0, 0.5, 0.5}, 2)
	if len(m) != 2 || m[0] != 0.5 || m[1] != 0.5 {
		t.Fatalf("downmix = %v", m)
	}
	if Downmix([]float32{1}, 0) != nil {
		t.Fatal("zero channels should yield nil")
	}
	if r := RMS([]float32{1, -1, 1, -1}); r != 1 {
		t.Fatalf("RMS = %g", r)
	}
	if RMS(nil) != 0 {
		t.Fatal("RMS(nil) != 0")
	}
}

func TestResampleSameRate(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := Resample(in, 48000, 48000)
	if err != nil || &out[0] != &in[0] {
		t.Fatal("matching rates should return the input")
	}
}

func TestRenderMonoAndRoom(t *testing.T) {
	p := preset.Default()
	steps, err := ocarina.ParsePerformance("01234567:0.1", p.Mode)
	if err != nil {
		t.Fatal(err)
	}
	opts := RenderOptions{SampleRate: 16000, ControlRate: 100, BlockSize: 64, Tail: 0.05}

	mono, ch := Render(p, steps, nil, opts)
	if ch != 1 || len(mono) != int(0.15*16000) {
		t.Fatalf("mono render: channels=%d len=%d", ch, len(mono))
	}
	if RMS(mono) == 0 {
		t.Fatal("mono render is silent")
	}

	room, err := LoadRoom(p, "field", opts.SampleRate)
	if err != nil || room == nil {
		t.Fatalf("LoadRoom: %v", err)
	}
	st, ch := Render(p, steps, room, opts)
	if ch != 2 || len(st) != 2*len(mono) {
		t.Fatalf("room render: channels=%d len=%d", ch, len(st))
	}
}

func TestLoadRoomNone(t *testing.T) {
	room, err := LoadRoom(preset.Default(), "", 48000)
	if err != nil || room != nil {
		t.Fatalf("expected no room, got %v, %v", room, err)
	}
	if _, err := LoadRoom(preset.Default(), "nowhere", 48000); err == nil {
		t.Fatal("expected error for unknown room")
	}
}

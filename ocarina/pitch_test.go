package ocarina

import (
	"fmt"
	"math"
	"testing"
)

func TestPitchMapping(t *testing.T) {
	tests := []struct {
		name      string
		degree    ScaleDegree
		sig, oct  int
		want, tol float64
	}{
		{"C Mid1", ScaleDegree{Mid, 1, Natural}, 0, 0, 261.63, 0.01},
		{"F Mid1", ScaleDegree{Mid, 1, Natural}, 5, 0, 349.23, 0.05},
		{"C Low6", ScaleDegree{Low, 6, Natural}, 0, 0, 220.0, 0.01},
		{"C Mid6", ScaleDegree{Mid, 6, Natural}, 0, 0, 440.0, 0.01},
		{"C High2", ScaleDegree{High, 2, Natural}, 0, 0, 587.33, 0.05},
		{"G Mid1", ScaleDegree{Mid, 1, Natural}, 7, 0, 392.00, 0.05},
		{"Ab Mid1", ScaleDegree{Mid, 1, Natural}, -4, 0, 207.65, 0.05},
		{"C Mid#4", ScaleDegree{Mid, 4, Sharp}, 0, 0, 369.99, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Frequency(tt.degree, tt.sig, tt.oct)
			if math.Abs(got-tt.want) > tt.tol {
				t.Fatalf("Frequency(%s, %d, %d) = %.4f, want %.2f ±%.2f", tt.degree, tt.sig, tt.oct, got, tt.want, tt.tol)
			}
		})
	}
}

func TestOctaveShiftScaling(t *testing.T) {
	d := ScaleDegree{Mid, 3, Natural}
	for sig := MinKeySignature; sig <= MaxKeySignature; sig++ {
		base := Frequency(d, sig, 0)
		for oct := MinOctaveShift; oct <= MaxOctaveShift; oct++ {
			got := Frequency(d, sig, oct)
			want := base * math.Pow(2, float64(oct))
			if math.Abs(got-want) > 1e-9*want {
				t.Fatalf("sig %d oct %d: got %.6f want %.6f", sig, oct, got, want)
			}
		}
	}
}

func TestTranspositionClamped(t *testing.T) {
	d := ScaleDegree{Mid, 1, Natural}
	if Frequency(d, 99, 0) != Frequency(d, MaxKeySignature, 0) {
		t.Fatal("key signature above range not clamped")
	}
	if Frequency(d, 0, -10) != Frequency(d, 0, MinOctaveShift) {
		t.Fatal("octave shift below range not clamped")
	}
	if KeySignatureName(5) != "F" || KeySignatureName(-9) != "Ab" {
		t.Fatalf("unexpected names %q %q", KeySignatureName(5), KeySignatureName(-9))
	}
}

func TestInvalidSharpIgnored(t *testing.T) {
	e := ScaleDegree{Mid, 3, Sharp}
	if e.Valid() {
		t.Fatal("Mid #3 reported valid")
	}
	if e.SemitoneOffset() != (ScaleDegree{Mid, 3, Natural}).SemitoneOffset() {
		t.Fatal("sharp on degree 3 was applied")
	}
}

func allValidDegrees() []ScaleDegree {
	var out []ScaleDegree
	for _, r := range []Register{Low, Mid, High} {
		for deg := 1; deg <= 7; deg++ {
			for _, acc := range []Accidental{Natural, Sharp} {
				d := ScaleDegree{r, deg, acc}
				if d.Valid() {
					out = append(out, d)
				}
			}
		}
	}
	return out
}

// Mapping a degree to Hz and back must recover it, in the transposed frame,
// for every signature and octave shift.
func TestInverseTransposedRoundTrip(t *testing.T) {
	count := 0
	for _, d := range allValidDegrees() {
		for sig := MinKeySignature; sig <= MaxKeySignature; sig++ {
			for oct := MinOctaveShift; oct <= MaxOctaveShift; oct++ {
				f := Frequency(d, sig, oct)
				l := Label(f, sig, oct, Transposed)
				if l.Empty() || l.Degree != d {
					t.Fatalf("Label(Frequency(%s, %d, %d)=%.3f) = %q", d, sig, oct, f, l)
				}
				count++
			}
		}
	}
	if count < 50 {
		t.Fatalf("only %d triples checked", count)
	}
}

func TestInverseFixedFrame(t *testing.T) {
	tests := []struct {
		freq float64
		name string
	}{
		{261.63, "C4"},
		{440.0, "A4"},
		{349.23, "F4"},
		{523.25, "C5"},
		{130.81, "C3"},
		{466.16, "A#4"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.freq), func(t *testing.T) {
			l := Label(tt.freq, 3, 1, Fixed)
			if got := l.NoteName(); got != tt.name {
				t.Fatalf("NoteName = %q, want %q", got, tt.name)
			}
		})
	}
	// Key F, Mid 1 is F4 in the fixed frame and M1 in the transposed one.
	f := Frequency(ScaleDegree{Mid, 1, Natural}, 5, 0)
	if got := Label(f, 5, 0, Fixed).NoteName(); got != "F4" {
		t.Fatalf("fixed label %q", got)
	}
	if got := Label(f, 5, 0, Transposed).String(); got != "M1" {
		t.Fatalf("transposed label %q", got)
	}
}

func TestLabelEmptyForInvalidFrequency(t *testing.T) {
	for _, f := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		l := Label(f, 0, 0, Transposed)
		if !l.Empty() || l.String() != "" {
			t.Fatalf("Label(%v) = %q, want empty", f, l)
		}
	}
}

func TestScaleDegreeOrder(t *testing.T) {
	degrees := allValidDegrees()
	for _, a := range degrees {
		for _, b := range degrees {
			if a.Less(b) && b.Less(a) {
				t.Fatalf("%s and %s both less than each other", a, b)
			}
			if a.Less(b) != (Frequency(a, 0, 0) < Frequency(b, 0, 0)) {
				t.Fatalf("Less(%s, %s) disagrees with frequency", a, b)
			}
		}
	}
}

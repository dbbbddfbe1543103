package ocarina

import (
	"fmt"
	"math"
)

// ReferenceFrequency is Mid 1, natural, in signature 0 (C4).
const ReferenceFrequency = 261.63

// Register is the octave band of a scale degree relative to the tonic.
type Register int

const (
	Low Register = iota
	Mid
	High
)

func (r Register) String() string {
	switch r {
	case Low:
		return "L"
	case Mid:
		return "M"
	case High:
		return "H"
	default:
		return "?"
	}
}

type Accidental int

const (
	Natural Accidental = iota
	Sharp
)

// ScaleDegree is a movable-do pitch: register, degree 1..7 and accidental.
type ScaleDegree struct {
	Register   Register
	Degree     int
	Accidental Accidental
}

var degreeSemitones = [8]int{0, 0, 2, 4, 5, 7, 9, 11}

// sharpable marks degrees that have a sharp variant (no E# or B#).
var sharpable = [8]bool{false, true, true, false, true, true, true, false}

// pitchClassDegrees maps a pitch class back to a degree and accidental.
var pitchClassDegrees = [12]struct {
	degree     int
	accidental Accidental
}{
	{1, Natural}, {1, Sharp}, {2, Natural}, {2, Sharp}, {3, Natural}, {4, Natural},
	{4, Sharp}, {5, Natural}, {5, Sharp}, {6, Natural}, {6, Sharp}, {7, Natural},
}

// Valid reports whether d names a representable pitch.
func (d ScaleDegree) Valid() bool {
	if d.Register < Low || d.Register > High || d.Degree < 1 || d.Degree > 7 {
		return false
	}
	return d.Accidental == Natural || sharpable[d.Degree]
}

// SemitoneOffset returns the distance from Mid 1 in semitones. Out-of-range
// degrees are clamped into 1..7 and a sharp on a degree without one is ignored.
func (d ScaleDegree) SemitoneOffset() int {
	deg := d.Degree
	if deg < 1 {
		deg = 1
	}
	if deg > 7 {
		deg = 7
	}
	off := degreeSemitones[deg]
	if d.Accidental == Sharp && sharpable[deg] {
		off++
	}
	switch d.Register {
	case Low:
		off -= 12
	case High:
		off += 12
	}
	return off
}

// Less orders degrees by pitch.
func (d ScaleDegree) Less(o ScaleDegree) bool {
	return d.SemitoneOffset() < o.SemitoneOffset()
}

func (d ScaleDegree) String() string {
	if d.Accidental == Sharp {
		return fmt.Sprintf("%s#%d", d.Register, d.Degree)
	}
	return fmt.Sprintf("%s%d", d.Register, d.Degree)
}

// Key signature and octave shift bounds.
const (
	MinKeySignature = -4
	MaxKeySignature = 7
	MinOctaveShift  = -3
	MaxOctaveShift  = 2
)

type keySignature struct {
	name     string
	semitone int
}

// keySignatures is indexed by signature-MinKeySignature.
var keySignatures = [MaxKeySignature - MinKeySignature + 1]keySignature{
	{"Ab", -4}, {"A", -3}, {"Bb", -2}, {"B", -1},
	{"C", 0}, {"C#", 1}, {"D", 2}, {"Eb", 3},
	{"E", 4}, {"F", 5}, {"F#", 6}, {"G", 7},
}

// ClampKeySignature folds any signature into the supported range.
func ClampKeySignature(sig int) int {
	if sig < MinKeySignature {
		return MinKeySignature
	}
	if sig > MaxKeySignature {
		return MaxKeySignature
	}
	return sig
}

func ClampOctaveShift(oct int) int {
	if oct < MinOctaveShift {
		return MinOctaveShift
	}
	if oct > MaxOctaveShift {
		return MaxOctaveShift
	}
	return oct
}

// KeySignatureName returns the tonic name of a (clamped) signature.
func KeySignatureName(sig int) string {
	return keySignatures[ClampKeySignature(sig)-MinKeySignature].name
}

// TonicFrequency returns the frequency of Mid 1 in signature sig.
func TonicFrequency(sig int) float64 {
	st := keySignatures[ClampKeySignature(sig)-MinKeySignature].semitone
	return ReferenceFrequency * math.Pow(2, float64(st)/12.0)
}

// Frequency maps a degree to Hz for the given transposition.
func Frequency(d ScaleDegree, sig int, octave int) float64 {
	st := d.SemitoneOffset() + 12*ClampOctaveShift(octave)
	return TonicFrequency(sig) * math.Pow(2, float64(st)/12.0)
}

// LabelFrame selects the reference used by the inverse mapping.
type LabelFrame int

const (
	// Transposed labels are relative to the current tonic and octave shift.
	Transposed LabelFrame = iota
	// Fixed labels are relative to C and ignore the transposition.
	Fixed
)

func (f LabelFrame) String() string {
	if f == Fixed {
		return "fixed"
	}
	return "transposed"
}

// PitchLabel is a displayable pitch. The zero value means "no pitch".
type PitchLabel struct {
	Degree ScaleDegree
	// Octave is the signed octave relative to the reference; Register is its sign.
	Octave int
	Frame  LabelFrame
	valid  bool
}

// Empty reports whether the label carries no pitch.
func (l PitchLabel) Empty() bool { return !l.valid }

func (l PitchLabel) String() string {
	if !l.valid {
		return ""
	}
	return l.Degree.String()
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a Fixed label, e.g. "C4" or
// "F#5". Transposed and empty labels return "".
func (l PitchLabel) NoteName() string {
	if !l.valid || l.Frame != Fixed {
		return ""
	}
	pc := degreeSemitones[l.Degree.Degree]
	if l.Degree.Accidental == Sharp {
		pc++
	}
	return fmt.Sprintf("%s%d", noteNames[pc], 4+l.Octave)
}

// Label maps a frequency back to a degree. Frequencies <= 0 or non-finite
// yield the empty label.
func Label(freq float64, sig int, octave int, frame LabelFrame) PitchLabel {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return PitchLabel{}
	}
	ref := ReferenceFrequency
	if frame == Transposed {
		ref = TonicFrequency(sig) * math.Pow(2, float64(ClampOctaveShift(octave)))
	}
	semis := int(math.Round(12 * math.Log2(freq/ref)))
	oct := floorDiv(semis, 12)
	pc := semis - 12*oct
	entry := pitchClassDegrees[pc]

	reg := Mid
	if oct < 0 {
		reg = Low
	} else if oct > 0 {
		reg = High
	}
	return PitchLabel{
		Degree: ScaleDegree{Register: reg, Degree: entry.degree, Accidental: entry.accidental},
		Octave: oct,
		Frame:  frame,
		valid:  true,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

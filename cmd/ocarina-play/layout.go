package main

import (
	"strings"

	"github.com/cwbudde/algo-ocarina/ocarina"
)

// holeLayout maps keyboard letters to logical keys. The first eight serve
// the eight-hole layout; the ten-hole layout adds the last two.
const holeLayout = "asdfjkl;gh"

// keysFromPressed builds the held key set for mode from a predicate over
// layout characters.
func keysFromPressed(mode ocarina.InstrumentMode, pressed func(ch byte) bool) ocarina.KeySet {
	var keys ocarina.KeySet
	n := min(mode.KeyCount(), len(holeLayout))
	for i := 0; i < n; i++ {
		if pressed(holeLayout[i]) {
			keys = keys.With(ocarina.Key(i))
		}
	}
	return keys
}

// legend describes the layout for the status line.
func legend(mode ocarina.InstrumentMode) string {
	var b strings.Builder
	n := min(mode.KeyCount(), len(holeLayout))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(holeLayout[i])
	}
	return strings.ToUpper(b.String())
}

// transposition is the player's key signature and octave state.
type transposition struct {
	sig, oct int
}

func (t transposition) shiftKey(d int) transposition {
	t.sig = ocarina.ClampKeySignature(t.sig + d)
	return t
}

func (t transposition) shiftOctave(d int) transposition {
	t.oct = ocarina.ClampOctaveShift(t.oct + d)
	return t
}

package ocarina

import (
	"fmt"
	"math/bits"
	"strings"
)

// Key is a logical key index (finger hole or control slot).
type Key uint8

// MaxKeys is the number of logical key slots a KeySet can hold.
const MaxKeys = 16

// KeySet is a bitset of held logical keys.
type KeySet uint16

// KeySetOf builds a KeySet from individual keys. Keys >= MaxKeys are ignored.
func KeySetOf(keys ...Key) KeySet {
	var s KeySet
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

// keyRange returns the set {lo, lo+1, ..., hi}.
func keyRange(lo, hi Key) KeySet {
	var s KeySet
	for k := lo; k <= hi; k++ {
		s = s.With(k)
	}
	return s
}

func (s KeySet) Has(k Key) bool {
	if k >= MaxKeys {
		return false
	}
	return s&(1<<k) != 0
}

func (s KeySet) With(k Key) KeySet {
	if k >= MaxKeys {
		return s
	}
	return s | 1<<k
}

func (s KeySet) Without(k Key) KeySet {
	if k >= MaxKeys {
		return s
	}
	return s &^ (1 << k)
}

// Contains reports whether every key of sub is held in s.
func (s KeySet) Contains(sub KeySet) bool {
	return s&sub == sub
}

func (s KeySet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Keys returns the held keys in ascending order.
func (s KeySet) Keys() []Key {
	out := make([]Key, 0, s.Len())
	for k := Key(0); k < MaxKeys; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KeySet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", k)
	}
	b.WriteByte('}')
	return b.String()
}

// InstrumentMode selects the fingering table.
type InstrumentMode int

const (
	EightHole InstrumentMode = iota
	TenHole
)

// KeyCount returns the number of logical keys used by the mode.
func (m InstrumentMode) KeyCount() int {
	if m == TenHole {
		return 10
	}
	return 8
}

func (m InstrumentMode) String() string {
	switch m {
	case EightHole:
		return "8-hole"
	case TenHole:
		return "10-hole"
	default:
		return fmt.Sprintf("InstrumentMode(%d)", int(m))
	}
}

// ParseInstrumentMode accepts "8", "8-hole", "10", "10-hole".
func ParseInstrumentMode(s string) (InstrumentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "8", "8-hole", "eight":
		return EightHole, nil
	case "10", "10-hole", "ten":
		return TenHole, nil
	}
	return EightHole, fmt.Errorf("unknown instrument mode %q (expected 8 or 10)", s)
}

// FingeringRule maps a required key subset to a scale degree.
type FingeringRule struct {
	Required KeySet
	Degree   ScaleDegree
}

// Rules are ordered from most required keys to fewest and evaluated first
// match wins. Reordering them changes which note a player hears for
// overlapping fingerings. The final rule of each table is the empty-set
// fallback.
//
// Key 0 is the thumb hole; releasing it vents the chamber into the upper
// register. Higher indices sit further down the body.
var eightHoleRules = []FingeringRule{
	{keyRange(0, 7), ScaleDegree{Mid, 1, Natural}},
	{keyRange(0, 6), ScaleDegree{Mid, 2, Natural}},
	{keyRange(0, 5).With(7), ScaleDegree{Mid, 1, Sharp}},
	{keyRange(1, 7), ScaleDegree{High, 3, Natural}},
	{keyRange(0, 5), ScaleDegree{Mid, 3, Natural}},
	{keyRange(0, 4).With(6), ScaleDegree{Mid, 2, Sharp}},
	{keyRange(1, 6), ScaleDegree{High, 4, Natural}},
	{keyRange(0, 4), ScaleDegree{Mid, 4, Natural}},
	{keyRange(0, 3).With(5), ScaleDegree{Mid, 4, Sharp}},
	{keyRange(1, 5), ScaleDegree{High, 5, Natural}},
	{keyRange(0, 3), ScaleDegree{Mid, 5, Natural}},
	{keyRange(0, 2).With(4), ScaleDegree{Mid, 5, Sharp}},
	{keyRange(0, 2), ScaleDegree{Mid, 6, Natural}},
	{KeySetOf(0, 1, 3), ScaleDegree{Mid, 6, Sharp}},
	{KeySetOf(0, 1), ScaleDegree{Mid, 7, Natural}},
	{KeySetOf(0), ScaleDegree{High, 1, Natural}},
	{0, ScaleDegree{High, 2, Natural}},
}

var tenHoleRules = []FingeringRule{
	{keyRange(0, 9), ScaleDegree{Low, 6, Natural}},
	{keyRange(0, 7).With(9), ScaleDegree{Low, 6, Sharp}},
	{keyRange(0, 8), ScaleDegree{Low, 7, Natural}},
	{keyRange(0, 7), ScaleDegree{Mid, 1, Natural}},
	{keyRange(0, 6).With(8), ScaleDegree{Mid, 1, Sharp}},
	{keyRange(0, 6), ScaleDegree{Mid, 2, Natural}},
	{keyRange(0, 5).With(7), ScaleDegree{Mid, 2, Sharp}},
	{keyRange(0, 5), ScaleDegree{Mid, 3, Natural}},
	{keyRange(0, 4), ScaleDegree{Mid, 4, Natural}},
	{keyRange(0, 3).With(5), ScaleDegree{Mid, 4, Sharp}},
	{keyRange(1, 4), ScaleDegree{High, 3, Natural}},
	{keyRange(0, 3), ScaleDegree{Mid, 5, Natural}},
	{keyRange(0, 2).With(4), ScaleDegree{Mid, 5, Sharp}},
	{keyRange(0, 2), ScaleDegree{Mid, 6, Natural}},
	{KeySetOf(0, 1, 3), ScaleDegree{Mid, 6, Sharp}},
	{keyRange(1, 3), ScaleDegree{High, 4, Natural}},
	{KeySetOf(0, 1), ScaleDegree{Mid, 7, Natural}},
	{KeySetOf(0, 2), ScaleDegree{High, 1, Sharp}},
	{KeySetOf(0), ScaleDegree{High, 1, Natural}},
	{0, ScaleDegree{High, 2, Natural}},
}

func rulesFor(mode InstrumentMode) []FingeringRule {
	if mode == TenHole {
		return tenHoleRules
	}
	return eightHoleRules
}

// FingeringTable returns a copy of the ordered rule list for mode.
func FingeringTable(mode InstrumentMode) []FingeringRule {
	rules := rulesFor(mode)
	out := make([]FingeringRule, len(rules))
	copy(out, rules)
	return out
}

// FallbackDegree is the degree sounded when no rule but the empty one matches.
func FallbackDegree(mode InstrumentMode) ScaleDegree {
	rules := rulesFor(mode)
	return rules[len(rules)-1].Degree
}

// Resolve returns the degree of the first rule whose required keys are all
// held. Keys outside the mode's range are ignored.
func Resolve(keys KeySet, mode InstrumentMode) ScaleDegree {
	keys &= keyRange(0, Key(mode.KeyCount()-1))
	return firstMatch(rulesFor(mode), keys)
}

func firstMatch(rules []FingeringRule, keys KeySet) ScaleDegree {
	for _, r := range rules {
		if keys.Contains(r.Required) {
			return r.Degree
		}
	}
	return ScaleDegree{High, 2, Natural}
}

// ParseFingering reads a compact fingering such as "0123-567" or "0,1,2,3".
// Digits and the letters a-f name keys; '-', '_', '.', ',' and spaces are
// separators or open holes.
func ParseFingering(s string) (KeySet, error) {
	var set KeySet
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9':
			set = set.With(Key(r - '0'))
		case r >= 'a' && r <= 'f':
			set = set.With(Key(r-'a') + 10)
		case r == '-' || r == '_' || r == '.' || r == ',' || r == ' ':
		default:
			return 0, fmt.Errorf("invalid fingering character %q in %q", r, s)
		}
	}
	return set, nil
}

package ocarina

import (
	"math"
	"strings"
)

// Fault is a bitmask of the invariants a state snapshot violated.
type Fault uint8

const (
	FaultFrequencyNaN Fault = 1 << iota
	FaultFrequencyRange
	FaultGainNaN
	FaultGainNegative
	FaultPhaseNaN
	FaultSampleNaN
	FaultSampleRange
)

const (
	monitorMinFrequency = 10.0
	monitorMaxFrequency = 25000.0
	monitorMaxSample    = 2.0
)

var faultNames = []struct {
	f    Fault
	name string
}{
	{FaultFrequencyNaN, "frequency-nonfinite"},
	{FaultFrequencyRange, "frequency-range"},
	{FaultGainNaN, "gain-nonfinite"},
	{FaultGainNegative, "gain-negative"},
	{FaultPhaseNaN, "phase-nonfinite"},
	{FaultSampleNaN, "sample-nonfinite"},
	{FaultSampleRange, "sample-range"},
}

func (f Fault) String() string {
	if f == 0 {
		return "ok"
	}
	var parts []string
	for _, fn := range faultNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// CheckState inspects a snapshot and reports every violated invariant.
// The second result is true when the state needs a reset.
func CheckState(s StateSnapshot) (Fault, bool) {
	var f Fault
	switch {
	case math.IsNaN(s.Frequency) || math.IsInf(s.Frequency, 0):
		f |= FaultFrequencyNaN
	case s.Frequency < monitorMinFrequency || s.Frequency > monitorMaxFrequency:
		f |= FaultFrequencyRange
	}
	switch {
	case math.IsNaN(s.Gain) || math.IsInf(s.Gain, 0):
		f |= FaultGainNaN
	case s.Gain < 0:
		f |= FaultGainNegative
	}
	if math.IsNaN(s.Phase) || math.IsInf(s.Phase, 0) {
		f |= FaultPhaseNaN
	}
	switch {
	case math.IsNaN(s.Sample) || math.IsInf(s.Sample, 0):
		f |= FaultSampleNaN
	case math.Abs(s.Sample) > monitorMaxSample:
		f |= FaultSampleRange
	}
	return f, f != 0
}

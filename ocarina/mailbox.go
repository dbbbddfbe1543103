package ocarina

import (
	"math"
	"sync/atomic"
)

// atomicFloat64 is a lock-free float64 cell. Readers always see the last
// complete write.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

// snapshotCell publishes a StateSnapshot field by field. Fields may come from
// neighbouring blocks, which the safety monitor tolerates.
type snapshotCell struct {
	freq   atomicFloat64
	gain   atomicFloat64
	phase  atomicFloat64
	sample atomicFloat64
}

func (c *snapshotCell) store(s StateSnapshot) {
	c.freq.Store(s.Frequency)
	c.gain.Store(s.Gain)
	c.phase.Store(s.Phase)
	c.sample.Store(s.Sample)
}

func (c *snapshotCell) load() StateSnapshot {
	return StateSnapshot{
		Frequency: c.freq.Load(),
		Gain:      c.gain.Load(),
		Phase:     c.phase.Load(),
		Sample:    c.sample.Load(),
	}
}

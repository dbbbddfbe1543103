package ocarina

// KeyTracker turns individual press and release events into the KeySet the
// engine consumes. Front ends that only see key transitions feed it and
// publish Keys() once per frame.
type KeyTracker struct {
	mode InstrumentMode
	down KeySet
}

func NewKeyTracker(mode InstrumentMode) *KeyTracker {
	return &KeyTracker{mode: mode}
}

func (k *KeyTracker) valid(key Key) bool {
	return int(key) < k.mode.KeyCount()
}

func (k *KeyTracker) Press(key Key) {
	if !k.valid(key) {
		return
	}
	k.down = k.down.With(key)
}

func (k *KeyTracker) Release(key Key) {
	if !k.valid(key) {
		return
	}
	k.down = k.down.Without(key)
}

// Toggle flips a latched key, for front ends without key-up events.
func (k *KeyTracker) Toggle(key Key) {
	if !k.valid(key) {
		return
	}
	if k.down.Has(key) {
		k.down = k.down.Without(key)
		return
	}
	k.down = k.down.With(key)
}

// Set replaces the held keys, dropping any outside the current mode.
func (k *KeyTracker) Set(keys KeySet) {
	k.down = keys & keyRange(0, Key(k.mode.KeyCount()-1))
}

func (k *KeyTracker) Clear() { k.down = 0 }

// SetMode switches instrument layout and drops keys the new layout lacks.
func (k *KeyTracker) SetMode(mode InstrumentMode) {
	k.mode = mode
	k.Set(k.down)
}

func (k *KeyTracker) Mode() InstrumentMode { return k.mode }
func (k *KeyTracker) Keys() KeySet         { return k.down }

// controlState is the raw input last published from the control domain.
type controlState struct {
	keys         KeySet
	mode         InstrumentMode
	breath       bool
	keySignature int
	octaveShift  int
	degree       ScaleDegree
	target       float64
}

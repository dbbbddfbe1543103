package audio

import (
	"context"
	"time"
)

// DefaultControlRate is the host tick rate in Hz.
const DefaultControlRate = 60

// RunControl calls tick at rate Hz until ctx is done. It is the control
// domain counterpart of the audio callback.
func RunControl(ctx context.Context, rate float64, tick func()) {
	if rate <= 0 {
		rate = DefaultControlRate
	}
	t := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick()
		}
	}
}

package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

type rampRenderer struct {
	calls int
}

func (r *rampRenderer) RenderAudio(buf []float32, frameCount, channelCount int) {
	r.calls++
	for i := 0; i < frameCount*channelCount; i++ {
		buf[i] = float32(i) * 0.25
	}
}

func TestStreamSilentWithoutSource(t *testing.T) {
	s := newStream(2, 16)
	p := make([]byte, 64)
	for i := range p {
		p[i] = 0xff
	}
	n, err := s.Read(p)
	if err != nil || n != 64 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	for i, b := range p {
		if b != 0 {
			t.Fatalf("byte %d = %x, want 0", i, b)
		}
	}
}

func TestStreamEncodesFloat32LE(t *testing.T) {
	s := newStream(2, 4)
	r := &rampRenderer{}
	s.setSource(r)

	// 10 stereo frames plus 3 stray bytes; only whole frames are produced.
	p := make([]byte, 10*8+3)
	n, err := s.Read(p)
	if err != nil || n != 80 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if r.calls != 1 {
		t.Fatalf("renderer called %d times", r.calls)
	}
	for i := 0; i < 20; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i)*0.25 {
			t.Fatalf("sample %d = %v, want %v", i, got, float32(i)*0.25)
		}
	}

	s.setSource(nil)
	if _, err := s.Read(p); err != nil {
		t.Fatal(err)
	}
	if binary.LittleEndian.Uint32(p[4:]) != 0 {
		t.Fatal("expected silence after clearing the source")
	}
}

func TestStreamShortRead(t *testing.T) {
	s := newStream(1, 4)
	s.setSource(&rampRenderer{})
	if n, _ := s.Read(make([]byte, 3)); n != 0 {
		t.Fatalf("partial frame read returned %d", n)
	}
}

func TestRunControlStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int64
	done := make(chan struct{})
	go func() {
		RunControl(ctx, 500, func() { ticks.Add(1) })
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunControl did not return after cancel")
	}
	if ticks.Load() == 0 {
		t.Fatal("no ticks delivered")
	}
}

func TestShutdownRunsEveryStep(t *testing.T) {
	errStart := errors.New("start failed")
	errClose := errors.New("close failed")
	var order []string
	closeStep := func() error { order = append(order, "close"); return errClose }
	terminate := func() error { order = append(order, "terminate"); return nil }

	err := shutdown(errStart, closeStep, terminate)
	if !errors.Is(err, errStart) || !errors.Is(err, errClose) {
		t.Fatalf("joined error lost a cause: %v", err)
	}
	if len(order) != 2 || order[0] != "close" || order[1] != "terminate" {
		t.Fatalf("steps ran as %v", order)
	}

	if err := shutdown(nil, terminate); err != nil {
		t.Fatalf("clean shutdown returned %v", err)
	}
}

// Package audio connects an ocarina engine to real-time output devices.
package audio

import (
	"sync/atomic"
	"unsafe"
)

// Renderer fills interleaved float32 frames. *ocarina.Engine implements it.
type Renderer interface {
	RenderAudio(buf []float32, frameCount, channelCount int)
}

type sourceRef struct {
	r Renderer
}

// stream is an io.Reader producing little-endian float32 PCM from a
// Renderer. It never allocates after the first Read of a given size.
type stream struct {
	source   atomic.Pointer[sourceRef]
	channels int
	buf      []float32
}

func newStream(channels, frames int) *stream {
	if channels < 1 {
		channels = 1
	}
	return &stream{channels: channels, buf: make([]float32, frames*channels)}
}

func (s *stream) setSource(r Renderer) {
	if r == nil {
		s.source.Store(nil)
		return
	}
	s.source.Store(&sourceRef{r: r})
}

func (s *stream) Read(p []byte) (int, error) {
	frameBytes := 4 * s.channels
	frames := len(p) / frameBytes
	n := frames * frameBytes
	if frames == 0 {
		return 0, nil
	}

	ref := s.source.Load()
	if ref == nil {
		clear(p[:n])
		return n, nil
	}

	samples := frames * s.channels
	if len(s.buf) < samples {
		s.buf = make([]float32, samples)
	}
	out := s.buf[:samples]
	ref.r.RenderAudio(out, frames, s.channels)

	copy(p[:n], unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n))
	return n, nil
}

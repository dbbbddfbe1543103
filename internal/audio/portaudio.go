package audio

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioPlayer renders into a PortAudio output callback.
type PortAudioPlayer struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	source     Renderer
	sampleRate int
	channels   int
	frames     int
	playing    bool
	released   bool
}

// NewPortAudioPlayer initializes PortAudio. framesPerBuffer sets the
// callback block size.
func NewPortAudioPlayer(r Renderer, sampleRate, channels, framesPerBuffer int) (*PortAudioPlayer, error) {
	if r == nil {
		return nil, errors.New("nil renderer")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &PortAudioPlayer{
		source:     r,
		sampleRate: sampleRate,
		channels:   max(1, channels),
		frames:     max(16, framesPerBuffer),
	}, nil
}

// Start opens and starts the default output stream. A failed Start closes
// whatever it opened and terminates PortAudio, so the player cannot be
// started again.
func (p *PortAudioPlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return errors.New("audio output already started")
	}
	if p.released {
		return errors.New("audio output released")
	}

	stream, err := portaudio.OpenDefaultStream(0, p.channels, float64(p.sampleRate), p.frames, p.process)
	if err != nil {
		p.released = true
		return shutdown(err, portaudio.Terminate)
	}
	if err := stream.Start(); err != nil {
		p.released = true
		return shutdown(err, stream.Close, portaudio.Terminate)
	}
	p.stream = stream
	p.playing = true
	return nil
}

// Stop closes the stream and terminates PortAudio. Every step runs even if
// an earlier one fails.
func (p *PortAudioPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return errors.New("audio output not started")
	}
	err := shutdown(p.stream.Stop(), p.stream.Close, portaudio.Terminate)
	p.stream = nil
	p.playing = false
	p.released = true
	return err
}

// shutdown runs every step in order and joins their errors after first.
func shutdown(first error, steps ...func() error) error {
	errs := []error{first}
	for _, step := range steps {
		errs = append(errs, step())
	}
	return errors.Join(errs...)
}

func (p *PortAudioPlayer) process(out []float32) {
	p.source.RenderAudio(out, len(out)/p.channels, p.channels)
}

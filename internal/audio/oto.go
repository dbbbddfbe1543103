package audio

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer pulls audio from a Renderer through an oto player.
type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	stream *stream

	mu      sync.Mutex
	started bool
}

// NewOtoPlayer opens the default output device. It blocks until the
// device is ready.
func NewOtoPlayer(sampleRate, channels int) (*OtoPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	p := &OtoPlayer{ctx: ctx, stream: newStream(channels, 1024)}
	p.player = ctx.NewPlayer(p.stream)
	return p, nil
}

// SetRenderer swaps the audio source. A nil renderer outputs silence.
func (p *OtoPlayer) SetRenderer(r Renderer) {
	p.stream.setSource(r)
}

func (p *OtoPlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.player.Play()
		p.started = true
	}
}

func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	return p.player.Close()
}

package client

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"github.com/voxchat/voxchat/internal/queue"
)

// ClipPlayer plays a single WAV clip to completion.
type ClipPlayer interface {
	PlayClip(ctx context.Context, wavData []byte) error
}

// Player plays queued audio clips strictly in arrival order.
// A single consumer drains the queue, so at most one clip is being decoded
// or played at any time. A clip that cannot be decoded is skipped, never
// retried.
type Player struct {
	// OnChange is invoked after every observable state change.
	// It must be set before Run is called.
	OnChange func()

	output  ClipPlayer
	queue   *queue.Queue[string]
	wake    chan struct{}
	mutex   sync.Mutex
	playing bool
	muted   bool
}

func NewPlayer(output ClipPlayer) *Player {
	return &Player{
		output: output,
		queue:  queue.New[string](),
		wake:   make(chan struct{}, 1),
	}
}

// Run consumes the playback queue until ctx is cancelled.
// It must be called exactly once.
func (p *Player) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}

		for {
			clip, ok := p.next()
			if !ok {
				break
			}
			p.notify()

			p.play(ctx, clip)

			p.mutex.Lock()
			p.playing = false
			p.mutex.Unlock()
			p.notify()
		}
	}
}

// Enqueue adds a base64-encoded WAV clip to the playback queue.
// Clips arriving while the player is muted are dropped.
func (p *Player) Enqueue(b64 string) {
	p.mutex.Lock()
	if p.muted {
		p.mutex.Unlock()
		return
	}
	p.queue.Enqueue(b64)
	p.mutex.Unlock()
	p.notify()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// SetMuted mutes or unmutes playback. Muting drops all queued clips and
// marks the player idle immediately. A clip whose playback already started
// is not interrupted.
func (p *Player) SetMuted(muted bool) {
	p.mutex.Lock()
	if p.muted == muted {
		p.mutex.Unlock()
		return
	}
	p.muted = muted
	if muted {
		p.queue.Clear()
		p.playing = false
	}
	p.mutex.Unlock()
	p.notify()
}

// Muted reports whether playback is muted.
func (p *Player) Muted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.muted
}

// Speaking reports whether a clip is marked as playing.
func (p *Player) Speaking() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.playing
}

// Queued returns the number of clips waiting to be played.
func (p *Player) Queued() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.queue.Len()
}

// next marks the player as playing and dequeues the head clip.
func (p *Player) next() (string, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.queue.IsEmpty() {
		p.playing = false
		return "", false
	}

	p.playing = true
	clip, _ := p.queue.Dequeue()

	return clip, true
}

func (p *Player) play(ctx context.Context, b64 string) {
	wavData, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		slog.Warn("skipping audio clip that could not be decoded", "err", err)
		return
	}

	if err := p.output.PlayClip(ctx, wavData); err != nil {
		slog.Warn("failed to play audio clip", "err", err)
	}
}

func (p *Player) notify() {
	if p.OnChange != nil {
		p.OnChange()
	}
}

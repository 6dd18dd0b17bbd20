package client

import (
	"context"

	"github.com/voxchat/voxchat/internal/audio"
)

// Recording is an active microphone stream.
type Recording interface {
	// Chunks delivers fixed-size sample blocks until the recording stops.
	Chunks() <-chan []float32
	// Stop stops capturing and closes the chunk channel.
	Stop() error
	// Close releases the input device.
	Close() error
}

// Recorder opens the microphone.
type Recorder interface {
	Record(ctx context.Context) (Recording, error)
}

// MicRecorder adapts audio.Capture to the Recorder interface.
type MicRecorder struct {
	Capture audio.Capture
}

func (r *MicRecorder) Record(ctx context.Context) (Recording, error) {
	return r.Capture.Start(ctx)
}

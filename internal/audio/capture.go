package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// CaptureRate is the sample rate of the outbound microphone stream.
	CaptureRate = 16000
	// ChunkSamples is the fixed block size of the outbound microphone stream.
	ChunkSamples = 4096
)

// Capture records mono microphone audio and emits it as fixed-size sample
// blocks at CaptureRate, resampling from the device rate where necessary.
type Capture struct {
	Device string
}

// Start opens the configured input device and reads from it until the
// returned stream is stopped or ctx is cancelled.
func (c *Capture) Start(ctx context.Context) (*CaptureStream, error) {
	device, err := inputDevice(c.Device)
	if err != nil {
		return nil, err
	}

	in := make([]float32, ChunkSamples)
	audioStream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: len(in),
	}, &in)
	if err != nil {
		return nil, fmt.Errorf("opening audio input stream: %w", err)
	}

	err = audioStream.Start()
	if err != nil {
		if e := audioStream.Close(); e != nil {
			slog.Warn("failed to close audio input stream", "err", e)
		}
		return nil, fmt.Errorf("starting audio input stream: %w", err)
	}

	s := &CaptureStream{
		stream:  audioStream,
		chunks:  make(chan []float32, 5),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go s.read(ctx, in, int(device.DefaultSampleRate))

	return s, nil
}

// CaptureStream is an open microphone stream emitting sample blocks of
// exactly ChunkSamples samples at CaptureRate.
type CaptureStream struct {
	stream    *portaudio.Stream
	chunks    chan []float32
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	stopErr   error
	closeErr  error
}

// Chunks returns the channel delivering the captured sample blocks.
// The channel is closed when the stream stops.
func (s *CaptureStream) Chunks() <-chan []float32 {
	return s.chunks
}

// Stop stops reading from the input device, waits for the reader to
// terminate and closes the chunk channel. Stop must not be called from
// a goroutine that consumes the chunk channel without draining it.
func (s *CaptureStream) Stop() error {
	s.signalStop()
	<-s.stopped
	return s.stopErr
}

// Close releases the input device. Callers should Stop the stream first.
func (s *CaptureStream) Close() error {
	s.closeStream()
	return s.closeErr
}

func (s *CaptureStream) signalStop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.stopErr = s.stream.Stop()
	})
}

func (s *CaptureStream) closeStream() {
	s.closeOnce.Do(func() {
		s.closeErr = s.stream.Close()
	})
}

func (s *CaptureStream) stopAndClose() {
	s.signalStop()
	if s.stopErr != nil {
		slog.Warn("failed to stop audio input stream", "err", s.stopErr)
	}
	s.closeStream()
	if s.closeErr != nil {
		slog.Warn("failed to close audio input stream", "err", s.closeErr)
	}
}

func (s *CaptureStream) read(ctx context.Context, in []float32, deviceRate int) {
	defer close(s.stopped)
	defer close(s.chunks)

	chunks := chunker{size: ChunkSamples}

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.stopAndClose()
			return
		default:
			if err := s.stream.Read(); err != nil {
				if err == portaudio.InputOverflowed {
					slog.Warn("audio input overflowed - dropped samples")
				} else {
					slog.Warn("failed to read audio input stream", "err", err)
				}
				continue
			}

			for _, block := range chunks.push(ResampleSamples(in, deviceRate, CaptureRate)) {
				select {
				case s.chunks <- block:
				case <-s.done:
					return
				case <-ctx.Done():
					s.stopAndClose()
					return
				}
			}
		}
	}
}

// chunker re-slices an arbitrarily sized sample stream into fixed-size blocks.
type chunker struct {
	size    int
	pending []float32
}

func (c *chunker) push(samples []float32) [][]float32 {
	c.pending = append(c.pending, samples...)

	var blocks [][]float32
	for len(c.pending) >= c.size {
		block := make([]float32, c.size)
		copy(block, c.pending[:c.size])
		c.pending = c.pending[c.size:]
		blocks = append(blocks, block)
	}

	return blocks
}

package vad

import (
	"fmt"
	"log"

	"github.com/streamer45/silero-vad-go/speech"
)

// Gate filters microphone sample blocks for voice activity.
// Blocks within the hangover period after detected speech pass through so
// that trailing syllables and short pauses are preserved.
type Gate struct {
	detector        *speech.Detector
	hangoverSamples int
	remaining       int
}

// NewGate loads the silero model from modelPath for 16kHz mono input.
func NewGate(modelPath string) (*Gate, error) {
	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           16000,
		Threshold:            0.5,
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
	})
	if err != nil {
		return nil, fmt.Errorf("create silero vad: %w", err)
	}

	return &Gate{detector: detector, hangoverSamples: 16000}, nil
}

// Accept reports whether the given block contains or closely follows speech.
// Blocks are classified independently of each other.
// It is not safe for concurrent use.
func (g *Gate) Accept(block []float32) bool {
	if err := g.detector.Reset(); err != nil {
		log.Println("WARNING: reset voice detector:", err)
	}

	segments, err := g.detector.Detect(block)
	if err != nil {
		log.Println("WARNING: detect voice:", err)
		return true
	}

	if len(segments) > 0 {
		g.remaining = g.hangoverSamples
		return true
	}

	if g.remaining > 0 {
		g.remaining -= len(block)
		return true
	}

	return false
}

// Close releases the silero model.
func (g *Gate) Close() error {
	if err := g.detector.Destroy(); err != nil {
		return fmt.Errorf("destroy silero vad: %w", err)
	}

	return nil
}

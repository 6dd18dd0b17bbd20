package soundgen

import (
	"fmt"
	"math"
	"time"

	"github.com/voxchat/voxchat/internal/audio"
)

const chimeAmplitude = 0.4

// Generator synthesizes short notification sounds as in-memory WAV clips.
type Generator struct {
	SampleRate int
}

// ActivationChime is the sound played when the voice session becomes active.
func (g *Generator) ActivationChime() ([]byte, error) {
	return g.Sine(660, 150*time.Millisecond)
}

// DeactivationChime is the sound played when the voice session ends.
func (g *Generator) DeactivationChime() ([]byte, error) {
	return g.Sine(440, 150*time.Millisecond)
}

// Sine renders a sine tone of the given frequency and duration with a
// short fade-out that avoids a click at the end of the clip.
func (g *Generator) Sine(frequency float64, duration time.Duration) ([]byte, error) {
	sampleRate := g.SampleRate
	if sampleRate == 0 {
		sampleRate = audio.CaptureRate
	}

	samples := make([]float32, int(math.Ceil(float64(duration)*float64(sampleRate)/float64(time.Second))))
	fadeSamples := sampleRate / 100
	for i := range samples {
		phase := frequency * float64(i) / float64(sampleRate)
		s := math.Sin(2*math.Pi*phase) * chimeAmplitude

		if remaining := len(samples) - i; remaining < fadeSamples {
			s *= float64(remaining) / float64(fadeSamples)
		}

		samples[i] = float32(s)
	}

	b, err := audio.SamplesToWav(audio.QuantizeSamples(samples), sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("generate sound: %w", err)
	}

	return b, nil
}

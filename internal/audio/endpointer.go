package audio

import (
	"context"
	"time"
)

// Endpointer segments a continuous PCM sample stream into utterances.
// An utterance ends after MinSilence of volume below MinVolume or when
// it reaches MaxDuration. Silence duration is measured in stream time,
// not wall clock time.
type Endpointer struct {
	SampleRate  int
	MinVolume   int
	MinSilence  time.Duration
	MaxDuration time.Duration
}

// Detect consumes PCM chunks and emits one buffer per detected utterance.
// Leading silence is discarded. A pending utterance is flushed when the
// input channel is closed.
func (e *Endpointer) Detect(ctx context.Context, chunks <-chan []int16) <-chan []int16 {
	sampleRate := e.SampleRate
	if sampleRate == 0 {
		sampleRate = CaptureRate
	}
	minSilence := e.MinSilence
	if minSilence == 0 {
		minSilence = time.Second
	}
	maxDuration := e.MaxDuration
	if maxDuration == 0 {
		maxDuration = 25 * time.Second
	}

	ch := make(chan []int16, 2)

	go func() {
		defer close(ch)

		var utterance []int16
		var silentSamples int

		emit := func() bool {
			if len(utterance) == 0 {
				return true
			}
			buf := utterance
			utterance = nil
			silentSamples = 0
			select {
			case ch <- buf:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for chunk := range chunks {
			if int(RMS16(chunk)) > e.MinVolume {
				silentSamples = 0
				utterance = append(utterance, chunk...)
			} else if len(utterance) > 0 {
				silentSamples += len(chunk)
				utterance = append(utterance, chunk...)
				if sampleDuration(silentSamples, sampleRate) >= minSilence {
					if !emit() {
						return
					}
				}
			}

			if sampleDuration(len(utterance), sampleRate) >= maxDuration {
				if !emit() {
					return
				}
			}
		}

		emit()
	}()

	return ch
}

func sampleDuration(samples, sampleRate int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

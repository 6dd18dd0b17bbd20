package tts

import (
	"context"
	"log/slog"
	"strings"
)

// Request asks for speech synthesis of one response sentence.
type Request struct {
	RequestNum int64
	Text       string
}

// GeneratedSpeech is a synthesized response sentence.
type GeneratedSpeech struct {
	RequestNum int64
	Text       string
	WaveData   []byte
}

// Service synthesizes text to an in-memory audio file.
type Service interface {
	GenerateAudio(ctx context.Context, text string) ([]byte, error)
}

// SpeechGenerator synthesizes speech for each requested sentence.
// Sentences whose synthesis fails are skipped since their text was
// already delivered.
type SpeechGenerator struct {
	Service Service
}

func (g *SpeechGenerator) GenerateAudio(ctx context.Context, requests <-chan Request) <-chan GeneratedSpeech {
	ch := make(chan GeneratedSpeech, 10)

	go func() {
		defer close(ch)

		for req := range requests {
			text := strings.TrimSpace(req.Text)
			if text == "" {
				continue
			}

			waveData, err := g.Service.GenerateAudio(ctx, text)
			if err != nil {
				slog.Warn("failed to generate speech", "err", err)
				continue
			}

			ch <- GeneratedSpeech{
				RequestNum: req.RequestNum,
				Text:       text,
				WaveData:   waveData,
			}
		}
	}()

	return ch
}

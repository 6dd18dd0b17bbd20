package stt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voxchat/voxchat/internal/audio"
)

// Service transcribes an in-memory WAV file to text.
type Service interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Transcriber converts utterances into text using a transcription service.
type Transcriber struct {
	Service Service
}

// Transcribe transcribes each utterance received from input and emits the
// recognized text. Utterances that fail to transcribe or turn out to be
// blank are skipped.
func (t *Transcriber) Transcribe(ctx context.Context, input <-chan []int16) <-chan string {
	ch := make(chan string, 10)

	go func() {
		defer close(ch)

		for utterance := range input {
			wavData, err := audio.SamplesToWav(utterance, audio.CaptureRate, 1)
			if err != nil {
				slog.Error("encode utterance", "err", err)
				continue
			}

			text, err := t.Service.Transcribe(ctx, wavData)
			if err != nil {
				slog.Warn("failed to transcribe utterance", "err", err)
				continue
			}

			text = strings.TrimSuffix(text, "[BLANK_AUDIO]")

			if strings.TrimSpace(text) != "" {
				ch <- text
			}
		}
	}()

	return ch
}

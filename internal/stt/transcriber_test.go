package stt

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

type transcriptionResult struct {
	text string
	err  error
}

type fakeService struct {
	results []transcriptionResult
	calls   [][]byte
}

func (f *fakeService) Transcribe(_ context.Context, wavData []byte) (string, error) {
	result := f.results[len(f.calls)]
	f.calls = append(f.calls, wavData)

	return result.text, result.err
}

func TestTranscriber(t *testing.T) {
	svc := &fakeService{results: []transcriptionResult{
		{text: " hello there"},
		{err: errors.New("fake transcription error")},
		{text: " [BLANK_AUDIO]"},
		{text: "   "},
		{text: "how are you?"},
	}}
	testee := &Transcriber{Service: svc}

	input := make(chan []int16, len(svc.results))
	for range svc.results {
		input <- make([]int16, 1600)
	}
	close(input)

	texts := make([]string, 0, 2)
	for text := range testee.Transcribe(context.Background(), input) {
		texts = append(texts, text)
	}

	require.Equal(t, []string{" hello there", "how are you?"}, texts, "failed, blank and whitespace-only transcriptions should be skipped")
	require.Len(t, svc.calls, len(svc.results), "service calls")

	dec := wav.NewDecoder(bytes.NewReader(svc.calls[0]))
	dec.ReadInfo()
	require.NoError(t, dec.Err(), "the service should receive a readable wav file")
	require.Equal(t, uint32(16000), dec.SampleRate)
	require.Equal(t, uint16(1), dec.NumChans)
}

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEndpointerDetect(t *testing.T) {
	e := Endpointer{
		SampleRate:  1000,
		MinVolume:   400,
		MinSilence:  200 * time.Millisecond,
		MaxDuration: time.Second,
	}

	loud := constantChunk(100, 1000)
	quiet := constantChunk(100, 0)

	t.Run("silence only emits nothing", func(t *testing.T) {
		utterances := detectAll(t, &e, quiet, quiet, quiet, quiet, quiet)
		require.Empty(t, utterances)
	})

	t.Run("speech followed by silence emits one utterance", func(t *testing.T) {
		utterances := detectAll(t, &e, quiet, loud, loud, quiet, quiet)
		require.Len(t, utterances, 1)
		require.Len(t, utterances[0], 400, "should contain the speech and trailing silence but not the leading silence")
		require.Equal(t, loud, utterances[0][:100])
	})

	t.Run("silence between utterances splits them", func(t *testing.T) {
		utterances := detectAll(t, &e, loud, quiet, quiet, loud, loud, quiet, quiet)
		require.Len(t, utterances, 2)
		require.Len(t, utterances[0], 300)
		require.Len(t, utterances[1], 400)
	})

	t.Run("long speech is flushed at the maximum duration", func(t *testing.T) {
		utterances := detectAll(t, &e, loud, loud, loud, loud, loud, loud, loud, loud, loud, loud, loud, loud)
		require.Len(t, utterances, 2)
		require.Len(t, utterances[0], 1000)
		require.Len(t, utterances[1], 200, "remainder should be flushed when the input ends")
	})

	t.Run("pending speech is flushed when the input ends", func(t *testing.T) {
		utterances := detectAll(t, &e, loud, loud)
		require.Len(t, utterances, 1)
		require.Len(t, utterances[0], 200)
	})
}

func detectAll(t *testing.T, e *Endpointer, chunks ...[]int16) [][]int16 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan []int16, len(chunks))
	for _, chunk := range chunks {
		in <- chunk
	}
	close(in)

	var utterances [][]int16
	for utterance := range e.Detect(ctx, in) {
		utterances = append(utterances, utterance)
	}

	return utterances
}

func constantChunk(n int, value int16) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = value
	}

	return chunk
}

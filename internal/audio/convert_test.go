package audio

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func TestQuantizeSamples(t *testing.T) {
	for _, tc := range []struct {
		sample   float32
		expected int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16384},
		{-0.5, -16384},
		{0.25, 8192},
		{-0.25, -8192},
		{1.5, 32767},
		{17, 32767},
		{-2, -32767},
	} {
		t.Run(fmt.Sprintf("%v", tc.sample), func(t *testing.T) {
			quantized := QuantizeSamples([]float32{tc.sample})
			require.Equal(t, []int16{tc.expected}, quantized)
		})
	}
}

func TestQuantizeSamplesIsStableUnderRequantization(t *testing.T) {
	for q := -32767; q <= 32767; q++ {
		samples := []int16{int16(q)}
		requantized := QuantizeSamples(DequantizeSamples(samples))
		require.Equal(t, samples, requantized, "sample %d changed after a dequantize/quantize roundtrip", q)
	}
}

func TestResampleSamples(t *testing.T) {
	t.Run("same rate copies input", func(t *testing.T) {
		in := []float32{0.1, 0.2, 0.3}
		out := ResampleSamples(in, 16000, 16000)
		require.Equal(t, in, out)
		out[0] = 0.9
		require.Equal(t, float32(0.1), in[0], "output should not alias the input")
	})

	t.Run("downsampling halves the sample count", func(t *testing.T) {
		in := make([]float32, 8192)
		out := ResampleSamples(in, 32000, 16000)
		require.Len(t, out, 4096)
	})

	t.Run("constant signal stays constant", func(t *testing.T) {
		in := make([]float32, 480)
		for i := range in {
			in[i] = 0.25
		}
		for _, rate := range []int{8000, 16000, 44100} {
			out := ResampleSamples(in, 48000, rate)
			require.NotEmpty(t, out)
			for _, s := range out {
				require.Equal(t, float32(0.25), s)
			}
		}
	})

	t.Run("interpolates between neighbours", func(t *testing.T) {
		out := ResampleSamples([]float32{0, 1, 0, 1}, 16000, 32000)
		require.Len(t, out, 8)
		require.Equal(t, float32(0), out[0])
		require.Equal(t, float32(0.5), out[1])
		require.Equal(t, float32(1), out[2])
	})
}

func TestRMS16(t *testing.T) {
	for _, tc := range []struct {
		name     string
		samples  []int16
		expected float64
	}{
		{"empty", nil, 0},
		{"silence", make([]int16, 100), 0},
		{"constant", []int16{100, 100, 100, 100}, 100},
		{"alternating", []int16{100, -100, 100, -100}, 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, RMS16(tc.samples))
		})
	}
}

func TestSamplesToWav(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32767, 12345}

	b, err := SamplesToWav(samples, 16000, 1)
	require.NoError(t, err)

	decoder := wav.NewDecoder(bytes.NewReader(b))
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	require.Equal(t, 16000, buf.Format.SampleRate)
	require.Equal(t, 1, buf.Format.NumChannels)
	require.Equal(t, int16ToInt(samples), buf.Data)
}

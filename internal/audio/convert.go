package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

const maxPCM16 = 32767

// QuantizeSamples converts float samples in [-1, 1] to signed 16-bit PCM.
// Out-of-range samples are clamped. Quantizing a dequantized sample
// reproduces it exactly.
func QuantizeSamples(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = quantizeSample(s)
	}

	return out
}

func quantizeSample(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}

	return int16(math.Round(v * maxPCM16))
}

// DequantizeSamples converts signed 16-bit PCM samples to floats in [-1, 1].
func DequantizeSamples(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / maxPCM16
	}

	return out
}

// ResampleSamples converts samples from one sample rate to another using
// linear interpolation.
func ResampleSamples(samples []float32, from, to int) []float32 {
	if from == to || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(from) / float64(to)
	out := make([]float32, resampledCount(len(samples), from, to))

	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}

		frac := float32(pos - float64(j))
		out[i] = samples[j] + frac*(samples[j+1]-samples[j])
	}

	return out
}

func resampledCount(n, from, to int) int {
	return int(float64(n) * float64(to) / float64(from))
}

// RMS16 calculates the root mean square of the given 16-bit samples.
func RMS16(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSquares float64
	for _, sample := range samples {
		v := float64(sample)
		sumSquares += v * v
	}

	return math.Sqrt(sumSquares / float64(len(samples)))
}

// SamplesToWav encodes 16-bit PCM samples as an in-memory RIFF/WAV file.
func SamplesToWav(samples []int16, sampleRate, channels int) ([]byte, error) {
	return encodeWav(&audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           int16ToInt(samples),
		SourceBitDepth: 16,
	})
}

func encodeWav(buf *audio.IntBuffer) ([]byte, error) {
	wavFile := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(wavFile, buf.Format.SampleRate, 16, buf.Format.NumChannels, 1)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	b, err := io.ReadAll(wavFile.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading wav into memory: %w", err)
	}

	return b, nil
}

func int16ToInt(input []int16) []int {
	output := make([]int, len(input))
	for i, value := range input {
		output[i] = int(value)
	}

	return output
}

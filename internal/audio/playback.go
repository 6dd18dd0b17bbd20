package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// Output plays WAV clips on an audio output device.
type Output struct {
	Device string

	device *portaudio.DeviceInfo
}

// PlayClip decodes the given RIFF/WAV data and plays it to completion,
// resampling to the output device rate where necessary.
// It is not safe for concurrent use.
func (o *Output) PlayClip(ctx context.Context, wavData []byte) error {
	if o.device == nil {
		device, err := outputDevice(o.Device)
		if err != nil {
			return err
		}
		o.device = device
	}

	return playClip(ctx, bytes.NewReader(wavData), o.device)
}

func playClip(ctx context.Context, wavFile io.ReadSeeker, device *portaudio.DeviceInfo) error {
	decoder := wav.NewDecoder(wavFile)
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return fmt.Errorf("read wave file headers: %w", err)
	}

	if decoder.SampleBitDepth() != 16 {
		return fmt.Errorf("wave data with unsupported bit depth of %d provided, expected 16", decoder.SampleBitDepth())
	}

	clipDuration, err := decoder.Duration()
	if err != nil {
		return fmt.Errorf("get audio duration: %w", err)
	}

	inputBufferSize := 512 * 9
	buffer := audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  int(decoder.SampleRate),
			NumChannels: int(decoder.NumChans),
		},
		SourceBitDepth: int(decoder.SampleBitDepth()),
		Data:           make([]int, inputBufferSize),
	}
	out := make([]int16, inputBufferSize)

	deviceRate := int(device.DefaultSampleRate)
	var resampledOut []int16
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: int(decoder.NumChans),
			Latency:  device.DefaultLowOutputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: resampledCount(inputBufferSize, int(decoder.SampleRate), deviceRate),
	}, &resampledOut)
	if err != nil {
		return fmt.Errorf("open audio output stream: %w", err)
	}
	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return fmt.Errorf("start audio output stream: %w", err)
	}
	defer stream.Stop()

	startTime := time.Now()

	for {
		n, err := decoder.PCMBuffer(&buffer)
		if n == 0 {
			break // EOF
		}
		if err != nil {
			return fmt.Errorf("read chunk from audio stream: %w", err)
		}
		for i, sample := range buffer.Data {
			out[i] = int16(sample)
		}
		if n < inputBufferSize { // zero-pad the buffer after short chunk
			for i := n; i < inputBufferSize; i++ {
				out[i] = 0
			}
		}
		resampledOut = QuantizeSamples(ResampleSamples(DequantizeSamples(out), int(decoder.SampleRate), deviceRate))
		err = stream.Write()
		if err != nil {
			// Occasional underruns don't audibly impact the playback as long as we keep writing.
			log.Println("WARNING: play audio: write chunk:", err)
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}

	// Wait for the audio to complete playing
	select {
	case <-time.After(clipDuration - time.Since(startTime)):
	case <-ctx.Done():
	}

	return nil
}

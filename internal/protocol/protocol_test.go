package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    string
		expected Message
	}{
		{
			name:     "final",
			input:    `{"type":"final","text":"hello"}`,
			expected: Message{Type: TypeFinal, Text: "hello"},
		},
		{
			name:     "assistant",
			input:    `{"type":"assistant","text":"Hi there."}`,
			expected: Message{Type: TypeAssistant, Text: "Hi there."},
		},
		{
			name:     "audio",
			input:    `{"type":"audio","b64":"UklGRg=="}`,
			expected: Message{Type: TypeAudio, B64: "UklGRg=="},
		},
		{
			name:     "error",
			input:    `{"type":"error","text":"Sorry, something went wrong."}`,
			expected: Message{Type: TypeError, Text: "Sorry, something went wrong."},
		},
		{
			name:     "ack",
			input:    `{"type":"ack","text":"Message received"}`,
			expected: Message{Type: TypeAck, Text: "Message received"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.input))
			require.NoError(t, err)
			require.Equal(t, tc.expected, msg)
		})
	}
}

func TestDecodeRejectsInvalidMessages(t *testing.T) {
	for _, tc := range []struct {
		name        string
		input       string
		unknownType bool
	}{
		{
			name:  "malformed json",
			input: `{"type":"final`,
		},
		{
			name:  "not an object",
			input: `42`,
		},
		{
			name:  "missing type",
			input: `{"text":"hello"}`,
		},
		{
			name:        "unknown type",
			input:       `{"type":"transcription","text":"hello"}`,
			unknownType: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.input))
			require.Error(t, err)
			require.Equal(t, tc.unknownType, errors.Is(err, ErrUnknownType))
		})
	}
}

func TestEncodeSamples(t *testing.T) {
	b := EncodeSamples([]int16{0x1234, -2, 0})
	require.Equal(t, []byte{0x34, 0x12, 0xfe, 0xff, 0x00, 0x00}, b)

	samples, err := DecodeSamples(b)
	require.NoError(t, err)
	require.Equal(t, []int16{0x1234, -2, 0}, samples)
}

func TestDecodeSamplesRejectsOddLength(t *testing.T) {
	_, err := DecodeSamples([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "http",
			input:    "http://localhost:8443",
			expected: "ws://localhost:8443/ws",
		},
		{
			name:     "https",
			input:    "https://voice.example.org",
			expected: "wss://voice.example.org/ws",
		},
		{
			name:     "ws passthrough",
			input:    "ws://localhost:8443",
			expected: "ws://localhost:8443/ws",
		},
		{
			name:     "wss passthrough",
			input:    "wss://voice.example.org/ignored?x=1",
			expected: "wss://voice.example.org/ws",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			u, err := WebsocketURL(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, u)
		})
	}
}

func TestWebsocketURLRejectsUnsupportedScheme(t *testing.T) {
	_, err := WebsocketURL("ftp://example.org")
	require.Error(t, err)
}

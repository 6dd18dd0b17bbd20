package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Message types pushed by the backend over websocket text frames.
const (
	TypeFinal     = "final"     // finalized user utterance
	TypeAssistant = "assistant" // piece of the assistant reply
	TypeAudio     = "audio"     // base64-encoded wave clip
	TypeError     = "error"     // user-visible failure notice
	TypeAck       = "ack"       // reply to a client text frame
)

var ErrUnknownType = errors.New("unknown message type")

// Message is the JSON envelope exchanged over websocket text frames.
// Binary frames carry raw little-endian 16-bit PCM instead.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	B64  string `json:"b64,omitempty"`
}

// Decode parses a text frame payload. Unknown types yield ErrUnknownType so
// that callers can skip them without dropping the connection.
func Decode(b []byte) (Message, error) {
	var msg Message

	err := json.Unmarshal(b, &msg)
	if err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}

	switch msg.Type {
	case TypeFinal, TypeAssistant, TypeAudio, TypeError, TypeAck:
		return msg, nil
	case "":
		return msg, errors.New("decode message: missing type")
	}

	return msg, fmt.Errorf("decode message of type %q: %w", msg.Type, ErrUnknownType)
}

func (m Message) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", m.Type, err)
	}

	return b, nil
}

// EncodeSamples serializes PCM samples as little-endian signed 16-bit words,
// the payload of a binary audio frame.
func EncodeSamples(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}

	return b
}

// DecodeSamples parses a binary audio frame payload.
func DecodeSamples(b []byte) ([]int16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("audio frame of %d bytes is not int16-aligned", len(b))
	}

	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}

	return samples, nil
}

// WebsocketURL derives the websocket endpoint from the backend base URL,
// matching the transport security of the original scheme.
func WebsocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse backend URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("backend URL %q has unsupported scheme %q", base, u.Scheme)
	}

	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

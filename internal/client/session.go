package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voxchat/voxchat/internal/audio"
	"github.com/voxchat/voxchat/internal/protocol"
	"github.com/voxchat/voxchat/internal/pubsub"
	"github.com/voxchat/voxchat/internal/transcript"
)

// Gate filters outbound microphone blocks for voice activity.
type Gate interface {
	Accept(block []float32) bool
}

// SessionConfig wires a Session's dependencies.
type SessionConfig struct {
	BackendURL string
	Dialer     Dialer
	Recorder   Recorder
	Output     ClipPlayer
	Gate       Gate
	Transcript *transcript.Log
	Events     pubsub.Publisher[Event]
}

// Session owns one voice chat lifecycle: the backend connection, the
// microphone stream and the playback queue. Activate and Deactivate may be
// called repeatedly; a session is inactive after any connection loss.
type Session struct {
	backendURL string
	dialer     Dialer
	recorder   Recorder
	gate       Gate
	transcript *transcript.Log
	events     pubsub.Publisher[Event]
	player     *Player

	mutex      sync.Mutex
	active     bool
	conn       Conn
	connOpen   bool
	recording  Recording
	pumpCancel context.CancelFunc
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		backendURL: cfg.BackendURL,
		dialer:     cfg.Dialer,
		recorder:   cfg.Recorder,
		gate:       cfg.Gate,
		transcript: cfg.Transcript,
		events:     cfg.Events,
		player:     NewPlayer(cfg.Output),
	}
	s.player.OnChange = s.publishState

	return s
}

// Player returns the session's playback queue consumer.
// Its Run method must be driven by the caller.
func (s *Session) Player() *Player {
	return s.player
}

// Transcript returns the session's conversation transcript.
func (s *Session) Transcript() *transcript.Log {
	return s.transcript
}

// Activate dials the backend and starts streaming microphone audio to it.
// It is a no-op if the session is already active.
func (s *Session) Activate(ctx context.Context) error {
	err := s.activate(ctx)
	if err == nil {
		s.publishState()
	}

	return err
}

func (s *Session) activate(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.active {
		return nil
	}

	conn, err := s.dialer.Dial(ctx, s.backendURL)
	if err != nil {
		return fmt.Errorf("activate voice session: %w", err)
	}

	recording, err := s.recorder.Record(ctx)
	if err != nil {
		if e := conn.Close(); e != nil {
			slog.Warn("failed to close connection", "err", e)
		}
		return fmt.Errorf("activate voice session: %w", err)
	}

	pumpCtx, pumpCancel := context.WithCancel(ctx)

	s.active = true
	s.conn = conn
	s.connOpen = true
	s.recording = recording
	s.pumpCancel = pumpCancel

	go s.pump(pumpCtx, conn, recording)
	go s.receive(ctx, conn)

	return nil
}

// Deactivate tears the session down: it stops the send pump, stops the
// microphone stream, closes the connection if it is still open and releases
// the input device. Every step is attempted even if a previous one failed.
// It is a no-op if the session is not active.
func (s *Session) Deactivate() error {
	s.mutex.Lock()
	if !s.active {
		s.mutex.Unlock()
		return nil
	}
	s.active = false
	conn, connOpen, recording, pumpCancel := s.conn, s.connOpen, s.recording, s.pumpCancel
	s.conn = nil
	s.connOpen = false
	s.recording = nil
	s.pumpCancel = nil
	s.mutex.Unlock()

	var errs []error

	pumpCancel()

	if err := recording.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop microphone stream: %w", err))
	}

	if connOpen {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if err := recording.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release audio input: %w", err))
	}

	s.publishState()

	return errors.Join(errs...)
}

// Active reports whether the session is connected and capturing.
func (s *Session) Active() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

// SetMuted mutes or unmutes assistant audio playback.
// Microphone capture is not affected.
func (s *Session) SetMuted(muted bool) {
	s.player.SetMuted(muted)
}

// EnqueueClip queues a local WAV clip for playback behind any pending
// assistant audio. Clips are dropped while playback is muted.
func (s *Session) EnqueueClip(wavData []byte) {
	s.player.Enqueue(base64.StdEncoding.EncodeToString(wavData))
}

// Muted reports whether assistant audio playback is muted.
func (s *Session) Muted() bool {
	return s.player.Muted()
}

// SendText submits a typed user message over the active connection.
func (s *Session) SendText(ctx context.Context, text string) error {
	s.mutex.Lock()
	conn, open := s.conn, s.connOpen
	s.mutex.Unlock()

	if !open {
		return fmt.Errorf("no active voice session")
	}

	if err := conn.WriteText(ctx, []byte(text)); err != nil {
		return fmt.Errorf("send text message: %w", err)
	}

	s.transcript.AddUserFinal(text)
	s.publishTranscript()

	return nil
}

// pump streams captured sample blocks to the backend. Once a write fails,
// remaining blocks are drained and dropped silently until the pump stops.
func (s *Session) pump(ctx context.Context, conn Conn, recording Recording) {
	var silence []float32
	sending := true

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-recording.Chunks():
			if !ok {
				return
			}
			if !sending {
				continue
			}

			if s.gate != nil && !s.gate.Accept(chunk) {
				if silence == nil {
					silence = make([]float32, len(chunk))
				}
				chunk = silence
			}

			err := conn.WriteBinary(ctx, protocol.EncodeSamples(audio.QuantizeSamples(chunk)))
			if err != nil {
				slog.Debug("dropping microphone audio", "err", err)
				sending = false
			}
		}
	}
}

func (s *Session) receive(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			s.handleConnClosed(conn, err)
			return
		}

		s.dispatch(data)
	}
}

// handleConnClosed deactivates the session when its connection closed
// without a preceding Deactivate call.
func (s *Session) handleConnClosed(conn Conn, err error) {
	s.mutex.Lock()
	if !s.active || s.conn != conn {
		s.mutex.Unlock()
		return
	}
	s.connOpen = false
	s.mutex.Unlock()

	slog.Warn("voice connection closed unexpectedly", "err", err)
	s.transcript.AddNotice("connection closed")
	s.publishTranscript()

	if err := s.Deactivate(); err != nil {
		slog.Warn("failed to deactivate voice session", "err", err)
	}
}

func (s *Session) dispatch(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		slog.Warn("ignoring unreadable message from backend", "err", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFinal:
		s.transcript.AddUserFinal(msg.Text)
		s.publishTranscript()
	case protocol.TypeAssistant:
		s.transcript.AppendAssistant(msg.Text)
		s.publishTranscript()
	case protocol.TypeAudio:
		s.player.Enqueue(msg.B64)
	case protocol.TypeError:
		s.transcript.AddNotice(msg.Text)
		s.publishTranscript()
	case protocol.TypeAck:
		slog.Debug("backend acknowledged text message")
	}
}

// State returns a snapshot of the session's observable state.
func (s *Session) State() State {
	s.mutex.Lock()
	active := s.active
	s.mutex.Unlock()

	return State{
		Active:   active,
		Muted:    s.player.Muted(),
		Speaking: s.player.Speaking(),
		Queued:   s.player.Queued(),
	}
}

func (s *Session) publishState() {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Kind: EventState, State: s.State()})
}

func (s *Session) publishTranscript() {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Kind: EventTranscript, State: s.State()})
}

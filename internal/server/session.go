package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/voxchat/voxchat/internal/audio"
	"github.com/voxchat/voxchat/internal/chat"
	"github.com/voxchat/voxchat/internal/model"
	"github.com/voxchat/voxchat/internal/protocol"
	"github.com/voxchat/voxchat/internal/stt"
	"github.com/voxchat/voxchat/internal/tts"
	"github.com/voxchat/voxchat/pkg/config"
)

// responseErrorNotice is pushed to the client when a response could not be
// generated. The connection stays alive so the user can simply try again.
const responseErrorNotice = "Sorry, something went wrong."

// wsConn is the part of the websocket connection the session uses.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

// session serves one connected voice chat client: it segments the inbound
// PCM stream into utterances, transcribes them, generates a spoken reply per
// utterance and pushes the typed messages back to the client.
type session struct {
	id       string
	cfg      config.Configuration
	services Services
	conn     wsConn
	outbound chan protocol.Message
}

func newSession(cfg config.Configuration, services Services, conn wsConn) *session {
	return &session{
		id:       uuid.NewString(),
		cfg:      cfg,
		services: services,
		conn:     conn,
		outbound: make(chan protocol.Message, 50),
	}
}

// run serves the connection until the client disconnects or ctx is cancelled.
// Utterances are answered sequentially in arrival order - a new utterance
// spoken while a reply is being generated queues behind it.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("voice chat session started", "session", s.id)
	defer slog.Info("voice chat session ended", "session", s.id)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		// Once writing fails the pipeline has no sink anymore, so unblock it.
		defer cancel()
		s.writePump(ctx)
	}()

	chunks := make(chan []int16, 10)
	var senders sync.WaitGroup
	s.startPipeline(ctx, &senders, chunks)

	s.readLoop(ctx, chunks)

	// The client disconnected. Flush the pending utterance through the
	// pipeline, then release the write pump.
	close(chunks)
	senders.Wait()
	close(s.outbound)
	<-writeDone
}

// readLoop consumes inbound frames until the connection fails: binary frames
// carry PCM samples that feed the utterance pipeline, text frames are only
// acknowledged. Malformed frames are logged and dropped.
func (s *session) readLoop(ctx context.Context, chunks chan<- []int16) {
	for {
		msgType, data, err := s.conn.Read(ctx)
		if err != nil {
			slog.Debug("client connection closed", "session", s.id, "err", err)
			return
		}

		switch msgType {
		case websocket.MessageBinary:
			samples, err := protocol.DecodeSamples(data)
			if err != nil {
				slog.Warn("dropping malformed audio frame", "session", s.id, "err", err)
				continue
			}

			metricAudioFramesReceived.Inc()

			select {
			case chunks <- samples:
			case <-ctx.Done():
				return
			}
		case websocket.MessageText:
			slog.Debug("received text message", "session", s.id)

			if !s.send(ctx, protocol.Message{Type: protocol.TypeAck, Text: "Message received"}) {
				return
			}
		}
	}
}

// startPipeline spawns the chunks → utterances → transcription → completion →
// sentences → speech pipeline. Every goroutine that sends to s.outbound is
// registered with senders so the caller knows when the channel can be closed.
func (s *session) startPipeline(ctx context.Context, senders *sync.WaitGroup, chunks <-chan []int16) {
	conversation := model.NewConversation(chat.RenderSystemPrompt(s.cfg.SystemPrompt, s.cfg.AssistantName))

	endpointer := &audio.Endpointer{MinVolume: s.cfg.MinVolume}
	transcriber := &stt.Transcriber{Service: s.services.Transcription}
	completer := &chat.Completer{LLM: s.services.Completion}
	speechGen := &tts.SpeechGenerator{Service: s.services.Speech}

	utterances := endpointer.Detect(ctx, chunks)
	transcriptions := transcriber.Transcribe(ctx, utterances)

	completionRequests := make(chan chat.CompletionRequest, 10)
	speechRequests := make(chan tts.Request, 10)

	senders.Add(1)
	go func() {
		defer senders.Done()
		defer close(completionRequests)

		for text := range transcriptions {
			metricUtterances.Inc()
			reqNum := conversation.AddUserRequest(text)

			if !s.send(ctx, protocol.Message{Type: protocol.TypeFinal, Text: text}) {
				return
			}

			select {
			case completionRequests <- chat.CompletionRequest{RequestNum: reqNum}:
			case <-ctx.Done():
				return
			}
		}
	}()

	responses, err := completer.Run(ctx, completionRequests, conversation)
	if err != nil {
		// Does not happen with the current completer but keeps the pipeline
		// contract explicit.
		slog.Error("start completer", "session", s.id, "err", err)
		responses = closedChunkChan()
	}

	sentences := chat.ChunksToSentences(responses)

	senders.Add(1)
	go func() {
		defer senders.Done()
		defer close(speechRequests)

		for chunk := range sentences {
			switch chunk.Type {
			case chat.ChunkTypeText:
				if !s.send(ctx, protocol.Message{Type: protocol.TypeAssistant, Text: chunk.Text}) {
					return
				}

				select {
				case speechRequests <- tts.Request{RequestNum: chunk.RequestNum, Text: chunk.Text}:
				case <-ctx.Done():
					return
				}
			case chat.ChunkTypeError:
				if !s.send(ctx, protocol.Message{Type: protocol.TypeError, Text: responseErrorNotice}) {
					return
				}
			}
		}
	}()

	speeches := speechGen.GenerateAudio(ctx, speechRequests)

	senders.Add(1)
	go func() {
		defer senders.Done()

		for speech := range speeches {
			msg := protocol.Message{
				Type: protocol.TypeAudio,
				B64:  base64.StdEncoding.EncodeToString(speech.WaveData),
			}
			if !s.send(ctx, msg) {
				return
			}
		}
	}()
}

// writePump serializes all outbound messages onto the connection.
func (s *session) writePump(ctx context.Context) {
	for msg := range s.outbound {
		b, err := msg.Marshal()
		if err != nil {
			slog.Error("skipping unmarshalable outbound message", "session", s.id, "err", err)
			continue
		}

		if err := s.conn.Write(ctx, websocket.MessageText, b); err != nil {
			slog.Debug("stopped writing to client", "session", s.id, "err", err)
			return
		}

		metricMessagesSent.WithLabelValues(msg.Type).Inc()
	}
}

func (s *session) send(ctx context.Context, msg protocol.Message) bool {
	select {
	case s.outbound <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func closedChunkChan() <-chan chat.ResponseChunk {
	ch := make(chan chat.ResponseChunk)
	close(ch)
	return ch
}

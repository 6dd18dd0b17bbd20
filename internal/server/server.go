package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxchat/voxchat/internal/chat"
	"github.com/voxchat/voxchat/internal/stt"
	"github.com/voxchat/voxchat/internal/tts"
	"github.com/voxchat/voxchat/pkg/config"
)

// Services are the upstream AI services the voice chat backend relies on.
type Services struct {
	Transcription stt.Service
	Completion    chat.CompletionStreamer
	Speech        tts.Service
}

// ServicesFromConfig builds clients for the configured OpenAI-compatible API.
func ServicesFromConfig(cfg config.Configuration) Services {
	httpClient := &http.Client{Timeout: 90 * time.Second}

	return Services{
		Transcription: &stt.Client{
			URL:    cfg.APIURL,
			APIKey: cfg.APIKey,
			Model:  cfg.STTModel,
			Client: httpClient,
		},
		Completion: &chat.LLM{
			ServerURL:        cfg.APIURL,
			APIKey:           cfg.APIKey,
			Model:            cfg.ChatModel,
			Temperature:      cfg.Temperature,
			FrequencyPenalty: 1.5,
			MaxTokens:        cfg.MaxTokens,
			HTTPClient:       httpClient,
		},
		Speech: &tts.Client{
			URL:    cfg.APIURL,
			APIKey: cfg.APIKey,
			Model:  cfg.TTSModel,
			Client: httpClient,
		},
	}
}

func AddRoutes(mux *http.ServeMux, cfg config.Configuration, services Services) {
	services.Transcription = timedTranscription{services.Transcription}
	services.Completion = timedCompletion{services.Completion}
	services.Speech = timedSpeech{services.Speech}

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			slog.Warn("accept websocket connection", "err", err)
			return
		}
		defer conn.CloseNow()

		metricActiveConnections.Inc()
		defer metricActiveConnections.Dec()

		newSession(cfg, services, conn).run(req.Context())
	})
}

package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/voxchat/voxchat/internal/chat"
	"github.com/voxchat/voxchat/internal/model"
	"github.com/voxchat/voxchat/internal/stt"
	"github.com/voxchat/voxchat/internal/tts"
)

var (
	metricActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxchatd_active_connections",
		Help: "Current number of connected voice chat clients",
	})
	metricAudioFramesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxchatd_audio_frames_received_total",
		Help: "Total number of binary PCM frames received from clients",
	})
	metricUtterances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxchatd_utterances_total",
		Help: "Total number of transcribed user utterances",
	})
	metricMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxchatd_messages_sent_total",
		Help: "Total number of messages sent to clients by type",
	}, []string{"type"})
	metricTranscriptionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxchatd_transcription_duration_seconds",
		Help:    "Duration of transcription requests",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
	metricCompletionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxchatd_chat_completion_duration_seconds",
		Help:    "Duration of chat completion requests",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
	metricSpeechSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxchatd_speech_synthesis_duration_seconds",
		Help:    "Duration of speech synthesis requests",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

type timedTranscription struct {
	service stt.Service
}

func (t timedTranscription) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	start := time.Now()
	text, err := t.service.Transcribe(ctx, wavData)
	metricTranscriptionSeconds.Observe(time.Since(start).Seconds())

	return text, err
}

type timedCompletion struct {
	llm chat.CompletionStreamer
}

func (t timedCompletion) ChatCompletion(ctx context.Context, reqNum int64, conv *model.Conversation, ch chan<- chat.ResponseChunk) (string, error) {
	start := time.Now()
	response, err := t.llm.ChatCompletion(ctx, reqNum, conv, ch)
	metricCompletionSeconds.Observe(time.Since(start).Seconds())

	return response, err
}

type timedSpeech struct {
	service tts.Service
}

func (t timedSpeech) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	waveData, err := t.service.GenerateAudio(ctx, text)
	metricSpeechSeconds.Observe(time.Since(start).Seconds())

	return waveData, err
}

package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxchat/voxchat/internal/audio"
)

type receivedRequest struct {
	method  string
	path    string
	auth    string
	model   string
	wavData []byte
}

func TestClientTranscribe(t *testing.T) {
	received := make(chan receivedRequest, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := receivedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
		}

		if err := r.ParseMultipartForm(1 << 20); err == nil {
			req.model = r.FormValue("model")

			if file, _, err := r.FormFile("file"); err == nil {
				req.wavData, _ = io.ReadAll(file)
				file.Close()
			}
		}

		received <- req

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": " hello world"}`))
	}))
	defer srv.Close()

	wavData, err := audio.SamplesToWav(make([]int16, 1600), audio.CaptureRate, 1)
	require.NoError(t, err)

	testee := &Client{
		URL:    srv.URL,
		APIKey: "fake-key",
		Model:  "fake-model",
		Client: srv.Client(),
	}

	text, err := testee.Transcribe(context.Background(), wavData)
	require.NoError(t, err)
	require.Equal(t, " hello world", text)

	req := <-received
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "/v1/audio/transcriptions", req.path)
	require.Equal(t, "Bearer fake-key", req.auth)
	require.Equal(t, "fake-model", req.model)
	require.Equal(t, wavData, req.wavData)
}

func TestClientTranscribeWithoutAPIKey(t *testing.T) {
	received := make(chan receivedRequest, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- receivedRequest{auth: r.Header.Get("Authorization")}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "ok"}`))
	}))
	defer srv.Close()

	testee := &Client{URL: srv.URL, Model: "fake-model", Client: srv.Client()}

	_, err := testee.Transcribe(context.Background(), []byte("fake wav data"))
	require.NoError(t, err)

	req := <-received
	require.Empty(t, req.auth, "no authorization header should be sent without an API key")
}

func TestClientTranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	testee := &Client{URL: srv.URL, Model: "fake-model", Client: srv.Client()}

	_, err := testee.Transcribe(context.Background(), []byte("fake wav data"))
	require.ErrorContains(t, err, "status code: 500")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("backendURL: https://voice.example.org\nsttModel: whisper-large\ntemperature: 0.2\n"), 0o600)
	require.NoError(t, err)

	cfg, err := FromFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://voice.example.org", cfg.BackendURL)
	require.Equal(t, "whisper-large", cfg.STTModel)
	require.Equal(t, 0.2, cfg.Temperature)
	require.Equal(t, "tts-1", cfg.TTSModel, "unset fields keep their defaults")
}

func TestFromFileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("backend_url: https://voice.example.org\n"), 0o600)
	require.NoError(t, err)

	_, err = FromFile(path)
	require.Error(t, err)
}

func TestFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("assistantName: Iris\n"), 0o600)
	require.NoError(t, err)

	cfg := Default()
	f := &Flag{Config: &cfg}

	require.NoError(t, f.Set(path))
	require.True(t, f.IsSet)
	require.Equal(t, "Iris", cfg.AssistantName)
	require.Equal(t, path, f.String())
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voxchat/voxchat/internal/cli"
	"github.com/voxchat/voxchat/internal/server"
	"github.com/voxchat/voxchat/internal/tlsutils"
	"github.com/voxchat/voxchat/pkg/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(fmt.Sprintf("no .env file loaded: %s", err))
	}

	configFile := "/etc/voxchat/config.yaml"
	cfg, err := config.FromFile(configFile)
	configFlag := &config.Flag{File: configFile, Config: &cfg}

	listenAddr := ":8443"
	tlsEnabled := false
	tlsCert := ""
	tlsKey := ""

	flag.Var(configFlag, "config", "path to the configuration file")
	flag.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "URL pointing to the OpenAI-compatible API server")
	flag.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key for the OpenAI-compatible API server")
	flag.StringVar(&cfg.STTModel, "stt-model", cfg.STTModel, "name of the STT model to use")
	flag.StringVar(&cfg.TTSModel, "tts-model", cfg.TTSModel, "name of the TTS model to use")
	flag.StringVar(&cfg.ChatModel, "chat-model", cfg.ChatModel, "name of the chat model to use")
	flag.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "temperature parameter for the chat LLM")
	flag.IntVar(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, "token limit per chat completion, 0 meaning no limit")
	flag.StringVar(&cfg.AssistantName, "assistant-name", cfg.AssistantName, "name the assistant goes by")
	flag.StringVar(&cfg.SystemPrompt, "system-prompt", cfg.SystemPrompt, "system prompt template for the chat LLM")
	flag.IntVar(&cfg.MinVolume, "min-volume", cfg.MinVolume, "min input volume threshold for utterance detection")
	flag.StringVar(&listenAddr, "listen", listenAddr, "address the server should listen on")
	flag.BoolVar(&tlsEnabled, "tls", tlsEnabled, "serve securely via HTTPS/TLS")
	flag.StringVar(&tlsCert, "tls-cert", tlsCert, "path to the TLS certificate file")
	flag.StringVar(&tlsKey, "tls-key", tlsKey, "path to the TLS key file")
	cli.ParseFlagsWithEnvVars(flag.CommandLine, "VOXCHAT_")

	// A missing default config file is fine - the defaults cover it.
	if !configFlag.IsSet && err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runServer(ctx, cfg, listenAddr, tlsEnabled, tlsCert, tlsKey)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg config.Configuration, listenAddr string, tlsEnabled bool, tlsCert, tlsKey string) error {
	mux := http.NewServeMux()
	srv := &http.Server{
		Addr:        listenAddr,
		BaseContext: func(net.Listener) context.Context { return ctx },
		Handler:     mux,
	}

	server.AddRoutes(mux, cfg, server.ServicesFromConfig(cfg))

	go func() {
		<-ctx.Done()
		slog.Info("terminating")
		srv.Shutdown(context.Background())
	}()

	var err error

	if tlsEnabled {
		if tlsCert == "" && tlsKey == "" {
			slog.Info("generating self-signed TLS certificate")

			var cleanup func()

			tlsCert, tlsKey, cleanup, err = tlsutils.GenerateSelfSignedTLSCertificate()
			if err != nil {
				return fmt.Errorf("generating tls certificate: %w", err)
			}

			defer cleanup()
		}

		slog.Info(fmt.Sprintf("listening on %s", srv.Addr))

		err = srv.ListenAndServeTLS(tlsCert, tlsKey)
	} else {
		slog.Info(fmt.Sprintf("listening on %s", srv.Addr))

		err = srv.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

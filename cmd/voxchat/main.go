package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gordonklaus/portaudio"

	"github.com/voxchat/voxchat/internal/audio"
	"github.com/voxchat/voxchat/internal/cli"
	"github.com/voxchat/voxchat/internal/client"
	"github.com/voxchat/voxchat/internal/pubsub"
	"github.com/voxchat/voxchat/internal/soundgen"
	"github.com/voxchat/voxchat/internal/transcript"
	"github.com/voxchat/voxchat/internal/ui"
	"github.com/voxchat/voxchat/internal/vad"
	"github.com/voxchat/voxchat/pkg/config"
)

func main() {
	configFile := "/etc/voxchat/config.yaml"
	cfg, err := config.FromFile(configFile)
	configFlag := &config.Flag{File: configFile, Config: &cfg}

	listDevices := false

	flag.Var(configFlag, "config", "path to the configuration file")
	flag.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "URL pointing to the voice chat backend")
	flag.StringVar(&cfg.InputDevice, "input-device", cfg.InputDevice, "name or ID of the audio input device")
	flag.StringVar(&cfg.OutputDevice, "output-device", cfg.OutputDevice, "name or ID of the audio output device")
	flag.BoolVar(&cfg.InsecureTLS, "insecure", cfg.InsecureTLS, "skip TLS certificate verification, e.g. for a self-signed backend certificate")
	flag.BoolVar(&cfg.Chime, "chime", cfg.Chime, "play a chime when voice capture starts/stops")
	flag.BoolVar(&cfg.VADEnabled, "vad", cfg.VADEnabled, "enable voice activity detection (VAD)")
	flag.StringVar(&cfg.VADModelPath, "vad-model", cfg.VADModelPath, "path to the VAD model")
	flag.StringVar(&cfg.AssistantName, "assistant-name", cfg.AssistantName, "assistant name shown in the transcript")
	flag.BoolVar(&listDevices, "list-devices", listDevices, "list the available audio devices and exit")
	cli.ParseFlagsWithEnvVars(flag.CommandLine, "VOXCHAT_")

	// A missing default config file is fine - the defaults cover it.
	if !configFlag.IsSet && err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, listDevices)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Configuration, listDevices bool) error {
	portaudio.Initialize()
	defer portaudio.Terminate()

	if listDevices {
		return audio.ListDevices(os.Stdout)
	}

	httpClient := http.DefaultClient
	if cfg.InsecureTLS {
		httpClient = &http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}}
	}

	var gate client.Gate
	if cfg.VADEnabled {
		g, err := vad.NewGate(cfg.VADModelPath)
		if err != nil {
			return fmt.Errorf("initialize voice activity detection: %w", err)
		}
		defer g.Close()
		gate = g
	}

	events := pubsub.New[client.Event]()
	defer events.Stop()

	sess := client.NewSession(client.SessionConfig{
		BackendURL: cfg.BackendURL,
		Dialer:     &client.WebsocketDialer{HTTPClient: httpClient},
		Recorder:   &client.MicRecorder{Capture: audio.Capture{Device: cfg.InputDevice}},
		Output:     &audio.Output{Device: cfg.OutputDevice},
		Gate:       gate,
		Transcript: transcript.New(),
		Events:     events,
	})

	go sess.Player().Run(ctx)

	var activationChime, deactivationChime []byte
	if cfg.Chime {
		gen := soundgen.Generator{SampleRate: audio.CaptureRate}

		var err error

		activationChime, err = gen.ActivationChime()
		if err != nil {
			return fmt.Errorf("render activation chime: %w", err)
		}

		deactivationChime, err = gen.DeactivationChime()
		if err != nil {
			return fmt.Errorf("render deactivation chime: %w", err)
		}
	}

	// Route log records into the UI's log pane while the alternate screen is
	// up so that they don't corrupt the rendering.
	logLines := make(chan string, 64)
	stderrLogger := slog.Default()
	slog.SetDefault(slog.New(ui.NewLogHandler(logLines, cli.LogLevel)))
	defer slog.SetDefault(stderrLogger)

	p := tea.NewProgram(ui.NewModel(ctx, ui.Config{
		Session:           sess,
		Events:            events,
		Logs:              logLines,
		AssistantName:     cfg.AssistantName,
		ActivationChime:   activationChime,
		DeactivationChime: deactivationChime,
	}))

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()

	deactivateErr := sess.Deactivate()
	if err != nil {
		return fmt.Errorf("run UI: %w", err)
	}

	return deactivateErr
}

package config

type Configuration struct {
	// Client settings.
	BackendURL   string `json:"backendURL,omitempty"`
	InputDevice  string `json:"inputDevice,omitempty"`
	OutputDevice string `json:"outputDevice,omitempty"`
	InsecureTLS  bool   `json:"insecureTLS,omitempty"`
	Chime        bool   `json:"chime,omitempty"`
	VADEnabled   bool   `json:"vadEnabled,omitempty"`
	VADModelPath string `json:"vadModelPath,omitempty"`

	// Server settings.
	APIURL        string  `json:"apiURL,omitempty"`
	APIKey        string  `json:"apiKey,omitempty"`
	STTModel      string  `json:"sttModel,omitempty"`
	TTSModel      string  `json:"ttsModel,omitempty"`
	ChatModel     string  `json:"chatModel,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"maxTokens,omitempty"`
	AssistantName string  `json:"assistantName,omitempty"`
	SystemPrompt  string  `json:"systemPrompt,omitempty"`
	MinVolume     int     `json:"minVolume,omitempty"`
}

const defaultSystemPrompt = `You are {name}, a friendly voice assistant.
	Keep your responses short and conversational since they are read aloud to the user via text-to-speech.
	Do not use markdown, bullet points or emojis - answer in plain spoken sentences.
	When you don't know something, say so briefly instead of guessing.`

// Default returns the configuration both binaries start from when no config file is provided.
func Default() Configuration {
	return Configuration{
		BackendURL:    "http://localhost:8443",
		Chime:         true,
		APIURL:        "http://localhost:8080",
		STTModel:      "whisper-1",
		TTSModel:      "tts-1",
		ChatModel:     "gpt-4o-mini",
		Temperature:   0.7,
		AssistantName: "Vox",
		SystemPrompt:  defaultSystemPrompt,
		MinVolume:     450,
	}
}

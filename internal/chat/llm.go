package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/voxchat/voxchat/internal/model"
)

type ChunkType string

const (
	// ChunkTypeText carries a piece of the assistant response.
	ChunkTypeText ChunkType = "text"
	// ChunkTypeError indicates that the response could not be generated.
	ChunkTypeError ChunkType = "error"
	// ChunkTypeEnd marks the end of a response.
	ChunkTypeEnd ChunkType = "end"
)

// ResponseChunk is a piece of a streamed assistant response.
type ResponseChunk struct {
	Type       ChunkType
	RequestNum int64
	Text       string
}

type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// LLM streams chat completions from an OpenAI-compatible API.
type LLM struct {
	ServerURL        string
	APIKey           string
	Model            string
	Temperature      float64
	FrequencyPenalty float64
	MaxTokens        int
	HTTPClient       HTTPDoer

	llm *openai.LLM
}

// ChatCompletion streams the completion for conv's history into ch and
// returns the complete response text.
func (c *LLM) ChatCompletion(ctx context.Context, reqNum int64, conv *model.Conversation, ch chan<- ResponseChunk) (string, error) {
	if c.llm == nil {
		llm, err := openai.New(
			openai.WithHTTPClient(c.HTTPClient),
			openai.WithBaseURL(c.ServerURL+"/v1"),
			openai.WithToken(c.APIKey),
			openai.WithModel(c.Model),
		)
		if err != nil {
			return "", err
		}

		c.llm = llm
	}

	messages := conv.Messages()

	printMessages(messages)

	streamingFunc := func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}

		slog.Debug(fmt.Sprintf("received chunk %q", string(chunk)))

		ch <- ResponseChunk{
			Type:       ChunkTypeText,
			RequestNum: reqNum,
			Text:       string(chunk),
		}

		return nil
	}

	resp, err := c.llm.GenerateContent(ctx,
		messages,
		llms.WithStreamingFunc(streamingFunc),
		llms.WithTemperature(c.Temperature),
		llms.WithFrequencyPenalty(c.FrequencyPenalty),
		llms.WithMaxTokens(c.MaxTokens),
	)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Content, nil
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func printMessages(messages []llms.MessageContent) {
	msgs := make([]string, 0, len(messages))

	for i, m := range messages {
		content := model.FormatMessage(m)
		if len(content) > 140 {
			content = content[:140] + "..."
		}

		content = whitespaceRegex.ReplaceAllString(content, " ")

		msgs = append(msgs, fmt.Sprintf("\n\t%d. %s", i, content))
	}

	slog.Debug(fmt.Sprintf("requesting chat completion for message history: %s", strings.Join(msgs, "")))
}

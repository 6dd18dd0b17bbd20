package chat

import (
	"context"
	"log/slog"

	"github.com/voxchat/voxchat/internal/model"
)

// CompletionRequest asks for a response to the conversation's latest
// user request.
type CompletionRequest struct {
	RequestNum int64
}

// CompletionStreamer streams one chat completion into a chunk channel and
// returns the complete response text.
type CompletionStreamer interface {
	ChatCompletion(ctx context.Context, reqNum int64, conv *model.Conversation, ch chan<- ResponseChunk) (string, error)
}

// Completer turns completion requests into streamed assistant responses.
// Requests are processed sequentially in arrival order.
type Completer struct {
	LLM CompletionStreamer
}

func (c *Completer) Run(ctx context.Context, requests <-chan CompletionRequest, conv *model.Conversation) (<-chan ResponseChunk, error) {
	ch := make(chan ResponseChunk, 50)

	go func() {
		defer close(ch)

		for req := range requests {
			response, err := c.LLM.ChatCompletion(ctx, req.RequestNum, conv, ch)
			if err != nil {
				slog.Error("chat completion failed", "err", err)

				ch <- ResponseChunk{
					Type:       ChunkTypeError,
					RequestNum: req.RequestNum,
				}
			} else {
				conv.AddAIResponse(req.RequestNum, response)
			}

			slog.Debug("end of response")

			ch <- ResponseChunk{
				Type:       ChunkTypeEnd,
				RequestNum: req.RequestNum,
			}
		}
	}()

	return ch, nil
}

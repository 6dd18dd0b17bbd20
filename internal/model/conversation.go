package model

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Conversation is the message history of one voice chat connection.
// Consecutive messages of the same role are merged so that the history
// alternates between user and assistant turns.
type Conversation struct {
	requestCounter int64
	messages       []conversationMessage
	mutex          sync.Mutex
}

type conversationMessage struct {
	RequestNum int64
	llms.MessageContent
}

func NewConversation(systemPrompt string) *Conversation {
	messages := make([]conversationMessage, 1, 100)
	messages[0] = conversationMessage{
		RequestNum:     1,
		MessageContent: llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}

	return &Conversation{
		messages:       messages,
		requestCounter: 1,
	}
}

// RequestCounter returns the number of the latest user request.
func (c *Conversation) RequestCounter() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.requestCounter
}

// AddUserRequest appends a user message to the history and returns the
// number assigned to the request.
func (c *Conversation) AddUserRequest(text string) int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.requestCounter++

	slog.Info(fmt.Sprintf("user request: %s", strings.TrimSpace(text)))

	c.addMessage(conversationMessage{
		RequestNum:     c.requestCounter,
		MessageContent: llms.TextParts(llms.ChatMessageTypeHuman, text),
	})

	return c.requestCounter
}

// AddAIResponse appends an assistant message to the history.
// Responses to outdated requests are dropped.
func (c *Conversation) AddAIResponse(requestNum int64, msg string) bool {
	if len(msg) == 0 {
		return false
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.addMessage(conversationMessage{
		RequestNum:     requestNum,
		MessageContent: llms.TextParts(llms.ChatMessageTypeAI, msg),
	}) {
		slog.Info(fmt.Sprintf("assistant: %s", strings.TrimSpace(msg)))
		return true
	}

	return false
}

func (c *Conversation) addMessage(msg conversationMessage) bool {
	if c.requestCounter > msg.RequestNum {
		// ignore response from an outdated request
		return false
	}

	messages := c.messages

	if len(messages) > 0 && messages[len(messages)-1].Role == msg.Role {
		last := &messages[len(messages)-1]
		last.Parts = append(last.Parts, llms.TextPart("\n"))
		last.Parts = append(last.Parts, msg.Parts...)
		last.RequestNum = msg.RequestNum
	} else {
		messages = append(messages, msg)
	}

	c.messages = messages

	return true
}

// Messages returns a snapshot of the conversation history.
func (c *Conversation) Messages() []llms.MessageContent {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	msgContents := make([]llms.MessageContent, len(c.messages))
	for i, msg := range c.messages {
		msgContents[i] = msg.MessageContent
	}

	return msgContents
}

// FormatMessage renders a message for logging.
func FormatMessage(m llms.MessageContent) string {
	return fmt.Sprintf("%s: %s", m.Role, formatMessageParts(m.Parts))
}

func formatMessageParts(parts []llms.ContentPart) string {
	strs := make([]string, len(parts))

	for i, p := range parts {
		switch part := p.(type) {
		case llms.TextContent:
			strs[i] = part.Text
		case llms.BinaryContent:
			strs[i] = "[binary]"
		default:
			strs[i] = fmt.Sprintf("%T%v", p, p)
		}
	}

	return strings.Join(strs, "")
}

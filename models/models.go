package models

import (
	"time"

	"github.com/google/uuid"
)

// Message senders. The wire role names match the sender names, so a
// ChatMessage maps directly onto a CompletionMessage.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatMessage represents one turn in a conversation. Immutable after creation.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" or "assistant"
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message with a fresh ID and the current time.
func NewChatMessage(sender, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}

// Chat represents a persisted conversation. Messages are append-only;
// LastMessage and Timestamp always mirror the most recent message.
type Chat struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	LastMessage string        `json:"lastMessage"`
	Timestamp   time.Time     `json:"timestamp"`
	Messages    []ChatMessage `json:"messages"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ChatResponse pairs the persisted user turn with the assistant reply.
type ChatResponse struct {
	UserMessage      ChatMessage `json:"user_message"`
	AssistantMessage ChatMessage `json:"assistant_message"`
}

// CompletionMessage is one role-tagged turn sent to the completion endpoint.
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body of POST /api/chat.
type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages"`
}

// StreamChunk is the payload of one "data:" event on the completion stream.
// Consumers read text from the first choice's delta content.
type StreamChunk struct {
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice is one choice in a StreamChunk.
type StreamChoice struct {
	Delta StreamDelta `json:"delta"`
}

// StreamDelta carries the incremental text fragment.
type StreamDelta struct {
	Content string `json:"content"`
}

// NewStreamChunk wraps a text fragment in the event payload shape.
func NewStreamChunk(fragment string) StreamChunk {
	return StreamChunk{
		Choices: []StreamChoice{{Delta: StreamDelta{Content: fragment}}},
	}
}

// Text returns the fragment carried by the chunk, or "" if absent.
func (c StreamChunk) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

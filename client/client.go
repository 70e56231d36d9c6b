package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"serenify/models"
)

// requestTimeout bounds the whole completion exchange. Hitting it cancels
// the request and is treated the same as a network failure.
const requestTimeout = 30 * time.Second

// emergencyFallbackResponses are used when the completion request fails or
// yields nothing; the user still receives a supportive reply.
var emergencyFallbackResponses = []string{
	"I'm here to listen and support you. While I'm experiencing some technical difficulties, I want you to know that your feelings are valid and important.",
	"Thank you for reaching out. Even though I'm having some connectivity issues, I want to remind you that you're not alone and it's okay to take things one step at a time.",
	"I appreciate you sharing with me. While I work through some technical challenges, please remember that seeking support is a sign of strength, not weakness.",
	"I'm experiencing some technical difficulties, but I want you to know that I care about your wellbeing. If you're in crisis, please reach out to a mental health professional or crisis hotline.",
}

// lastResortResponse is the built-in reply used when even persisting the
// user message fails on the first attempt.
const lastResortResponse = "I'm here to support you, though I'm experiencing some technical difficulties. " +
	"Your wellbeing matters, and if you need immediate help, please reach out to a mental health professional."

// Store is the subset of the conversation store the client needs.
type Store interface {
	AppendMessage(chatID uuid.UUID, msg models.ChatMessage) (*models.Chat, error)
}

// ChunkFunc receives the full accumulated text after each fragment, never
// a delta, so the renderer can redraw idempotently.
type ChunkFunc func(fullText string)

// StreamingClient drives one completion exchange per user turn. It never
// surfaces a technical error as the assistant reply: every failure mode
// degrades to a supportive fallback message.
type StreamingClient struct {
	endpoint   string
	httpClient *http.Client
	store      Store
	log        *slog.Logger
}

// NewStreamingClient creates a client that posts to the given completion
// endpoint URL and persists messages through store.
func NewStreamingClient(endpoint string, store Store, log *slog.Logger) *StreamingClient {
	return &StreamingClient{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		store:      store,
		log:        log,
	}
}

// Send persists the user turn, streams the assistant reply through onChunk,
// persists the final text, and returns both messages. onChunk invocations
// carry strictly growing accumulated text; the last one equals the
// persisted assistant content.
func (c *StreamingClient) Send(ctx context.Context, chatID uuid.UUID, userText string, prior []models.ChatMessage, onChunk ChunkFunc) (*models.ChatResponse, error) {
	userMsg := models.NewChatMessage(models.SenderUser, userText)
	if _, err := c.store.AppendMessage(chatID, userMsg); err != nil {
		c.log.Error("Failed to persist user message", "chat", chatID, "error", err)
		return c.recover(chatID, userMsg, onChunk, err)
	}

	fullText, err := c.fetchCompletion(ctx, userText, prior, onChunk)
	if err != nil || strings.TrimSpace(fullText) == "" {
		if err != nil {
			c.log.Warn("Completion request failed, using emergency fallback", "chat", chatID, "error", err)
		} else {
			c.log.Warn("Empty completion received, using emergency fallback", "chat", chatID)
		}
		fullText = emergencyFallbackResponses[rand.Intn(len(emergencyFallbackResponses))]
		onChunk(fullText)
	}

	assistantMsg := models.NewChatMessage(models.SenderAssistant, fullText)
	if _, err := c.store.AppendMessage(chatID, assistantMsg); err != nil {
		c.log.Error("Failed to persist assistant message", "chat", chatID, "error", err)
		if _, retryErr := c.store.AppendMessage(chatID, assistantMsg); retryErr != nil {
			return nil, fmt.Errorf("failed to process chat: %w", err)
		}
	}

	return &models.ChatResponse{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// recover handles a failed first persistence attempt: the turn proceeds
// with the built-in reply and both messages get one more persistence
// attempt. Only a second failure is terminal, naming the original cause.
func (c *StreamingClient) recover(chatID uuid.UUID, userMsg models.ChatMessage, onChunk ChunkFunc, cause error) (*models.ChatResponse, error) {
	if _, err := c.store.AppendMessage(chatID, userMsg); err != nil {
		return nil, fmt.Errorf("failed to process chat: %w", cause)
	}
	assistantMsg := models.NewChatMessage(models.SenderAssistant, lastResortResponse)
	if _, err := c.store.AppendMessage(chatID, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to process chat: %w", cause)
	}

	onChunk(lastResortResponse)
	return &models.ChatResponse{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// fetchCompletion posts the role-tagged history to the completion endpoint
// and consumes the event stream, reporting accumulated snapshots through
// onChunk via a single-producer, single-consumer channel.
func (c *StreamingClient) fetchCompletion(ctx context.Context, userText string, prior []models.ChatMessage, onChunk ChunkFunc) (string, error) {
	formatted := lo.FilterMap(prior, func(m models.ChatMessage, _ int) (models.CompletionMessage, bool) {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			return models.CompletionMessage{}, false
		}
		role := models.SenderAssistant
		if m.Sender == models.SenderUser {
			role = models.SenderUser
		}
		return models.CompletionMessage{Role: role, Content: content}, true
	})
	formatted = append(formatted, models.CompletionMessage{Role: models.SenderUser, Content: userText})

	body, err := json.Marshal(models.CompletionRequest{Messages: formatted})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API responded with status: %d", resp.StatusCode)
	}

	snapshots := make(chan string, 1)
	var fullText string
	var decodeErr error
	go func() {
		defer close(snapshots)
		fullText, decodeErr = DecodeEventStream(reqCtx, resp.Body, snapshots)
	}()
	for snapshot := range snapshots {
		onChunk(snapshot)
	}
	if decodeErr != nil {
		return "", decodeErr
	}
	return fullText, nil
}

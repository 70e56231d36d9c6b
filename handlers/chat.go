package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"serenify/client"
	"serenify/models"
	"serenify/services"
	"serenify/store"
)

// fallbackWordDelay paces the word-by-word fallback stream so it reads
// like a live completion.
const fallbackWordDelay = 100 * time.Millisecond

// ChatHandler handles chat-related HTTP requests.
type ChatHandler struct {
	store     *store.ConversationStore
	completer services.Completer
	streamer  *client.StreamingClient
	log       *slog.Logger
	wordDelay time.Duration
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(s *store.ConversationStore, completer services.Completer, streamer *client.StreamingClient, log *slog.Logger) *ChatHandler {
	return &ChatHandler{
		store:     s,
		completer: completer,
		streamer:  streamer,
		log:       log,
		wordDelay: fallbackWordDelay,
	}
}

// Completion serves POST /api/chat. A structurally invalid request is the
// only condition answered with an error status; once the event stream has
// been chosen, every failure degrades to the fallback stream.
func (h *ChatHandler) Completion(c *gin.Context) {
	var req models.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format. Messages array is required."})
		return
	}

	h.log.Info("Completion requested", "messages", len(req.Messages))

	// Live vs fallback is decided before the stream headers commit.
	health := h.completer.Probe(c.Request.Context())

	writeStreamHeaders(c)

	if !health.Available {
		h.log.Warn("Upstream probe failed, streaming fallback", "error", health.Err)
		h.streamFallback(c)
		return
	}

	prompt := services.BuildConversationPrompt(req.Messages)
	streamed := false
	err := h.completer.StreamCompletion(c.Request.Context(), health.Model, prompt, func(fragment string) error {
		streamed = true
		return writeEvent(c.Writer, models.NewStreamChunk(fragment))
	})
	if err != nil && !streamed {
		// Nothing has been written yet, so the fallback stream is
		// indistinguishable from a live one.
		h.log.Warn("Live stream failed before first fragment, streaming fallback", "model", health.Model, "error", err)
		h.streamFallback(c)
		return
	}
	if err != nil {
		// Mid-stream failure: terminate early, no retroactive fallback.
		h.log.Warn("Live stream ended early", "model", health.Model, "error", err)
	}
	writeDone(c.Writer)
}

// streamFallback emits one supportive phrase word by word, framed exactly
// like a live completion stream.
func (h *ChatHandler) streamFallback(c *gin.Context) {
	response := services.PickFallbackResponse()
	words := strings.Split(response, " ")
	for i, word := range words {
		select {
		case <-c.Request.Context().Done():
			return
		case <-time.After(h.wordDelay):
		}

		fragment := word
		if i < len(words)-1 {
			fragment += " "
		}
		if err := writeEvent(c.Writer, models.NewStreamChunk(fragment)); err != nil {
			return
		}
	}
	writeDone(c.Writer)
}

func writeStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
}

func writeEvent(w gin.ResponseWriter, chunk models.StreamChunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func writeDone(w gin.ResponseWriter) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()
}

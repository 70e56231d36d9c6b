package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serenify/models"
)

// CreateConversation creates a new chat seeded with the assistant greeting.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	chat, err := h.store.CreateChat()
	if err != nil {
		h.log.Error("Failed to create conversation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// ListConversations lists all chats, most recent first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.ListChats())
}

// GetConversation retrieves a chat by ID.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	chat, found := h.store.GetChat(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteConversation deletes a chat and its messages. Deleting an unknown
// chat is a no-op.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	if err := h.store.DeleteChat(id); err != nil {
		h.log.Error("Failed to delete conversation", "chat", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

// SendMessage records a user turn and returns it together with the
// assistant reply, driving the full streaming pipeline server-side.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	chat, found := h.store.GetChat(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	resp, err := h.streamer.Send(c.Request.Context(), id, req.Content, chat.Messages, func(string) {})
	if err != nil {
		h.log.Error("Failed to process message", "chat", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMessages retrieves the message history of a chat.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	chat, found := h.store.GetChat(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, chat.Messages)
}

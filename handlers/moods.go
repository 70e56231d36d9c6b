package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serenify/models"
)

// ListMoods lists all mood journal entries, most recent first.
func (h *ChatHandler) ListMoods(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.ListMoodLogs())
}

// CreateMood records a new mood journal entry.
func (h *ChatHandler) CreateMood(c *gin.Context) {
	var req models.CreateMoodLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	entry := models.NewMoodLog(*req.MoodValue, req.Tags, req.Notes)
	if err := h.store.AddMoodLog(entry); err != nil {
		h.log.Error("Failed to save mood log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save mood log"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// DeleteMood removes a mood journal entry. Unknown ids are a no-op.
func (h *ChatHandler) DeleteMood(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mood log ID"})
		return
	}

	if err := h.store.DeleteMoodLog(id); err != nil {
		h.log.Error("Failed to delete mood log", "mood", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete mood log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mood log deleted"})
}

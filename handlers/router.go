package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes and CORS policy.
func NewRouter(h *ChatHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		// Completion endpoint consumed by the streaming client
		api.POST("/chat", h.Completion)

		// Conversation routes
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.DELETE("/conversations/:id", h.DeleteConversation)

		// Message routes
		api.POST("/conversations/:id/messages", h.SendMessage)
		api.GET("/conversations/:id/messages", h.GetMessages)

		// Mood journal routes
		api.GET("/moods", h.ListMoods)
		api.POST("/moods", h.CreateMood)
		api.DELETE("/moods/:id", h.DeleteMood)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

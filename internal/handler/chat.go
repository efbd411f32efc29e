package handler

import (
	"log"
	"net/http"
	"strings"

	"estatescout/internal/model"
	"estatescout/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles conversational search requests
type ChatHandler struct {
	pipeline *service.Pipeline
}

// NewChatHandler creates a new chat handler
func NewChatHandler(pipeline *service.Pipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	log.Printf("💬 Received message from %s: %s", req.UserID, req.Message)

	result, err := h.pipeline.Run(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		log.Printf("❌ Pipeline error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": userFacingError(err),
		})
		return
	}

	if result.Properties == nil {
		result.Properties = []model.Property{}
	}
	c.JSON(http.StatusOK, result)
}

// userFacingError maps pipeline failures to a generic apologetic message,
// keeping credential hints for the two configuration cases operators hit
// most.
func userFacingError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "API key") || strings.Contains(msg, "Unauthorized") {
		return "The language model credential looks invalid. Please check OPENAI_API_KEY in your .env file."
	}
	if strings.Contains(msg, "tavily") || strings.Contains(msg, "TAVILY") {
		return "The search provider is unavailable or misconfigured. Please check TAVILY_API_KEY in your .env file."
	}
	return "Sorry, something went wrong while processing your search. Please try again."
}

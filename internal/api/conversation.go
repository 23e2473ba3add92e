package api

import (
	"net/http"

	"characterai/backend/internal/models"
	"characterai/backend/internal/repository"
	"characterai/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler serves the conversation log
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler creates a conversation handler
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Create handles POST /conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req models.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	conversation, err := h.conversations.Create(c.Request.Context(), &req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

// List handles GET /conversations[?userId=&characterId=]
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.conversations.List(c.Request.Context(), repository.ConversationFilter{
		UserID:      c.Query("userId"),
		CharacterID: c.Query("characterId"),
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// Get handles GET /conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversation, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// AppendMessage handles POST /conversations/:id/messages
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	conversation, err := h.conversations.AppendMessage(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

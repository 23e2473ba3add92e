package api

import (
	"net/http"

	"characterai/backend/internal/models"
	"characterai/backend/internal/service"
	apperrors "characterai/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the proxied chat call
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /chat. A body whose messages field is not a list fails
// to decode and is rejected before the store or provider is touched.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeValidation, MsgChatInvalid).Wrap(err))
		c.Abort()
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(ChatError(err))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{AIResponse: reply})
}

// ChatError maps a chat failure onto the rendered error, keeping the
// chat-specific wording for 400 and 404
func ChatError(err error) *apperrors.AppError {
	switch {
	case models.IsValidationError(err):
		return apperrors.NewBadRequestError(apperrors.CodeValidation, MsgChatInvalid).Wrap(err)
	case service.IsNotFound(err):
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, MsgCharacterNotFound)
	}

	appErr := toAppError(err)
	if appErr.Code == apperrors.CodeInternal {
		return apperrors.NewInternalServerError(apperrors.CodeUpstream, MsgChatFailed).Wrap(err)
	}
	return appErr
}

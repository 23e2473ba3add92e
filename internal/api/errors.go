package api

import (
	"errors"

	"characterai/backend/ai"
	"characterai/backend/internal/models"
	"characterai/backend/internal/service"
	apperrors "characterai/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Messages rendered for provider failures
const (
	MsgCredentialMissing = "AI provider API key is not configured."
	MsgCredentialInvalid = "AI provider rejected the API key."
	MsgChatFailed        = "Failed to get AI response."
	MsgChatInvalid       = "characterId and messages are required."
	MsgCharacterNotFound = "Character not found."
	MsgNotFound          = "Not found"
)

// abort pushes err for errors.ErrorHandler to render
func abort(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
	c.Abort()
}

func toAppError(err error) *apperrors.AppError {
	var verr *models.ValidationError
	var upstream *ai.UpstreamError

	switch {
	case errors.As(err, &verr):
		return apperrors.NewBadRequestError(apperrors.CodeValidation, verr.Error()).WithDetails(verr.Fields)
	case service.IsNotFound(err):
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, MsgNotFound)
	case errors.Is(err, ai.ErrCredentialMissing):
		return apperrors.NewInternalServerError(apperrors.CodeCredentialMissing, MsgCredentialMissing).Wrap(err)
	case errors.Is(err, ai.ErrCredentialInvalid):
		return apperrors.NewInternalServerError(apperrors.CodeCredentialInvalid, MsgCredentialInvalid).Wrap(err)
	case errors.As(err, &upstream):
		return apperrors.NewInternalServerError(apperrors.CodeUpstream, MsgChatFailed).Wrap(err)
	default:
		return apperrors.FromError(err)
	}
}

// badJSON reports a body that could not be decoded
func badJSON(c *gin.Context, err error) {
	_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeValidation, "Invalid JSON body.").Wrap(err))
	c.Abort()
}

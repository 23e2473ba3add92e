package api

import (
	"net/http"

	"characterai/backend/internal/models"
	"characterai/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves registration
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register handles POST /register
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

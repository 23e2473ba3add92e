package api

import (
	"net/http"

	"characterai/backend/internal/models"
	"characterai/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CharacterHandler serves character CRUD. No ownership checks are made.
type CharacterHandler struct {
	characters *service.CharacterService
}

// NewCharacterHandler creates a character handler
func NewCharacterHandler(characters *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// Create handles POST /characters
func (h *CharacterHandler) Create(c *gin.Context) {
	var req models.CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}

	character, err := h.characters.Create(c.Request.Context(), &req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// List handles GET /characters[?creatorId=]
func (h *CharacterHandler) List(c *gin.Context) {
	characters, err := h.characters.List(c.Request.Context(), c.Query("creatorId"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// Get handles GET /characters/:id
func (h *CharacterHandler) Get(c *gin.Context) {
	character, err := h.characters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// Update handles PUT /characters/:id
func (h *CharacterHandler) Update(c *gin.Context) {
	var patch models.CharacterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badJSON(c, err)
		return
	}

	character, err := h.characters.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// Delete handles DELETE /characters/:id
func (h *CharacterHandler) Delete(c *gin.Context) {
	if err := h.characters.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Package repository persists users, characters and conversations.
package repository

import (
	"context"
	"errors"

	"characterai/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository stores users. Users are never updated or deleted.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// CharacterFilter narrows FindAll. Empty fields match everything.
type CharacterFilter struct {
	CreatorID string
}

// CharacterRepository stores characters. expand populates Creator.
type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	FindByID(ctx context.Context, id string, expand bool) (*models.Character, error)
	FindAll(ctx context.Context, filter CharacterFilter, expand bool) ([]models.Character, error)
	Update(ctx context.Context, id string, patch *models.CharacterPatch) (*models.Character, error)
	Delete(ctx context.Context, id string) error
}

// ConversationFilter narrows FindAll. Empty fields match everything.
type ConversationFilter struct {
	UserID      string
	CharacterID string
}

// ConversationRepository stores conversations. expand populates User and Character.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	FindByID(ctx context.Context, id string, expand bool) (*models.Conversation, error)
	FindAll(ctx context.Context, filter ConversationFilter, expand bool) ([]models.Conversation, error)
	// Save persists the conversation's message list.
	Save(ctx context.Context, conversation *models.Conversation) error
}

// Store groups the three collections behind one backend
type Store interface {
	Users() UserRepository
	Characters() CharacterRepository
	Conversations() ConversationRepository
	Ping(ctx context.Context) error
	Close() error
}

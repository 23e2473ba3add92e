package service

import (
	"context"
	"time"

	"characterai/backend/internal/models"
	"characterai/backend/internal/repository"
	"characterai/backend/pkg/logger"
)

// ConversationService stores conversation logs
type ConversationService struct {
	repo  repository.ConversationRepository
	locks *keyedMutex
	log   *logger.Logger
	now   func() time.Time
}

// NewConversationService creates a conversation service
func NewConversationService(repo repository.ConversationRepository, log *logger.Logger) *ConversationService {
	return &ConversationService{
		repo:  repo,
		locks: newKeyedMutex(),
		log:   log.WithComponent("conversations"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a conversation, optionally seeded with messages
func (s *ConversationService) Create(ctx context.Context, req *models.ConversationRequest) (*models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	messages := make([]models.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, m.ToMessage(now))
	}

	userID, characterID := req.References()
	conversation := &models.Conversation{
		UserID:      userID,
		CharacterID: characterID,
		Messages:    messages,
		StartedAt:   now,
	}
	if err := s.repo.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get returns a conversation with user and character expanded
func (s *ConversationService) Get(ctx context.Context, id string) (*models.Conversation, error) {
	return s.repo.FindByID(ctx, id, true)
}

// List returns conversations matching the filter, without expansion
func (s *ConversationService) List(ctx context.Context, filter repository.ConversationFilter) ([]models.Conversation, error) {
	return s.repo.FindAll(ctx, filter, false)
}

// AppendMessage adds one message to the end of the log. Appends to the same
// conversation are serialized inside this process.
func (s *ConversationService) AppendMessage(ctx context.Context, id string, req *models.MessageRequest) (*models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	conversation, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	conversation.Messages = append(conversation.Messages, req.ToMessage(s.now()))
	if err := s.repo.Save(ctx, conversation); err != nil {
		return nil, err
	}

	s.log.Debug("Message appended", "conversation_id", id, "count", len(conversation.Messages))
	return conversation, nil
}

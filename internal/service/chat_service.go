package service

import (
	"context"
	"errors"

	"characterai/backend/ai"
	"characterai/backend/internal/models"
	"characterai/backend/pkg/logger"
	"characterai/backend/pkg/observability"
)

// ChatService answers one chat turn. It keeps no session state; the client
// sends the full history every time.
type ChatService struct {
	characters *CharacterService
	generator  ai.Generator
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewChatService creates a chat service. metrics may be nil.
func NewChatService(characters *CharacterService, generator ai.Generator, metrics *observability.Metrics, log *logger.Logger) *ChatService {
	return &ChatService{
		characters: characters,
		generator:  generator,
		metrics:    metrics,
		log:        log.WithComponent("chat"),
	}
}

// Reply validates the request, loads the persona and asks the provider for
// the next line. The provider is never called for an unknown character.
func (s *ChatService) Reply(ctx context.Context, req *models.ChatRequest) (string, error) {
	reply, err := s.reply(ctx, req)
	s.metrics.RecordChat(ctx, outcome(err))
	return reply, err
}

func (s *ChatService) reply(ctx context.Context, req *models.ChatRequest) (string, error) {
	if err := ValidateChatRequest(req); err != nil {
		return "", err
	}

	character, err := s.characters.Get(ctx, req.CharacterID)
	if err != nil {
		return "", err
	}

	history := make([]ai.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, ai.ChatMessage{Sender: m.Sender, Text: m.Text})
	}

	prompt := ai.BuildPrompt(ai.Persona{
		Name:        character.Name,
		Personality: character.Personality,
		Description: character.Description,
	}, history)

	return s.generator.Generate(ctx, prompt)
}

// ValidateChatRequest requires a character id and a message list. An empty
// list is still a list; the persona then opens the conversation.
func ValidateChatRequest(req *models.ChatRequest) error {
	verr := &models.ValidationError{}
	if req.CharacterID == "" {
		verr.Add("characterId", "is required")
	}
	if req.Messages == nil {
		verr.Add("messages", "must be a list")
	}
	return verr.OrNil()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.ChatOK
	case models.IsValidationError(err):
		return observability.ChatInvalid
	case IsNotFound(err):
		return observability.ChatNotFound
	case errors.Is(err, ai.ErrCredentialMissing):
		return observability.ChatCredentialMissing
	case errors.Is(err, ai.ErrCredentialInvalid):
		return observability.ChatCredentialInvalid
	default:
		return observability.ChatUpstreamError
	}
}

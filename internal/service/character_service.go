package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"characterai/backend/internal/models"
	"characterai/backend/internal/repository"
	"characterai/backend/pkg/cache"
	"characterai/backend/pkg/logger"
)

const characterKeyPrefix = "character:"

// CharacterService implements character CRUD with an optional read-through cache
type CharacterService struct {
	repo  repository.CharacterRepository
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger

	// fills orders cache fills against invalidations of the same id; epoch
	// moves on every invalidation so a fill that raced one is dropped.
	fills *keyedMutex
	epoch atomic.Uint64
}

// CharacterServiceOption customises a CharacterService
type CharacterServiceOption func(*CharacterService)

// WithCache caches single-character reads for ttl
func WithCache(c cache.Cache, ttl time.Duration) CharacterServiceOption {
	return func(s *CharacterService) {
		s.cache = c
		s.ttl = ttl
	}
}

// NewCharacterService creates a character service
func NewCharacterService(repo repository.CharacterRepository, log *logger.Logger, opts ...CharacterServiceOption) *CharacterService {
	s := &CharacterService{
		repo:  repo,
		log:   log.WithComponent("characters"),
		fills: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new character
func (s *CharacterService) Create(ctx context.Context, req *models.CharacterRequest) (*models.Character, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	character := &models.Character{
		Name:        req.Name,
		Description: req.Description,
		Personality: req.Personality,
		Avatar:      req.Avatar,
		CreatorID:   req.CreatorID,
	}
	if err := s.repo.Create(ctx, character); err != nil {
		return nil, err
	}

	s.log.Info("Character created", "character_id", character.ID)
	return character, nil
}

// Get returns one character with its creator expanded
func (s *CharacterService) Get(ctx context.Context, id string) (*models.Character, error) {
	if s.cache != nil {
		var cached models.Character
		ok, err := cache.GetJSON(ctx, s.cache, characterKeyPrefix+id, &cached)
		if err != nil {
			s.log.Warn("Character cache read failed", "character_id", id, "error", err.Error())
		} else if ok {
			return &cached, nil
		}
	}

	epoch := s.epoch.Load()
	character, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.fill(ctx, character, epoch)
	}
	return character, nil
}

// fill caches a character read at epoch unless an invalidation happened since
func (s *CharacterService) fill(ctx context.Context, character *models.Character, epoch uint64) {
	unlock := s.fills.Lock(character.ID)
	defer unlock()

	if s.epoch.Load() != epoch {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, characterKeyPrefix+character.ID, character, s.ttl); err != nil {
		s.log.Warn("Character cache write failed", "character_id", character.ID, "error", err.Error())
	}
}

// List returns all characters, optionally only those of one creator
func (s *CharacterService) List(ctx context.Context, creatorID string) ([]models.Character, error) {
	return s.repo.FindAll(ctx, repository.CharacterFilter{CreatorID: creatorID}, true)
}

// Update applies a partial update
func (s *CharacterService) Update(ctx context.Context, id string, patch *models.CharacterPatch) (*models.Character, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	character, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return character, nil
}

// Delete removes a character. Conversations referencing it are left alone.
func (s *CharacterService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("Character deleted", "character_id", id)
	return nil
}

func (s *CharacterService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	unlock := s.fills.Lock(id)
	defer unlock()

	s.epoch.Add(1)
	if err := s.cache.Delete(ctx, characterKeyPrefix+id); err != nil {
		s.log.Warn("Character cache invalidation failed", "character_id", id, "error", err.Error())
	}
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

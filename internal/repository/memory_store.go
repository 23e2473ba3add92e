package repository

import (
	"context"
	"sync"
	"time"

	"characterai/backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in-process. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	emails        map[string]string // email -> user ID
	characters    map[string]models.Character
	charOrder     []string
	conversations map[string]models.Conversation
	convOrder     []string
}

// NewMemoryStore initializes an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		emails:        make(map[string]string),
		characters:    make(map[string]models.Character),
		conversations: make(map[string]models.Conversation),
	}
}

func (m *MemoryStore) Users() UserRepository                 { return memoryUsers{m} }
func (m *MemoryStore) Characters() CharacterRepository       { return memoryCharacters{m} }
func (m *MemoryStore) Conversations() ConversationRepository { return memoryConversations{m} }

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// userLocked returns a copy of the user; caller holds m.mu.
func (m *MemoryStore) userLocked(id *string) *models.User {
	if id == nil {
		return nil
	}
	u, ok := m.users[*id]
	if !ok {
		return nil
	}
	return &u
}

// characterLocked returns a detached copy; caller holds m.mu.
func (m *MemoryStore) characterLocked(id string, expand bool) (models.Character, bool) {
	c, ok := m.characters[id]
	if !ok {
		return models.Character{}, false
	}
	c.CreatorID = copyString(c.CreatorID)
	c.Creator = nil
	if expand {
		c.Creator = m.userLocked(c.CreatorID)
	}
	return c, true
}

// conversationLocked returns a detached copy; caller holds m.mu.
func (m *MemoryStore) conversationLocked(id string, expand bool) (models.Conversation, bool) {
	conv, ok := m.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	conv.UserID = copyString(conv.UserID)
	conv.CharacterID = copyString(conv.CharacterID)
	conv.Messages = append([]models.Message{}, conv.Messages...)
	conv.User = nil
	conv.Character = nil
	if expand {
		conv.User = m.userLocked(conv.UserID)
		if conv.CharacterID != nil {
			if c, ok := m.characterLocked(*conv.CharacterID, false); ok {
				conv.Character = &c
			}
		}
	}
	return conv, true
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, taken := r.m.emails[user.Email]; taken {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.m.users[user.ID] = *user
	r.m.emails[user.Email] = user.ID
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	id, ok := r.m.emails[email]
	r.m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

type memoryCharacters struct{ m *MemoryStore }

func (r memoryCharacters) Create(_ context.Context, character *models.Character) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	if character.CreatedAt.IsZero() {
		character.CreatedAt = time.Now().UTC()
	}
	stored := *character
	stored.CreatorID = copyString(character.CreatorID)
	stored.Creator = nil

	if _, exists := r.m.characters[stored.ID]; !exists {
		r.m.charOrder = append(r.m.charOrder, stored.ID)
	}
	r.m.characters[stored.ID] = stored
	return nil
}

func (r memoryCharacters) FindByID(_ context.Context, id string, expand bool) (*models.Character, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	c, ok := r.m.characterLocked(id, expand)
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r memoryCharacters) FindAll(_ context.Context, filter CharacterFilter, expand bool) ([]models.Character, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	res := make([]models.Character, 0, len(r.m.charOrder))
	for _, id := range r.m.charOrder {
		c, ok := r.m.characterLocked(id, expand)
		if !ok {
			continue
		}
		if filter.CreatorID != "" && (c.CreatorID == nil || *c.CreatorID != filter.CreatorID) {
			continue
		}
		res = append(res, c)
	}
	return res, nil
}

func (r memoryCharacters) Update(_ context.Context, id string, patch *models.CharacterPatch) (*models.Character, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.characterLocked(id, false)
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&c)
	r.m.characters[id] = c

	out := c
	out.CreatorID = copyString(c.CreatorID)
	return &out, nil
}

func (r memoryCharacters) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.characters[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.characters, id)
	for i, v := range r.m.charOrder {
		if v == id {
			r.m.charOrder = append(r.m.charOrder[:i], r.m.charOrder[i+1:]...)
			break
		}
	}
	return nil
}

type memoryConversations struct{ m *MemoryStore }

func (r memoryConversations) Create(_ context.Context, conversation *models.Conversation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = time.Now().UTC()
	}
	if conversation.Messages == nil {
		conversation.Messages = []models.Message{}
	}

	stored := *conversation
	stored.UserID = copyString(conversation.UserID)
	stored.CharacterID = copyString(conversation.CharacterID)
	stored.Messages = append([]models.Message{}, conversation.Messages...)
	stored.User = nil
	stored.Character = nil

	if _, exists := r.m.conversations[stored.ID]; !exists {
		r.m.convOrder = append(r.m.convOrder, stored.ID)
	}
	r.m.conversations[stored.ID] = stored
	return nil
}

func (r memoryConversations) FindByID(_ context.Context, id string, expand bool) (*models.Conversation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	conv, ok := r.m.conversationLocked(id, expand)
	if !ok {
		return nil, ErrNotFound
	}
	return &conv, nil
}

func (r memoryConversations) FindAll(_ context.Context, filter ConversationFilter, expand bool) ([]models.Conversation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	res := make([]models.Conversation, 0, len(r.m.convOrder))
	for _, id := range r.m.convOrder {
		conv, ok := r.m.conversationLocked(id, expand)
		if !ok {
			continue
		}
		if filter.UserID != "" && (conv.UserID == nil || *conv.UserID != filter.UserID) {
			continue
		}
		if filter.CharacterID != "" && (conv.CharacterID == nil || *conv.CharacterID != filter.CharacterID) {
			continue
		}
		res = append(res, conv)
	}
	return res, nil
}

func (r memoryConversations) Save(_ context.Context, conversation *models.Conversation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.conversations[conversation.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Messages = append([]models.Message{}, conversation.Messages...)
	r.m.conversations[conversation.ID] = stored
	return nil
}

package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Message is one turn of a conversation. Messages are only ever appended.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a persisted message log between a user and a character.
// Neither reference is checked; the character may have been deleted.
type Conversation struct {
	ID          string                       `gorm:"primaryKey" json:"id"`
	UserID      *string                      `gorm:"index" json:"userId,omitempty"`
	User        *User                        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CharacterID *string                      `gorm:"index" json:"characterId,omitempty"`
	Character   *Character                   `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
	Messages    datatypes.JSONSlice[Message] `json:"messages"`
	StartedAt   time.Time                    `json:"startedAt"`
}

// ConversationRequest is the request body for POST /conversations. Older
// clients send the references as user and character.
type ConversationRequest struct {
	UserID      *string          `json:"userId"`
	CharacterID *string          `json:"characterId"`
	User        *string          `json:"user,omitempty"`
	Character   *string          `json:"character,omitempty"`
	Messages    []MessageRequest `json:"messages"`
}

// References returns the user and character ids, preferring the userId and
// characterId fields over their aliases.
func (r *ConversationRequest) References() (userID, characterID *string) {
	userID, characterID = r.UserID, r.CharacterID
	if userID == nil {
		userID = r.User
	}
	if characterID == nil {
		characterID = r.Character
	}
	return userID, characterID
}

// Validate checks every seeded message
func (r *ConversationRequest) Validate() error {
	verr := &ValidationError{}
	for i := range r.Messages {
		r.Messages[i].validateInto(verr, "messages")
	}
	return verr.OrNil()
}

// MessageRequest is the request body for POST /conversations/:id/messages
// and the element type of the chat request history.
type MessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Validate checks that sender and text are present
func (r *MessageRequest) Validate() error {
	verr := &ValidationError{}
	r.validateInto(verr, "")
	return verr.OrNil()
}

func (r *MessageRequest) validateInto(verr *ValidationError, prefix string) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	if strings.TrimSpace(r.Sender) == "" {
		verr.Add(field("sender"), "is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		verr.Add(field("text"), "is required")
	}
}

// ToMessage stamps the request with a timestamp
func (r MessageRequest) ToMessage(at time.Time) Message {
	return Message{Sender: r.Sender, Text: r.Text, Timestamp: at}
}

// ChatRequest is the body for POST /chat. The message list is the complete
// history the client holds; the server keeps none.
type ChatRequest struct {
	CharacterID string           `json:"characterId"`
	Messages    []MessageRequest `json:"messages"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	AIResponse string `json:"aiResponse"`
}

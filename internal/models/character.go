package models

import (
	"strings"
	"time"
)

// Character is a persona users can chat with.
type Character struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Personality string    `json:"personality"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatorID   *string   `gorm:"index" json:"creatorId,omitempty"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CharacterRequest is the request body for POST /characters
type CharacterRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Personality string  `json:"personality"`
	Avatar      string  `json:"avatar"`
	CreatorID   *string `json:"creatorId"`
}

// Validate checks that a name is present
func (r *CharacterRequest) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		verr.Add("name", "is required")
	}
	return verr.OrNil()
}

// CharacterPatch is the request body for PUT /characters/:id.
// Nil fields are left untouched.
type CharacterPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Personality *string `json:"personality"`
	Avatar      *string `json:"avatar"`
	CreatorID   *string `json:"creatorId"`
}

// Validate rejects a patch that would blank the name
func (p *CharacterPatch) Validate() error {
	verr := &ValidationError{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		verr.Add("name", "cannot be empty")
	}
	return verr.OrNil()
}

// Apply copies the set fields onto c
func (p *CharacterPatch) Apply(c *Character) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Personality != nil {
		c.Personality = *p.Personality
	}
	if p.Avatar != nil {
		c.Avatar = *p.Avatar
	}
	if p.CreatorID != nil {
		id := *p.CreatorID
		c.CreatorID = &id
	}
}

// Columns returns the set fields keyed by column name
func (p *CharacterPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Personality != nil {
		cols["personality"] = *p.Personality
	}
	if p.Avatar != nil {
		cols["avatar"] = *p.Avatar
	}
	if p.CreatorID != nil {
		cols["creator_id"] = *p.CreatorID
	}
	return cols
}

package models

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered user. Users are never updated or deleted.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash, never rendered
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the request body for POST /register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// Validate checks the required registration fields
func (r *RegisterRequest) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.Username) == "" {
		verr.Add("username", "is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		verr.Add("email", "is required")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		verr.Add("email", "is not a valid address")
	}
	if r.Password == "" {
		verr.Add("password", "is required")
	}
	return verr.OrNil()
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

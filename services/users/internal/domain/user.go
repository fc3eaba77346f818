package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Deleted accounts keep their row so that
// email and username stay reserved.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Deleted      bool      `json:"deleted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Sortable user list columns.
const (
	SortByUsername  = "username"
	SortByCreatedAt = "created_at"
)

// UserSortColumns lists the accepted user sort keys, default first.
func UserSortColumns() []string {
	return []string{SortByUsername, SortByCreatedAt}
}

// NewID returns a fresh entity id.
func NewID() string { return uuid.NewString() }

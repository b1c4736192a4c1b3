package domain

import (
	"fmt"
	"time"
)

// Session represents one durable conversation with the assistant. Once
// created it is never mutated except for updated_at and active.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Model     string    `json:"model"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayTitle returns the title, or a fallback for untitled sessions.
func (s *Session) DisplayTitle() string {
	if s.Title == "" {
		return fmt.Sprintf("Session %d", s.ID)
	}
	return s.Title
}

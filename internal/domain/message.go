package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Roles a conversation message can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable turn within a session. Messages are append-only:
// they are never updated or reordered once written.
type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Metadata  string    `json:"metadata_json,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage reports token consumption for one AI exchange.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// MessageMetadata is the structured blob stored alongside a message.
type MessageMetadata struct {
	Type  string `json:"type,omitempty"`
	Model string `json:"model,omitempty"`
	Usage *Usage `json:"usage,omitempty"`
}

// Encode serializes the metadata for storage. Empty metadata encodes to "".
func (m MessageMetadata) Encode() (string, error) {
	if m == (MessageMetadata{}) {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode message metadata: %w", err)
	}
	return string(data), nil
}

// DecodeMessageMetadata parses a stored metadata blob. An empty blob decodes
// to the zero value.
func DecodeMessageMetadata(raw string) (MessageMetadata, error) {
	var m MessageMetadata
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return MessageMetadata{}, fmt.Errorf("decode message metadata: %w", err)
	}
	return m, nil
}

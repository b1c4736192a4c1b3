// Package domain contains core domain types for CodePal.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultModel is the Gemini model used until the profile selects another.
const DefaultModel = "gemini-2.0-flash-exp"

// placeholderAPIKey is the value shipped in .env templates; treated as unset.
const placeholderAPIKey = "your_gemini_api_key_here"

// AvailableModels returns the Gemini models the assistant can run on, in
// selection order. Numeric choices are 1-based indexes into this list.
func AvailableModels() []string {
	return []string{
		"gemini-2.0-flash-exp",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
		"gemini-pro",
	}
}

// IsKnownModel reports whether name is one of the available models.
func IsKnownModel(name string) bool {
	for _, m := range AvailableModels() {
		if m == name {
			return true
		}
	}
	return false
}

// ModelByChoice maps a 1-based numeric selection onto the model list.
func ModelByChoice(input string) (string, error) {
	models := AvailableModels()
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return "", errors.New("enter a valid number")
	}
	if n < 1 || n > len(models) {
		return "", fmt.Errorf("enter a number between 1 and %d", len(models))
	}
	return models[n-1], nil
}

// User is the local profile row holding persisted assistant configuration.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	APIKey     string    `json:"-"`
	Model      string    `json:"model"`
	Configured bool      `json:"configured"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectiveModel returns the profile's model, falling back to the default.
func (u *User) EffectiveModel() string {
	if u.Model == "" {
		return DefaultModel
	}
	return u.Model
}

// HasAPIKey reports whether the profile carries a usable API key.
func (u *User) HasAPIKey() bool {
	return ValidateAPIKey(u.APIKey) == nil
}

// ValidateAPIKey checks a user-supplied Gemini API key for obvious problems.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "" || key == placeholderAPIKey:
		return errors.New("API key is required")
	case len(key) < 10:
		return errors.New("API key seems too short, check it and try again")
	}
	return nil
}

// MaskAPIKey renders a key safe for display, keeping the last four
// characters.
func MaskAPIKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "Not set"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

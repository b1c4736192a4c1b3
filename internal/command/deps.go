package command

import (
	"context"
	"errors"
	"strings"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
	"github.com/ashureev/codepal/internal/domain"
	"github.com/ashureev/codepal/internal/gitops"
	"github.com/ashureev/codepal/internal/store"
)

// Assistant is the conversational surface commands talk to.
type Assistant interface {
	Send(ctx context.Context, req agent.SendRequest) (*agent.Exchange, error)
	Persist(ctx context.Context, ex *agent.Exchange) error
	Sessions(ctx context.Context, limit int) ([]*domain.Session, error)
	Current() *domain.Session
	User() *domain.User
	ReloadProfile(ctx context.Context) error
}

// ProfileStore persists configuration changes.
type ProfileStore interface {
	UpdateUserConfig(ctx context.Context, userID int64, apiKey, model string) error
	UpdateUserModel(ctx context.Context, userID int64, model string) error
}

// Purger deletes all conversation data.
type Purger interface {
	PurgeAll(ctx context.Context) (sessions, messages int64, err error)
}

// Maintenance exposes database upkeep operations.
type Maintenance interface {
	Stats(ctx context.Context) (*store.Stats, error)
	Vacuum(ctx context.Context) error
}

// MessageCounter reports per-session message counts for listings.
type MessageCounter interface {
	CountMessages(ctx context.Context, sessionID int64) (int64, error)
}

// Git is the subset of git plumbing commands need.
type Git interface {
	IsRepo(ctx context.Context) bool
	StagedFiles(ctx context.Context) ([]gitops.FileChange, error)
	StagedDiff(ctx context.Context) (string, error)
	WorkingDiff(ctx context.Context) (string, error)
	StatusShort(ctx context.Context) (string, error)
	RecentSubjects(ctx context.Context, n int) ([]string, error)
	Commit(ctx context.Context, message string) (string, error)
}

// Workspace reads and summarizes project files.
type Workspace interface {
	Summarize(root string) (string, error)
	ReadCodeFile(path string) (string, error)
	WriteDoc(root, name, content string) (string, error)
}

func isYes(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func isNo(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "n", "no":
		return true
	default:
		return false
	}
}

// failFromAI renders an AI-call error as a Done outcome, pointing at /setup
// when the key is missing.
func failFromAI(err error) Outcome {
	if errors.Is(err, ai.ErrNotConfigured) {
		return Fail("No Gemini API key configured. Run /setup to add one.")
	}
	return Fail("AI request failed: " + err.Error())
}

// requireConfigured fails fast before any remote work when no usable API key
// resolves from the profile or the environment. The Outcome is only
// meaningful when ok is false. A nil settings skips the check.
func requireConfigured(ctx context.Context, settings ai.Settings) (out Outcome, ok bool) {
	if settings == nil {
		return Outcome{}, true
	}
	apiKey, _, err := settings.AIConfig(ctx)
	if err != nil || domain.ValidateAPIKey(apiKey) != nil {
		return failFromAI(ai.ErrNotConfigured), false
	}
	return Outcome{}, true
}

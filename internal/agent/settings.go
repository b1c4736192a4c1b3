package agent

import (
	"context"
	"fmt"

	"github.com/ashureev/codepal/internal/domain"
	"github.com/ashureev/codepal/internal/store"
)

// ProfileSettings resolves the API key and model from the stored user
// profile, falling back to environment-supplied values. The stored key wins
// so /setup overrides whatever the process was started with.
type ProfileSettings struct {
	Repo      store.Repository
	Username  string
	EnvAPIKey string
	EnvModel  string
}

// AIConfig implements ai.Settings.
func (p ProfileSettings) AIConfig(ctx context.Context) (string, string, error) {
	user, err := p.Repo.EnsureUser(ctx, p.Username)
	if err != nil {
		return "", "", fmt.Errorf("load user profile: %w", err)
	}

	apiKey := user.APIKey
	if domain.ValidateAPIKey(apiKey) != nil {
		apiKey = p.EnvAPIKey
	}

	model := user.Model
	if model == "" {
		model = p.EnvModel
	}
	return apiKey, model, nil
}

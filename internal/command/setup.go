package command

import (
	"context"
	"fmt"

	"github.com/ashureev/codepal/internal/domain"
)

const apiKeyHelpURL = "https://makersuite.google.com/app/apikey"

const (
	setupPhaseConfirm = "confirm"
	setupPhaseAPIKey  = "api_key"
	setupPhaseModel   = "model"
)

type setupState struct {
	Phase  string
	APIKey string
}

// SetupCommand walks through API key entry and model selection, persisting
// both to the profile.
type SetupCommand struct {
	assistant Assistant
	profiles  ProfileStore
	refresh   func()
}

// NewSetup creates the /setup handler. refresh, when non-nil, is called after
// the configuration changes so the AI client picks up the new credentials.
func NewSetup(assistant Assistant, profiles ProfileStore, refresh func()) *SetupCommand {
	return &SetupCommand{assistant: assistant, profiles: profiles, refresh: refresh}
}

func (c *SetupCommand) Name() string { return "setup" }

func (c *SetupCommand) Help() string { return "Configure your Gemini API key and model" }

func (c *SetupCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		user := c.assistant.User()
		if user.Configured {
			return Outcome{Success: true, Prompt: &Prompt{
				Kind: PromptConfirm,
				Message: fmt.Sprintf("Already configured (key %s, model %s). Reconfigure?",
					domain.MaskAPIKey(user.APIKey), user.EffectiveModel()),
				State: setupState{Phase: setupPhaseConfirm},
			}}, nil
		}
		return c.promptAPIKey(""), nil
	}

	st, ok := req.State.(setupState)
	if !ok {
		return Fail("Setup state was lost. Run /setup again."), nil
	}

	switch st.Phase {
	case setupPhaseConfirm:
		switch {
		case isNo(req.Reply):
			return OK("Keeping the current configuration."), nil
		case isYes(req.Reply):
			return c.promptAPIKey(""), nil
		default:
			return Outcome{Success: true, Prompt: &Prompt{
				Kind:    PromptConfirm,
				Message: "Please answer yes or no. Reconfigure?",
				State:   setupState{Phase: setupPhaseConfirm},
			}}, nil
		}

	case setupPhaseAPIKey:
		key := req.Reply
		if err := domain.ValidateAPIKey(key); err != nil {
			return c.promptAPIKey(err.Error() + "."), nil
		}
		return c.promptModel(key, ""), nil

	case setupPhaseModel:
		model, err := domain.ModelByChoice(req.Reply)
		if err != nil {
			return c.promptModel(st.APIKey, fmt.Sprintf("That is not a valid choice (%s).", err)), nil
		}
		return c.apply(ctx, st.APIKey, model)

	default:
		return Fail("Setup state was lost. Run /setup again."), nil
	}
}

func (c *SetupCommand) promptAPIKey(note string) Outcome {
	msg := "Enter your Gemini API key (get one from " + apiKeyHelpURL + "):"
	if note != "" {
		msg = note + " " + msg
	}
	return Outcome{Success: true, Prompt: &Prompt{
		Kind:    PromptText,
		Message: msg,
		Hint:    "Paste your API key, or press Enter to cancel",
		State:   setupState{Phase: setupPhaseAPIKey},
	}}
}

func (c *SetupCommand) promptModel(apiKey, note string) Outcome {
	msg := fmt.Sprintf("Select the Gemini model (current: %s):", c.assistant.User().EffectiveModel())
	if note != "" {
		msg = note + " " + msg
	}
	return Outcome{Success: true, Prompt: &Prompt{
		Kind:    PromptChoice,
		Message: msg,
		Choices: domain.AvailableModels(),
		State:   setupState{Phase: setupPhaseModel, APIKey: apiKey},
	}}
}

func (c *SetupCommand) apply(ctx context.Context, apiKey, model string) (Outcome, error) {
	user := c.assistant.User()
	if err := c.profiles.UpdateUserConfig(ctx, user.ID, apiKey, model); err != nil {
		return Fail("Could not save the configuration: " + err.Error()), nil
	}
	if err := c.assistant.ReloadProfile(ctx); err != nil {
		return Fail("Configuration saved but reloading the profile failed: " + err.Error()), nil
	}
	if c.refresh != nil {
		c.refresh()
	}
	return Outcome{
		Success: true,
		Message: "Setup complete. Using " + model + ".",
		Payload: map[string]any{
			"model":   model,
			"api_key": domain.MaskAPIKey(apiKey),
		},
	}, nil
}

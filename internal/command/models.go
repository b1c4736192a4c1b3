package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/codepal/internal/domain"
)

type modelsState struct{}

// ModelsCommand shows the available Gemini models and switches the active
// one. It works before any API key is configured.
type ModelsCommand struct {
	assistant Assistant
	profiles  ProfileStore
	refresh   func()
}

// NewModels creates the /models handler. refresh, when non-nil, is called
// after a model change so the AI client rebuilds with the new selection.
func NewModels(assistant Assistant, profiles ProfileStore, refresh func()) *ModelsCommand {
	return &ModelsCommand{assistant: assistant, profiles: profiles, refresh: refresh}
}

func (c *ModelsCommand) Name() string { return "models" }

func (c *ModelsCommand) Help() string { return "Choose the Gemini model for new requests" }

func (c *ModelsCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if !req.Fresh() {
		if _, ok := req.State.(modelsState); !ok {
			return Fail("Model selection state was lost. Run /models again."), nil
		}
		model, err := domain.ModelByChoice(req.Reply)
		if err != nil {
			return c.prompt(fmt.Sprintf("That is not a valid choice (%s).", err)), nil
		}
		return c.apply(ctx, model)
	}

	if len(req.Args) > 0 {
		model := strings.TrimSpace(strings.Join(req.Args, " "))
		if !domain.IsKnownModel(model) {
			return Failf("Unknown model %q. Run /models to pick from the list.", model), nil
		}
		return c.apply(ctx, model)
	}
	return c.prompt(""), nil
}

func (c *ModelsCommand) prompt(note string) Outcome {
	msg := fmt.Sprintf("Select the Gemini model (current: %s):", c.assistant.User().EffectiveModel())
	if note != "" {
		msg = note + " " + msg
	}
	return Outcome{
		Success: true,
		Prompt: &Prompt{
			Kind:    PromptChoice,
			Message: msg,
			Choices: domain.AvailableModels(),
			State:   modelsState{},
		},
	}
}

func (c *ModelsCommand) apply(ctx context.Context, model string) (Outcome, error) {
	user := c.assistant.User()
	if err := c.profiles.UpdateUserModel(ctx, user.ID, model); err != nil {
		return Fail("Could not save the model: " + err.Error()), nil
	}
	if err := c.assistant.ReloadProfile(ctx); err != nil {
		return Fail("Model saved but reloading the profile failed: " + err.Error()), nil
	}
	if c.refresh != nil {
		c.refresh()
	}
	return Outcome{
		Success: true,
		Message: "Model set to " + model + ".",
		Payload: map[string]any{"model": model},
	}, nil
}

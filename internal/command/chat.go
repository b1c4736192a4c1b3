package command

import (
	"context"
	"strings"
	"time"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
)

// chatSystemPrompt frames free-form questions. Kept short since it rides
// along on every exchange.
const chatSystemPrompt = `You are CodePal, an AI coding assistant running in a terminal. Answer programming questions clearly and concisely, in markdown. Prefer short code examples over long prose. When a task maps to one of the CLI commands (/commit for commit messages, /review for code review, /explain for code explanation, /init for project docs), mention the command briefly at the end of your answer.`

// ChatCommand answers free-form input through the session agent. It is the
// registry fallback for lines that do not start with the command prefix.
type ChatCommand struct {
	assistant Assistant
	settings  ai.Settings
}

// NewChat creates the fallback chat handler.
func NewChat(assistant Assistant, settings ai.Settings) *ChatCommand {
	return &ChatCommand{assistant: assistant, settings: settings}
}

func (c *ChatCommand) Name() string { return "chat" }

func (c *ChatCommand) Help() string { return "Ask the assistant anything (no slash needed)" }

func (c *ChatCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	text := strings.TrimSpace(strings.Join(req.Args, " "))
	if text == "" {
		return Fail("Nothing to send."), nil
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}

	ex, err := c.assistant.Send(ctx, agent.SendRequest{
		Text:    text,
		System:  chatSystemPrompt,
		Persist: true,
	})
	if err != nil {
		return failFromAI(err), nil
	}
	return Outcome{Success: true, Payload: map[string]any{
		"response":   ex.Reply.Text,
		"model":      ex.Reply.Model,
		"session_id": ex.SessionID,
	}}, nil
}

func (c *ChatCommand) ProgressHint(req Request) (Hint, bool) {
	return Hint{Label: "assistant", Expected: 30 * time.Second}, true
}

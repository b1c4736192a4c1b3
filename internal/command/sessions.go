package command

import (
	"context"
	"fmt"
	"strings"
)

const sessionListLimit = 10

// SessionsCommand lists recent conversation sessions.
type SessionsCommand struct {
	assistant Assistant
	counter   MessageCounter
}

// NewSessions creates the /sessions handler.
func NewSessions(assistant Assistant, counter MessageCounter) *SessionsCommand {
	return &SessionsCommand{assistant: assistant, counter: counter}
}

func (c *SessionsCommand) Name() string { return "sessions" }

func (c *SessionsCommand) Help() string { return "List recent conversation sessions" }

func (c *SessionsCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	sessions, err := c.assistant.Sessions(ctx, sessionListLimit)
	if err != nil {
		return Fail("Could not list sessions: " + err.Error()), nil
	}
	if len(sessions) == 0 {
		return OK("No sessions yet. Ask a question or run /commit to start one."), nil
	}

	current := c.assistant.Current()

	var b strings.Builder
	b.WriteString("# Recent sessions\n\n")
	b.WriteString("| ID | Title | Model | Messages | Last activity |\n")
	b.WriteString("|---:|-------|-------|---------:|---------------|\n")
	for _, sess := range sessions {
		title := sess.DisplayTitle()
		if current != nil && current.ID == sess.ID {
			title += " (current)"
		}
		count := "-"
		if n, err := c.counter.CountMessages(ctx, sess.ID); err == nil {
			count = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			sess.ID, title, sess.Model, count, sess.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return Outcome{Success: true, Payload: map[string]any{"response": b.String()}}, nil
}

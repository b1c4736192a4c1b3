package command

import (
	"context"
	"fmt"
	"strings"
)

const cleanActionPurge = "purge"

type cleanState struct {
	// Action is empty while picking, cleanActionPurge while the purge
	// confirmation is pending.
	Action string
}

// CleanCommand maintains the local database: purge, statistics, vacuum.
type CleanCommand struct {
	purger Purger
	maint  Maintenance
}

// NewClean creates the /clean handler.
func NewClean(purger Purger, maint Maintenance) *CleanCommand {
	return &CleanCommand{purger: purger, maint: maint}
}

func (c *CleanCommand) Name() string { return "clean" }

func (c *CleanCommand) Help() string { return "Clean or inspect the local database" }

func (c *CleanCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		return c.pick(""), nil
	}
	st, ok := req.State.(cleanState)
	if !ok {
		return Fail("Clean state was lost. Run /clean again."), nil
	}

	if st.Action == cleanActionPurge {
		switch {
		case isYes(req.Reply):
			sessions, messages, err := c.purger.PurgeAll(ctx)
			if err != nil {
				return Fail("Purge failed: " + err.Error()), nil
			}
			return OK(fmt.Sprintf("Deleted %d sessions and %d messages.", sessions, messages)), nil
		case isNo(req.Reply):
			return OK("Nothing deleted."), nil
		default:
			return Outcome{Success: true, Prompt: &Prompt{
				Kind:    PromptConfirm,
				Message: "Please answer yes or no. Delete all sessions and messages?",
				State:   st,
			}}, nil
		}
	}

	switch strings.TrimSpace(req.Reply) {
	case "1":
		return Outcome{Success: true, Prompt: &Prompt{
			Kind:    PromptConfirm,
			Message: "Delete all sessions and messages? This cannot be undone.",
			State:   cleanState{Action: cleanActionPurge},
		}}, nil
	case "2":
		return c.stats(ctx)
	case "3":
		return c.vacuum(ctx)
	default:
		return c.pick("That is not a valid choice."), nil
	}
}

func (c *CleanCommand) pick(note string) Outcome {
	msg := "Database maintenance. What would you like to do?"
	if note != "" {
		msg = note + " " + msg
	}
	return Outcome{Success: true, Prompt: &Prompt{
		Kind:    PromptChoice,
		Message: msg,
		Choices: []string{
			"Delete all sessions and messages",
			"Show database statistics",
			"Compact the database file (VACUUM)",
		},
		State: cleanState{},
	}}
}

func (c *CleanCommand) stats(ctx context.Context) (Outcome, error) {
	stats, err := c.maint.Stats(ctx)
	if err != nil {
		return Fail("Could not read database statistics: " + err.Error()), nil
	}
	var b strings.Builder
	b.WriteString("# Database statistics\n\n")
	fmt.Fprintf(&b, "- Sessions: %d\n", stats.Sessions)
	fmt.Fprintf(&b, "- Messages: %d\n", stats.Messages)
	fmt.Fprintf(&b, "- File size: %s\n", formatBytes(stats.SizeBytes))
	if !stats.Oldest.IsZero() {
		fmt.Fprintf(&b, "- Oldest message: %s\n", stats.Oldest.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "- Newest message: %s\n", stats.Newest.Format("2006-01-02 15:04"))
	}
	return Outcome{Success: true, Payload: map[string]any{"response": b.String()}}, nil
}

func (c *CleanCommand) vacuum(ctx context.Context) (Outcome, error) {
	before, err := c.maint.Stats(ctx)
	if err != nil {
		return Fail("Could not read database statistics: " + err.Error()), nil
	}
	if err := c.maint.Vacuum(ctx); err != nil {
		return Fail("Vacuum failed: " + err.Error()), nil
	}
	after, err := c.maint.Stats(ctx)
	if err != nil {
		return Fail("Vacuum finished but reading statistics failed: " + err.Error()), nil
	}
	reclaimed := before.SizeBytes - after.SizeBytes
	if reclaimed < 0 {
		reclaimed = 0
	}
	return OK(fmt.Sprintf("Vacuum complete. %s -> %s (reclaimed %s).",
		formatBytes(before.SizeBytes), formatBytes(after.SizeBytes), formatBytes(reclaimed))), nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
)

const reviewSystemPrompt = `You are a senior engineer reviewing uncommitted changes. Structure the review in markdown:

## Summary
What the change does, in two or three sentences.

## Issues
Bugs, logic errors and security problems, most serious first. Reference the file and hunk where possible.

## Suggestions
Improvements to clarity, naming, structure and test coverage.

## Verdict
One line: ready to commit, needs minor fixes, or needs rework.

Be specific and concise. Point at the code, not at generalities. If the diff looks fine, say so.`

const (
	reviewDiffMaxChars = 8000
	reviewDiffMaxLines = 150
)

type reviewState struct {
	Exchange *agent.Exchange
}

// ReviewCommand asks the model to review all uncommitted changes. The
// exchange is kept out of the store until the user chooses to save it.
type ReviewCommand struct {
	assistant Assistant
	settings  ai.Settings
	git       Git
}

// NewReview creates the /review handler.
func NewReview(assistant Assistant, settings ai.Settings, git Git) *ReviewCommand {
	return &ReviewCommand{assistant: assistant, settings: settings, git: git}
}

func (c *ReviewCommand) Name() string { return "review" }

func (c *ReviewCommand) Help() string { return "AI code review of your uncommitted changes" }

func (c *ReviewCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		return c.review(ctx)
	}
	st, ok := req.State.(reviewState)
	if !ok || st.Exchange == nil {
		return Fail("Review state was lost. Run /review again."), nil
	}

	switch {
	case isYes(req.Reply):
		if err := c.assistant.Persist(ctx, st.Exchange); err != nil {
			return Fail("Could not save the review: " + err.Error()), nil
		}
		return Outcome{
			Success: true,
			Message: fmt.Sprintf("Review saved to session %d.", st.Exchange.SessionID),
			Payload: map[string]any{"session_id": st.Exchange.SessionID},
		}, nil
	case isNo(req.Reply):
		return OK("Review discarded."), nil
	default:
		return Outcome{Success: true, Prompt: &Prompt{
			Kind:    PromptConfirm,
			Message: "Please answer yes or no. Save this review to your session history?",
			State:   st,
		}}, nil
	}
}

func (c *ReviewCommand) review(ctx context.Context) (Outcome, error) {
	if !c.git.IsRepo(ctx) {
		return Fail("Not a git repository."), nil
	}
	diff, err := c.git.WorkingDiff(ctx)
	if err != nil {
		return Fail("Could not read the working diff: " + err.Error()), nil
	}
	if strings.TrimSpace(diff) == "" {
		return Fail("No changes to review."), nil
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}

	status, _ := c.git.StatusShort(ctx)
	recent, _ := c.git.RecentSubjects(ctx, 3)

	ex, err := c.assistant.Send(ctx, agent.SendRequest{
		Text:       buildReviewPrompt(status, truncateDiff(diff, reviewDiffMaxChars, reviewDiffMaxLines), recent),
		System:     reviewSystemPrompt,
		Title:      "Code review",
		NewSession: true,
		Persist:    false,
	})
	if err != nil {
		return failFromAI(err), nil
	}

	return Outcome{
		Success: true,
		Payload: map[string]any{"response": ex.Reply.Text, "model": ex.Reply.Model},
		Prompt: &Prompt{
			Kind:    PromptConfirm,
			Message: "Save this review to your session history?",
			State:   reviewState{Exchange: ex},
		},
	}, nil
}

func (c *ReviewCommand) ProgressHint(req Request) (Hint, bool) {
	if !req.Fresh() {
		return Hint{}, false
	}
	return Hint{Label: "review", Expected: 45 * time.Second}, true
}

func buildReviewPrompt(status, diff string, recent []string) string {
	var b strings.Builder
	b.WriteString("Review the following uncommitted changes.\n")
	if strings.TrimSpace(status) != "" {
		b.WriteString("\nWorking tree status:\n```\n" + status + "\n```\n")
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent commits:\n")
		for _, s := range recent {
			b.WriteString("- " + s + "\n")
		}
	}
	b.WriteString("\nDiff against HEAD:\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")
	return b.String()
}

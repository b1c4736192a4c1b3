package command

import (
	"context"
	"strings"
	"time"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
)

const commitSystemPrompt = `You are an expert developer writing a git commit message for the staged changes.

Rules:
- Use the conventional commit format: type(scope): description
- Types: feat, fix, docs, style, refactor, test, chore
- Keep the subject line under 72 characters, imperative mood
- Add a short body only when the change needs explanation
- Describe what changed and why, not how

Reply with the commit message only. No surrounding quotes, no code fences, no commentary.`

// The staged diff is bounded before prompting; past the char threshold only
// the leading lines are kept.
const (
	commitDiffMaxChars = 5000
	commitDiffMaxLines = 100
)

type commitState struct {
	Draft string
	Files []string
}

// CommitCommand generates a commit message from the staged diff and commits
// once the user approves the draft.
type CommitCommand struct {
	assistant Assistant
	settings  ai.Settings
	git       Git
}

// NewCommit creates the /commit handler.
func NewCommit(assistant Assistant, settings ai.Settings, git Git) *CommitCommand {
	return &CommitCommand{assistant: assistant, settings: settings, git: git}
}

func (c *CommitCommand) Name() string { return "commit" }

func (c *CommitCommand) Help() string { return "Generate a commit message for staged changes" }

func (c *CommitCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		return c.draft(ctx)
	}
	st, ok := req.State.(commitState)
	if !ok {
		return Fail("Commit state was lost. Run /commit again."), nil
	}

	// The engine resolves the yes/no/edit grammar before this point: the
	// reply is either the literal "yes" or a revised draft.
	if isYes(req.Reply) {
		out, err := c.git.Commit(ctx, st.Draft)
		if err != nil {
			return Fail("Commit failed: " + err.Error()), nil
		}
		return Outcome{
			Success: true,
			Message: "Changes committed.",
			Payload: map[string]any{
				"commit_message": st.Draft,
				"git_output":     out,
			},
		}, nil
	}
	st.Draft = strings.TrimSpace(req.Reply)
	return c.confirm(st), nil
}

func (c *CommitCommand) draft(ctx context.Context) (Outcome, error) {
	if !c.git.IsRepo(ctx) {
		return Fail("Not a git repository."), nil
	}
	staged, err := c.git.StagedFiles(ctx)
	if err != nil {
		return Fail("Could not read the git index: " + err.Error()), nil
	}
	if len(staged) == 0 {
		return Fail("No staged changes. Stage files with git add first."), nil
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}

	diff, err := c.git.StagedDiff(ctx)
	if err != nil {
		return Fail("Could not read the staged diff: " + err.Error()), nil
	}
	// Subjects are style context only; a fresh repository has none.
	recent, _ := c.git.RecentSubjects(ctx, 3)

	files := make([]string, 0, len(staged))
	for _, f := range staged {
		files = append(files, f.Status+" "+f.Path)
	}

	ex, err := c.assistant.Send(ctx, agent.SendRequest{
		Text:       buildCommitPrompt(files, truncateDiff(diff, commitDiffMaxChars, commitDiffMaxLines), recent),
		System:     commitSystemPrompt,
		Title:      "Commit message",
		NewSession: true,
		Persist:    true,
	})
	if err != nil {
		return failFromAI(err), nil
	}

	st := commitState{Draft: cleanDraft(ex.Reply.Text), Files: files}
	if st.Draft == "" {
		return Fail("The model returned an empty commit message. Try again."), nil
	}
	return c.confirm(st), nil
}

func (c *CommitCommand) confirm(st commitState) Outcome {
	var b strings.Builder
	b.WriteString("Proposed commit message:\n\n```\n")
	b.WriteString(st.Draft)
	b.WriteString("\n```\n\nStaged files:\n")
	for _, f := range st.Files {
		b.WriteString("- " + f + "\n")
	}
	return Outcome{
		Success: true,
		Payload: map[string]any{"response": b.String()},
		Prompt: &Prompt{
			Kind:    PromptYesNoEdit,
			Message: "Commit with this message?",
			Hint:    "yes to commit, no to cancel, or type a revised message",
			State:   st,
		},
	}
}

func (c *CommitCommand) ProgressHint(req Request) (Hint, bool) {
	if !req.Fresh() {
		return Hint{}, false
	}
	return Hint{Label: "commit", Expected: 45 * time.Second}, true
}

func buildCommitPrompt(files []string, diff string, recent []string) string {
	var b strings.Builder
	b.WriteString("Write a commit message for these staged changes.\n\nStaged files:\n")
	for _, f := range files {
		b.WriteString(f + "\n")
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent commits for style context:\n")
		for _, s := range recent {
			b.WriteString("- " + s + "\n")
		}
	}
	b.WriteString("\nStaged diff:\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")
	return b.String()
}

// truncateDiff bounds a diff for prompting. Past maxChars, only the first
// maxLines lines survive, hard-capped at maxChars.
func truncateDiff(diff string, maxChars, maxLines int) string {
	if len(diff) <= maxChars {
		return diff
	}
	lines := strings.Split(diff, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	out := strings.Join(lines, "\n")
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out + "\n\n... (diff truncated)"
}

// cleanDraft strips the wrapping the model tends to add around the message:
// code fences first, then matching quotes.
func cleanDraft(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
			s = s[i+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	for _, q := range []byte{'"', '\'', '`'} {
		if len(s) >= 2 && s[0] == q && s[len(s)-1] == q {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

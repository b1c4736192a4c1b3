package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
)

const docsSystemPrompt = `You are a technical writer creating documentation for a software project from a structural summary.

Write a complete, professional README.md in markdown with:
- Project title and a short description
- Features or capabilities, as far as the summary supports them
- Installation and usage instructions appropriate to the language and tooling
- A project structure overview
- A contributing section

Ground everything in the summary. Where the summary is silent, keep the section generic rather than inventing specifics. Reply with the README content only.`

// Summary caps keep the prompt and the analysis file bounded on big trees.
const (
	initPromptSummaryMax = 4000
	initDocSummaryMax    = 6000
)

type initState struct{}

// InitCommand analyzes a project directory and writes README.md and
// PROJECT_ANALYSIS.md into it.
type InitCommand struct {
	assistant Assistant
	settings  ai.Settings
	workspace Workspace
}

// NewInit creates the /init handler.
func NewInit(assistant Assistant, settings ai.Settings, workspace Workspace) *InitCommand {
	return &InitCommand{assistant: assistant, settings: settings, workspace: workspace}
}

func (c *InitCommand) Name() string { return "init" }

func (c *InitCommand) Help() string { return "Generate README and project analysis docs" }

func (c *InitCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		if len(req.Args) > 0 {
			return c.generate(ctx, strings.Join(req.Args, " "))
		}
		return Outcome{Success: true, Prompt: &Prompt{
			Kind:    PromptText,
			Message: "Which directory should I document? Use '.' for the current directory.",
			State:   initState{},
		}}, nil
	}
	if _, ok := req.State.(initState); !ok {
		return Fail("Init state was lost. Run /init again."), nil
	}
	return c.generate(ctx, req.Reply)
}

func (c *InitCommand) generate(ctx context.Context, path string) (Outcome, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "current" {
		path = "."
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}

	summary, err := c.workspace.Summarize(path)
	if err != nil {
		return Fail("Could not analyze the project: " + err.Error()), nil
	}

	ex, err := c.assistant.Send(ctx, agent.SendRequest{
		Text:       "Create a README.md for this project.\n\n" + clip(summary, initPromptSummaryMax),
		System:     docsSystemPrompt,
		Title:      "Project docs: " + path,
		NewSession: true,
		Persist:    true,
	})
	if err != nil {
		return failFromAI(err), nil
	}

	readmePath, err := c.workspace.WriteDoc(path, "README.md", ex.Reply.Text)
	if err != nil {
		return Fail("Could not write README.md: " + err.Error()), nil
	}

	analysisPath, err := c.workspace.WriteDoc(path, "PROJECT_ANALYSIS.md", buildAnalysisDoc(summary, ex))
	if err != nil {
		return Outcome{
			Success: true,
			Message: "README.md written, but PROJECT_ANALYSIS.md failed: " + err.Error(),
			Payload: map[string]any{"files_created": []string{readmePath}},
		}, nil
	}

	return Outcome{
		Success: true,
		Message: "Project documentation generated.",
		Payload: map[string]any{
			"files_created": []string{readmePath, analysisPath},
			"model":         ex.Reply.Model,
			"session_id":    ex.SessionID,
		},
	}, nil
}

func (c *InitCommand) ProgressHint(req Request) (Hint, bool) {
	if req.Fresh() && len(req.Args) == 0 {
		return Hint{}, false
	}
	return Hint{Label: "docs", Expected: 60 * time.Second}, true
}

func buildAnalysisDoc(summary string, ex *agent.Exchange) string {
	var b strings.Builder
	b.WriteString("# Project Analysis\n\nGenerated by CodePal.\n\n")
	b.WriteString(clip(summary, initDocSummaryMax))
	fmt.Fprintf(&b, "\n\n---\nModel: %s\nSession: %d\nGenerated: %s\n",
		ex.Reply.Model, ex.SessionID, time.Now().Format(time.RFC3339))
	return b.String()
}

// clip truncates s to at most n bytes, cutting on a line boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n... (truncated)"
}

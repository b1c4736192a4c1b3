package command

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
)

// The explain prompts ask for markdown so the terminal renderer can do its
// job.
const explainSnippetPrompt = `You are an experienced engineer explaining code to a colleague. Answer in markdown with these sections:

## Overview
What the code does and where it would be used.

## How it works
The important parts, step by step. Name the algorithms, patterns and language features involved.

## Pitfalls
Bugs, edge cases, performance or security concerns worth knowing about.

Keep it accurate and practical. Use short code excerpts when they help.`

const explainFilePrompt = `You are an experienced engineer explaining a source file to a colleague. Answer in markdown with these sections:

## Purpose
What the file is for and its likely role in the project.

## Structure
The main declarations and how they fit together.

## Details worth knowing
Non-obvious logic, dependencies, error handling, anything surprising.

Keep it accurate and practical. Use short code excerpts when they help.`

const explainProjectPrompt = `You are a software architect reading a project summary. Answer in markdown with these sections:

## What this project is
Purpose, language and technology stack.

## Layout
What the main directories and files are for, and the architectural pattern they follow.

## Observations
Conventions followed or missing, and where a new contributor should start reading.

Base every statement on the summary provided. Do not invent files.`

const (
	explainStagePick  = "pick"
	explainStagePaste = "paste"
	explainStageFile  = "file"
)

type explainState struct {
	Stage string
}

// ExplainCommand explains a pasted snippet, a file from disk, or the layout
// of the current project.
type ExplainCommand struct {
	assistant Assistant
	settings  ai.Settings
	workspace Workspace
}

// NewExplain creates the /explain handler.
func NewExplain(assistant Assistant, settings ai.Settings, workspace Workspace) *ExplainCommand {
	return &ExplainCommand{assistant: assistant, settings: settings, workspace: workspace}
}

func (c *ExplainCommand) Name() string { return "explain" }

func (c *ExplainCommand) Help() string { return "Explain code: a snippet, a file, or this project" }

func (c *ExplainCommand) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Fresh() {
		if len(req.Args) > 0 {
			return c.explainFile(ctx, strings.Join(req.Args, " "))
		}
		return c.pick(""), nil
	}

	st, ok := req.State.(explainState)
	if !ok {
		return Fail("Explain state was lost. Run /explain again."), nil
	}
	switch st.Stage {
	case explainStagePick:
		switch strings.TrimSpace(req.Reply) {
		case "1":
			return Outcome{Success: true, Prompt: &Prompt{
				Kind:    PromptText,
				Message: "Paste the code to explain:",
				State:   explainState{Stage: explainStagePaste},
			}}, nil
		case "2":
			return Outcome{Success: true, Prompt: &Prompt{
				Kind:    PromptText,
				Message: "Enter the path of the file to explain:",
				State:   explainState{Stage: explainStageFile},
			}}, nil
		case "3":
			return c.explainProject(ctx)
		default:
			return c.pick("That is not a valid choice."), nil
		}
	case explainStagePaste:
		return c.explainSnippet(ctx, req.Reply)
	case explainStageFile:
		return c.explainFile(ctx, req.Reply)
	default:
		return Fail("Explain state was lost. Run /explain again."), nil
	}
}

func (c *ExplainCommand) pick(note string) Outcome {
	msg := "What should I explain?"
	if note != "" {
		msg = note + " " + msg
	}
	return Outcome{Success: true, Prompt: &Prompt{
		Kind:    PromptChoice,
		Message: msg,
		Choices: []string{
			"Paste a code snippet",
			"A file from disk",
			"This project's structure",
		},
		State: explainState{Stage: explainStagePick},
	}}
}

func (c *ExplainCommand) explainSnippet(ctx context.Context, code string) (Outcome, error) {
	if strings.TrimSpace(code) == "" {
		return Fail("No code provided."), nil
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}
	prompt := "Explain this code:\n\n```\n" + code + "\n```"
	return c.send(ctx, prompt, explainSnippetPrompt, "Code explanation")
}

func (c *ExplainCommand) explainFile(ctx context.Context, path string) (Outcome, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Fail("No file path provided."), nil
	}
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}
	content, err := c.workspace.ReadCodeFile(path)
	if err != nil {
		return Fail("Could not read the file: " + err.Error()), nil
	}
	prompt := fmt.Sprintf("Explain this file.\n\nPath: %s\n\n```\n%s\n```", path, content)
	return c.send(ctx, prompt, explainFilePrompt, "File analysis: "+filepath.Base(path))
}

func (c *ExplainCommand) explainProject(ctx context.Context) (Outcome, error) {
	if out, ok := requireConfigured(ctx, c.settings); !ok {
		return out, nil
	}
	summary, err := c.workspace.Summarize(".")
	if err != nil {
		return Fail("Could not analyze the project: " + err.Error()), nil
	}
	prompt := "Explain how this project is organized.\n\n" + summary
	return c.send(ctx, prompt, explainProjectPrompt, "Project analysis")
}

func (c *ExplainCommand) send(ctx context.Context, prompt, system, title string) (Outcome, error) {
	ex, err := c.assistant.Send(ctx, agent.SendRequest{
		Text:       prompt,
		System:     system,
		Title:      title,
		NewSession: true,
		Persist:    true,
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

func (c *ExplainCommand) ProgressHint(req Request) (Hint, bool) {
	if req.Fresh() {
		if len(req.Args) > 0 {
			return Hint{Label: "analyze", Expected: 45 * time.Second}, true
		}
		return Hint{}, false
	}
	st, ok := req.State.(explainState)
	if !ok {
		return Hint{}, false
	}
	switch st.Stage {
	case explainStagePick:
		return Hint{Label: "analyze", Expected: 45 * time.Second}, strings.TrimSpace(req.Reply) == "3"
	case explainStagePaste:
		return Hint{Label: "explain", Expected: 45 * time.Second}, true
	case explainStageFile:
		return Hint{Label: "analyze", Expected: 45 * time.Second}, true
	default:
		return Hint{}, false
	}
}

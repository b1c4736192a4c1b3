package command

import (
	"context"
	"strings"
	"testing"
)

func TestExplainCommand_PickFlow(t *testing.T) {
	assistant := newFakeAssistant()
	workspace := newFakeWorkspace()
	workspace.files["main.go"] = "package main\n\nfunc main() {}\n"
	cmd := NewExplain(assistant, configuredSettings(), workspace)
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptChoice {
		t.Fatalf("Expected a choice prompt, got %+v", out)
	}
	if len(out.Prompt.Choices) != 3 {
		t.Fatalf("Expected 3 choices, got %v", out.Prompt.Choices)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "2", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptText {
		t.Fatalf("Expected a file path prompt, got %+v", out)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "main.go", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success || out.NeedsInput() {
		t.Fatalf("Expected terminal success, got %+v", out)
	}
	if len(assistant.sends) != 1 {
		t.Fatalf("Expected 1 AI call, got %d", len(assistant.sends))
	}
	if !strings.Contains(assistant.sends[0].Text, "package main") {
		t.Error("Expected the file content in the prompt")
	}
	if assistant.sends[0].System != explainFilePrompt {
		t.Error("Expected the file-analysis system prompt")
	}
	if got := out.Payload["response"]; got != "canned answer" {
		t.Errorf("Expected the reply in the payload, got %v", got)
	}
}

func TestExplainCommand_PasteFlow(t *testing.T) {
	assistant := newFakeAssistant()
	cmd := NewExplain(assistant, configuredSettings(), newFakeWorkspace())
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	out, err = cmd.Execute(ctx, Request{Reply: "1", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptText {
		t.Fatalf("Expected a paste prompt, got %+v", out)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "def f(): pass", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("Expected success, got %+v", out)
	}
	if assistant.sends[0].System != explainSnippetPrompt {
		t.Error("Expected the snippet system prompt")
	}
}

func TestExplainCommand_ProjectFlow(t *testing.T) {
	assistant := newFakeAssistant()
	workspace := newFakeWorkspace()
	workspace.summary = "Project: demo\nFiles: 3 Go files"
	cmd := NewExplain(assistant, configuredSettings(), workspace)
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	out, err = cmd.Execute(ctx, Request{Reply: "3", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success || out.NeedsInput() {
		t.Fatalf("Expected terminal success, got %+v", out)
	}
	if !strings.Contains(assistant.sends[0].Text, "Project: demo") {
		t.Error("Expected the project summary in the prompt")
	}
}

func TestExplainCommand_InlineFileArgument(t *testing.T) {
	assistant := newFakeAssistant()
	workspace := newFakeWorkspace()
	workspace.files["pkg/util.go"] = "package pkg"
	cmd := NewExplain(assistant, configuredSettings(), workspace)

	out, err := cmd.Execute(context.Background(), Request{Args: []string{"pkg/util.go"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("Expected success, got %+v", out)
	}
	if assistant.sends[0].Title != "File analysis: util.go" {
		t.Errorf("Expected the file name in the session title, got %q", assistant.sends[0].Title)
	}
}

func TestExplainCommand_UnreadableFileFails(t *testing.T) {
	assistant := newFakeAssistant()
	cmd := NewExplain(assistant, configuredSettings(), newFakeWorkspace())

	out, err := cmd.Execute(context.Background(), Request{Args: []string{"missing.go"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Success {
		t.Fatal("Expected failure for an unreadable file")
	}
	if len(assistant.sends) != 0 {
		t.Error("Expected no AI call when the file cannot be read")
	}
}

func TestExplainCommand_InvalidChoiceReprompts(t *testing.T) {
	cmd := NewExplain(newFakeAssistant(), configuredSettings(), newFakeWorkspace())
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	out, err = cmd.Execute(ctx, Request{Reply: "7", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptChoice {
		t.Fatalf("Expected the choice prompt again, got %+v", out)
	}
}

func TestExplainCommand_ProgressHint(t *testing.T) {
	cmd := NewExplain(newFakeAssistant(), configuredSettings(), newFakeWorkspace())

	if _, slow := cmd.ProgressHint(Request{}); slow {
		t.Error("Expected no animation for the fresh choice prompt")
	}
	if hint, slow := cmd.ProgressHint(Request{Args: []string{"main.go"}}); !slow || hint.Label != "analyze" {
		t.Errorf("Expected an analyze hint for an inline file, got %+v/%v", hint, slow)
	}
	if _, slow := cmd.ProgressHint(Request{Reply: "2", State: explainState{Stage: explainStagePick}}); slow {
		t.Error("Expected no animation when picking leads to another prompt")
	}
	if hint, slow := cmd.ProgressHint(Request{Reply: "3", State: explainState{Stage: explainStagePick}}); !slow || hint.Label != "analyze" {
		t.Errorf("Expected an analyze hint for the project choice, got %+v/%v", hint, slow)
	}
	if hint, slow := cmd.ProgressHint(Request{Reply: "code", State: explainState{Stage: explainStagePaste}}); !slow || hint.Label != "explain" {
		t.Errorf("Expected an explain hint for pasted code, got %+v/%v", hint, slow)
	}
}

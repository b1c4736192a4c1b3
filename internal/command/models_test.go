package command

import (
	"context"
	"reflect"
	"testing"

	"github.com/ashureev/codepal/internal/domain"
)

func TestModelsCommand_ChoiceFlow(t *testing.T) {
	assistant := newFakeAssistant()
	assistant.user.Configured = false
	assistant.user.Model = ""
	profiles := &fakeProfiles{}
	refreshed := 0
	cmd := NewModels(assistant, profiles, func() { refreshed++ })
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() {
		t.Fatal("Expected a choice prompt")
	}
	if out.Prompt.Kind != PromptChoice {
		t.Fatalf("Expected choice prompt, got %s", out.Prompt.Kind)
	}
	want := []string{"gemini-2.0-flash-exp", "gemini-1.5-pro", "gemini-1.5-flash", "gemini-pro"}
	if !reflect.DeepEqual(out.Prompt.Choices, want) {
		t.Fatalf("Expected choices %v, got %v", want, out.Prompt.Choices)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "2", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.NeedsInput() {
		t.Fatal("Expected a terminal outcome after a valid choice")
	}
	if !out.Success {
		t.Fatalf("Expected success, got failure: %s", out.Message)
	}
	if got := out.Payload["model"]; got != "gemini-1.5-pro" {
		t.Errorf("Expected payload model gemini-1.5-pro, got %v", got)
	}
	if profiles.model != "gemini-1.5-pro" {
		t.Errorf("Expected model persisted, got %q", profiles.model)
	}
	if assistant.reloads != 1 {
		t.Errorf("Expected 1 profile reload, got %d", assistant.reloads)
	}
	if refreshed != 1 {
		t.Errorf("Expected the AI client refresh hook to run once, got %d", refreshed)
	}
}

func TestModelsCommand_InvalidReplyReprompts(t *testing.T) {
	cmd := NewModels(newFakeAssistant(), &fakeProfiles{}, nil)
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, reply := range []string{"abc", "0", "9"} {
		next, err := cmd.Execute(ctx, Request{Reply: reply, State: out.Prompt.State})
		if err != nil {
			t.Fatalf("Execute(%q) failed: %v", reply, err)
		}
		if !next.NeedsInput() {
			t.Fatalf("Expected a re-prompt for reply %q, got terminal outcome", reply)
		}
		if next.Prompt.Kind != PromptChoice {
			t.Errorf("Expected choice re-prompt for %q, got %s", reply, next.Prompt.Kind)
		}
	}
}

func TestModelsCommand_InlineArgument(t *testing.T) {
	assistant := newFakeAssistant()
	profiles := &fakeProfiles{}
	cmd := NewModels(assistant, profiles, nil)
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{Args: []string{"gemini-1.5-flash"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success || out.NeedsInput() {
		t.Fatalf("Expected immediate success, got %+v", out)
	}
	if profiles.model != "gemini-1.5-flash" {
		t.Errorf("Expected model persisted, got %q", profiles.model)
	}

	out, err = cmd.Execute(ctx, Request{Args: []string{"gpt-4"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Success {
		t.Error("Expected failure for an unknown model name")
	}
}

func TestModelsCommand_PromptMentionsCurrentModel(t *testing.T) {
	assistant := newFakeAssistant()
	assistant.user.Model = "gemini-1.5-pro"
	cmd := NewModels(assistant, &fakeProfiles{}, nil)

	out, err := cmd.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	wantMsg := "Select the Gemini model (current: gemini-1.5-pro):"
	if out.Prompt.Message != wantMsg {
		t.Errorf("Expected prompt %q, got %q", wantMsg, out.Prompt.Message)
	}
	// The choices stay bare model names so numeric selection maps 1-based
	// onto domain.AvailableModels.
	if !reflect.DeepEqual(out.Prompt.Choices, domain.AvailableModels()) {
		t.Errorf("Expected unannotated model choices, got %v", out.Prompt.Choices)
	}
}

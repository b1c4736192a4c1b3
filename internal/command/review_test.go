package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/codepal/internal/ai"
)

func dirtyRepo() *fakeGit {
	return &fakeGit{
		repo:     true,
		workDiff: "diff --git a/main.go b/main.go\n-old\n+new",
		status:   " M main.go",
		subjects: []string{"chore: earlier work"},
	}
}

func TestReviewCommand_NoChanges(t *testing.T) {
	cmd := NewReview(newFakeAssistant(), configuredSettings(), &fakeGit{repo: true, workDiff: "  \n"})

	out, err := cmd.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Success || out.Message != "No changes to review." {
		t.Errorf("Expected no-changes failure, got %+v", out)
	}
}

func TestReviewCommand_SaveOnConfirm(t *testing.T) {
	assistant := newFakeAssistant()
	assistant.reply = &ai.Reply{Text: "## Summary\nLooks fine.", Model: "gemini-pro"}
	cmd := NewReview(assistant, configuredSettings(), dirtyRepo())
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptConfirm {
		t.Fatalf("Expected a confirm prompt, got %+v", out)
	}
	if got := out.Payload["response"]; got != "## Summary\nLooks fine." {
		t.Errorf("Expected the review text in the payload, got %v", got)
	}
	if len(assistant.sends) != 1 {
		t.Fatalf("Expected 1 AI call, got %d", len(assistant.sends))
	}
	if assistant.sends[0].Persist {
		t.Error("Expected the review exchange to stay unpersisted until confirmed")
	}
	if assistant.persists != 0 {
		t.Errorf("Expected no persist before the confirmation, got %d", assistant.persists)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "yes", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success || out.NeedsInput() {
		t.Fatalf("Expected terminal success, got %+v", out)
	}
	if assistant.persists != 1 {
		t.Errorf("Expected exactly one persist, got %d", assistant.persists)
	}
	if !strings.Contains(out.Message, "saved to session 7") {
		t.Errorf("Expected the session id in the message, got %q", out.Message)
	}
}

func TestReviewCommand_DiscardOnNo(t *testing.T) {
	assistant := newFakeAssistant()
	cmd := NewReview(assistant, configuredSettings(), dirtyRepo())
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "no", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success || out.Message != "Review discarded." {
		t.Errorf("Expected discard outcome, got %+v", out)
	}
	if assistant.persists != 0 {
		t.Errorf("Expected no persist after discarding, got %d", assistant.persists)
	}
}

func TestReviewCommand_InvalidReplyReprompts(t *testing.T) {
	assistant := newFakeAssistant()
	cmd := NewReview(assistant, configuredSettings(), dirtyRepo())
	ctx := context.Background()

	out, err := cmd.Execute(ctx, Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out, err = cmd.Execute(ctx, Request{Reply: "maybe", State: out.Prompt.State})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.NeedsInput() || out.Prompt.Kind != PromptConfirm {
		t.Fatalf("Expected a confirm re-prompt, got %+v", out)
	}
	if assistant.persists != 0 {
		t.Error("Expected no persist on an invalid reply")
	}
}

func TestReviewCommand_SendErrorFails(t *testing.T) {
	assistant := newFakeAssistant()
	assistant.sendErr = errors.New("deadline exceeded")
	cmd := NewReview(assistant, configuredSettings(), dirtyRepo())

	out, err := cmd.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Success || out.NeedsInput() {
		t.Fatalf("Expected terminal failure, got %+v", out)
	}
	if !strings.Contains(out.Message, "deadline exceeded") {
		t.Errorf("Expected the error text, got %q", out.Message)
	}
}

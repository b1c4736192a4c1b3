package ai

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/ashureev/codepal/internal/domain"
)

type staticSettings struct {
	apiKey string
	model  string
	err    error
}

func (s staticSettings) AIConfig(ctx context.Context) (string, string, error) {
	return s.apiKey, s.model, s.err
}

func TestGemini_Generate_NotConfigured(t *testing.T) {
	cases := []struct {
		name   string
		apiKey string
	}{
		{"empty key", ""},
		{"placeholder key", "your_gemini_api_key_here"},
		{"short key", "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGemini(staticSettings{apiKey: tc.apiKey}, DefaultGeminiConfig(), nil)
			_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
			if !errors.Is(err, ErrNotConfigured) {
				t.Errorf("Expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestGemini_Generate_SettingsError(t *testing.T) {
	wantErr := errors.New("database gone")
	g := NewGemini(staticSettings{err: wantErr}, DefaultGeminiConfig(), nil)

	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected settings error to propagate, got %v", err)
	}
}

func TestBuildContents_RoleMapping(t *testing.T) {
	req := GenerateRequest{
		Prompt: "next question",
		History: []Turn{
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleAssistant, Content: "answer"},
		},
	}

	contents := buildContents(req)
	if len(contents) != 3 {
		t.Fatalf("Expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != string(genai.RoleUser) {
		t.Errorf("Expected history user turn role %q, got %q", genai.RoleUser, contents[0].Role)
	}
	if contents[1].Role != string(genai.RoleModel) {
		t.Errorf("Expected history assistant turn role %q, got %q", genai.RoleModel, contents[1].Role)
	}
	if contents[2].Role != string(genai.RoleUser) {
		t.Errorf("Expected prompt role %q, got %q", genai.RoleUser, contents[2].Role)
	}
}

func TestBuildContents_NoHistory(t *testing.T) {
	contents := buildContents(GenerateRequest{Prompt: "solo"})
	if len(contents) != 1 {
		t.Fatalf("Expected 1 content, got %d", len(contents))
	}
}

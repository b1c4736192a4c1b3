package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/ashureev/codepal/internal/domain"
)

// Settings supplies the API key and model to use for the next request.
type Settings interface {
	AIConfig(ctx context.Context) (apiKey, model string, err error)
}

// GeminiConfig holds tunables for the Gemini client.
type GeminiConfig struct {
	RequestTimeout time.Duration
}

// DefaultGeminiConfig returns production defaults.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{RequestTimeout: 90 * time.Second}
}

// Gemini talks to the Gemini API. The underlying client is created lazily
// from Settings and cached until Refresh.
type Gemini struct {
	settings Settings
	cfg      GeminiConfig
	log      *slog.Logger

	mu     sync.Mutex
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client backed by the given settings source.
func NewGemini(settings Settings, cfg GeminiConfig, log *slog.Logger) *Gemini {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultGeminiConfig().RequestTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gemini{settings: settings, cfg: cfg, log: log}
}

// Refresh drops the cached client so the next Generate re-reads settings.
func (g *Gemini) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = nil
	g.model = ""
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, g.model, nil
	}

	apiKey, model, err := g.settings.AIConfig(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load AI settings: %w", err)
	}
	if err := domain.ValidateAPIKey(apiKey); err != nil {
		return nil, "", ErrNotConfigured
	}
	if model == "" {
		model = domain.DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create gemini client: %w", err)
	}

	g.client = client
	g.model = model
	return client, model, nil
}

// Generate sends one prompt, replaying history, and returns the reply text
// with token usage.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (*Reply, error) {
	client, model, err := g.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	contents := buildContents(req)

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	started := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		g.log.Error("gemini request failed", "model", model, "elapsed", time.Since(started), "error", err)
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	reply := &Reply{
		Text:  strings.TrimSpace(resp.Text()),
		Model: model,
	}
	if md := resp.UsageMetadata; md != nil {
		reply.Usage = domain.Usage{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
		}
	}

	g.log.Info("gemini request completed",
		"model", model,
		"elapsed", time.Since(started),
		"prompt_tokens", reply.Usage.PromptTokens,
		"completion_tokens", reply.Usage.CompletionTokens,
	)
	return reply, nil
}

func buildContents(req GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	return contents
}

// Package agent composes the AI client with session persistence. It owns the
// current-session pointer and enforces the user-then-assistant append order
// for every successful exchange.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/codepal/internal/ai"
	"github.com/ashureev/codepal/internal/domain"
	"github.com/ashureev/codepal/internal/store"
)

const titleMaxRunes = 48

// SendRequest describes one exchange with the model.
type SendRequest struct {
	// Text is the user's message.
	Text string
	// System is an optional instruction for this request only.
	System string
	// Title is used when the send has to create a new session.
	Title string
	// NewSession starts a fresh session for this exchange instead of
	// appending to the current one. No history is replayed.
	NewSession bool
	// Persist controls whether the exchange is saved immediately. When
	// false the caller receives the Exchange and may save it later via
	// Persist.
	Persist bool
}

// Exchange is one completed request/reply pair. An unpersisted Exchange can
// be saved later with Agent.Persist.
type Exchange struct {
	SessionID  int64
	UserText   string
	System     string
	Title      string
	NewSession bool
	Reply      *ai.Reply
	RequestID  string
	saved      bool
}

// Agent manages conversations: it replays history into each AI call and
// appends both sides of the exchange after the call succeeds.
type Agent struct {
	repo    store.Repository
	client  ai.Client
	convlog ConversationLogger
	log     *slog.Logger

	user    *domain.User
	current *domain.Session
}

// New creates an Agent for the given user profile.
func New(repo store.Repository, client ai.Client, user *domain.User, convlog ConversationLogger, log *slog.Logger) *Agent {
	if convlog == nil {
		convlog = noopConversationLogger{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Agent{repo: repo, client: client, convlog: convlog, log: log, user: user}
}

// User returns the active profile.
func (a *Agent) User() *domain.User {
	return a.user
}

// Current returns the session new exchanges append to, or nil.
func (a *Agent) Current() *domain.Session {
	return a.current
}

// ReloadProfile re-reads the user row, picking up configuration changes made
// by /setup or /models.
func (a *Agent) ReloadProfile(ctx context.Context) error {
	user, err := a.repo.EnsureUser(ctx, a.user.Username)
	if err != nil {
		return fmt.Errorf("reload profile: %w", err)
	}
	a.user = user
	return nil
}

// StartSession creates a new session and binds it as current.
func (a *Agent) StartSession(ctx context.Context, title string) (*domain.Session, error) {
	sess, err := a.repo.CreateSession(ctx, a.user.ID, title, a.user.EffectiveModel())
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	a.current = sess
	a.log.Info("session started", "session_id", sess.ID, "model", sess.Model, "title", sess.Title)
	return sess, nil
}

// Send performs one exchange with the model. History from the current
// session is replayed in order. Nothing is written to the store unless the
// remote call succeeds; on failure the message log is untouched.
func (a *Agent) Send(ctx context.Context, req SendRequest) (*Exchange, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.New("message text is empty")
	}

	newSession := req.NewSession
	if req.Persist && (a.current == nil || newSession) {
		if _, err := a.StartSession(ctx, sessionTitle(req.Title, text)); err != nil {
			return nil, err
		}
		newSession = false
	}

	var history []ai.Turn
	if a.current != nil && !req.NewSession {
		messages, err := a.repo.ListMessages(ctx, a.current.ID)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		history = historyTurns(messages)
	}

	reqID := uuid.NewString()
	a.convlog.Log(ConversationLogEvent{
		UserID:     a.user.Username,
		SessionID:  a.sessionLabel(),
		Channel:    "cli",
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: text,
		Meta:       map[string]any{"request_id": reqID},
	})

	reply, err := a.client.Generate(ctx, ai.GenerateRequest{
		System:  req.System,
		Prompt:  text,
		History: history,
	})
	if err != nil {
		a.convlog.Log(ConversationLogEvent{
			UserID:     a.user.Username,
			SessionID:  a.sessionLabel(),
			Channel:    "cli",
			Direction:  "inbound",
			EventType:  "chat_error",
			ContentRaw: err.Error(),
			Meta:       map[string]any{"request_id": reqID},
		})
		return nil, err
	}

	a.convlog.Log(ConversationLogEvent{
		UserID:     a.user.Username,
		SessionID:  a.sessionLabel(),
		Channel:    "cli",
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: reply.Text,
		Meta: map[string]any{
			"request_id":        reqID,
			"model":             reply.Model,
			"prompt_tokens":     reply.Usage.PromptTokens,
			"completion_tokens": reply.Usage.CompletionTokens,
		},
	})

	ex := &Exchange{
		UserText:   text,
		System:     req.System,
		Title:      sessionTitle(req.Title, text),
		NewSession: newSession,
		Reply:      reply,
		RequestID:  reqID,
	}
	if a.current != nil {
		ex.SessionID = a.current.ID
	}

	if req.Persist {
		if err := a.Persist(ctx, ex); err != nil {
			return nil, err
		}
	}
	return ex, nil
}

// Persist appends an exchange to the current session, creating one when none
// is bound or the exchange asked for its own. The user message is written
// first, then the assistant reply.
func (a *Agent) Persist(ctx context.Context, ex *Exchange) error {
	if ex == nil || ex.Reply == nil {
		return errors.New("nothing to persist")
	}
	if ex.saved {
		return nil
	}

	if a.current == nil || ex.NewSession {
		if _, err := a.StartSession(ctx, ex.Title); err != nil {
			return err
		}
		// A retry after a failed append must reuse the session just
		// created, not open another one.
		ex.NewSession = false
	}

	userMeta := ""
	assistantType := ""
	if ex.System != "" {
		meta, err := (&domain.MessageMetadata{Type: "system_message"}).Encode()
		if err != nil {
			return fmt.Errorf("encode user metadata: %w", err)
		}
		userMeta = meta
		assistantType = "system_response"
	}

	if _, err := a.repo.AppendMessage(ctx, &domain.Message{
		SessionID: a.current.ID,
		Role:      domain.RoleUser,
		Content:   ex.UserText,
		Metadata:  userMeta,
	}); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}

	assistantMeta, err := (&domain.MessageMetadata{
		Type:  assistantType,
		Model: ex.Reply.Model,
		Usage: &ex.Reply.Usage,
	}).Encode()
	if err != nil {
		return fmt.Errorf("encode assistant metadata: %w", err)
	}
	if _, err := a.repo.AppendMessage(ctx, &domain.Message{
		SessionID: a.current.ID,
		Role:      domain.RoleAssistant,
		Content:   ex.Reply.Text,
		Metadata:  assistantMeta,
	}); err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}

	a.current.UpdatedAt = time.Now()
	ex.SessionID = a.current.ID
	ex.saved = true
	return nil
}

// Sessions lists the user's sessions, most recently updated first.
func (a *Agent) Sessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	return a.repo.ListSessions(ctx, a.user.ID, limit)
}

// History returns a session's messages in creation order.
func (a *Agent) History(ctx context.Context, sessionID int64) ([]*domain.Message, error) {
	return a.repo.ListMessages(ctx, sessionID)
}

// LoadSession binds an existing session as current.
func (a *Agent) LoadSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	sess, err := a.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %d not found", sessionID)
	}
	if sess.UserID != a.user.ID {
		return nil, fmt.Errorf("session %d belongs to another user", sessionID)
	}
	a.current = sess
	return sess, nil
}

// DeleteSession removes a session and its messages. If it was current, the
// current pointer is cleared.
func (a *Agent) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := a.repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if a.current != nil && a.current.ID == sessionID {
		a.current = nil
	}
	return nil
}

// PurgeAll removes every session and message and clears the current pointer.
func (a *Agent) PurgeAll(ctx context.Context) (sessions, messages int64, err error) {
	sessions, messages, err = a.repo.PurgeSessions(ctx)
	if err != nil {
		return 0, 0, err
	}
	a.current = nil
	return sessions, messages, nil
}

func (a *Agent) sessionLabel() string {
	if a.current == nil {
		return "pending"
	}
	return strconv.FormatInt(a.current.ID, 10)
}

func historyTurns(messages []*domain.Message) []ai.Turn {
	turns := make([]ai.Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, ai.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

// sessionTitle picks an explicit title or derives one from the first message.
func sessionTitle(title, text string) string {
	if title != "" {
		return title
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes-1]) + "…"
	}
	return string(runes)
}

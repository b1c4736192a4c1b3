package command

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/ashureev/codepal/internal/agent"
	"github.com/ashureev/codepal/internal/ai"
	"github.com/ashureev/codepal/internal/domain"
	"github.com/ashureev/codepal/internal/gitops"
	"github.com/ashureev/codepal/internal/store"
)

// Shared test doubles for the handler tests. Each fake records enough calls
// to assert on and returns canned data.

const testSessionID = 7

type fakeAssistant struct {
	user       *domain.User
	current    *domain.Session
	sessions   []*domain.Session
	reply      *ai.Reply
	sendErr    error
	sends      []agent.SendRequest
	persists   int
	persistErr error
	reloads    int
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{
		user: &domain.User{ID: 1, Username: "local", Model: "gemini-pro", Configured: true},
	}
}

func (f *fakeAssistant) Send(ctx context.Context, req agent.SendRequest) (*agent.Exchange, error) {
	f.sends = append(f.sends, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	reply := f.reply
	if reply == nil {
		reply = &ai.Reply{Text: "canned answer", Model: "gemini-pro"}
	}
	return &agent.Exchange{
		SessionID: testSessionID,
		UserText:  req.Text,
		System:    req.System,
		Title:     req.Title,
		Reply:     reply,
	}, nil
}

func (f *fakeAssistant) Persist(ctx context.Context, ex *agent.Exchange) error {
	f.persists++
	if f.persistErr != nil {
		return f.persistErr
	}
	ex.SessionID = testSessionID
	return nil
}

func (f *fakeAssistant) Sessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	return f.sessions, nil
}

func (f *fakeAssistant) Current() *domain.Session { return f.current }

func (f *fakeAssistant) User() *domain.User { return f.user }

func (f *fakeAssistant) ReloadProfile(ctx context.Context) error {
	f.reloads++
	return nil
}

type fakeSettings struct {
	apiKey string
	model  string
	err    error
}

func (f *fakeSettings) AIConfig(ctx context.Context) (string, string, error) {
	return f.apiKey, f.model, f.err
}

// configuredSettings passes the requireConfigured pre-check.
func configuredSettings() *fakeSettings {
	return &fakeSettings{apiKey: "test-key-1234567890", model: "gemini-pro"}
}

type fakeProfiles struct {
	userID int64
	apiKey string
	model  string
	calls  int
	err    error
}

func (f *fakeProfiles) UpdateUserConfig(ctx context.Context, userID int64, apiKey, model string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.userID, f.apiKey, f.model = userID, apiKey, model
	return nil
}

func (f *fakeProfiles) UpdateUserModel(ctx context.Context, userID int64, model string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.userID, f.model = userID, model
	return nil
}

type fakeGit struct {
	repo       bool
	staged     []gitops.FileChange
	stagedDiff string
	workDiff   string
	status     string
	subjects   []string
	commitOut  string
	commitErr  error
	commits    []string
}

func (f *fakeGit) IsRepo(ctx context.Context) bool { return f.repo }

func (f *fakeGit) StagedFiles(ctx context.Context) ([]gitops.FileChange, error) {
	return f.staged, nil
}

func (f *fakeGit) StagedDiff(ctx context.Context) (string, error) { return f.stagedDiff, nil }

func (f *fakeGit) WorkingDiff(ctx context.Context) (string, error) { return f.workDiff, nil }

func (f *fakeGit) StatusShort(ctx context.Context) (string, error) { return f.status, nil }

func (f *fakeGit) RecentSubjects(ctx context.Context, n int) ([]string, error) {
	return f.subjects, nil
}

func (f *fakeGit) Commit(ctx context.Context, message string) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits = append(f.commits, message)
	return f.commitOut, nil
}

type fakeWorkspace struct {
	summary string
	sumErr  error
	files   map[string]string
	docs    map[string]string
	docErr  error
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		files: make(map[string]string),
		docs:  make(map[string]string),
	}
}

func (f *fakeWorkspace) Summarize(root string) (string, error) {
	if f.sumErr != nil {
		return "", f.sumErr
	}
	return f.summary, nil
}

func (f *fakeWorkspace) ReadCodeFile(path string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", errors.New("read file: no such file")
	}
	return content, nil
}

func (f *fakeWorkspace) WriteDoc(root, name, content string) (string, error) {
	if f.docErr != nil {
		return "", f.docErr
	}
	f.docs[name] = content
	return filepath.Join(root, name), nil
}

type fakePurger struct {
	sessions int64
	messages int64
	err      error
	calls    int
}

func (f *fakePurger) PurgeAll(ctx context.Context) (int64, int64, error) {
	f.calls++
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.sessions, f.messages, nil
}

type fakeMaintenance struct {
	// statsSeq is consumed one element per Stats call; the last element
	// repeats once the queue drains.
	statsSeq  []*store.Stats
	statsErr  error
	vacuumErr error
	vacuums   int
}

func (f *fakeMaintenance) Stats(ctx context.Context) (*store.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if len(f.statsSeq) == 0 {
		return &store.Stats{}, nil
	}
	stats := f.statsSeq[0]
	if len(f.statsSeq) > 1 {
		f.statsSeq = f.statsSeq[1:]
	}
	return stats, nil
}

func (f *fakeMaintenance) Vacuum(ctx context.Context) error {
	f.vacuums++
	return f.vacuumErr
}

// Package gitops shells out to git for the repository-aware commands.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FileChange is one staged file with its status letter (A, M, D, R...).
type FileChange struct {
	Status string
	Path   string
}

// CLI runs git commands in a fixed working directory.
type CLI struct {
	dir string
}

// NewCLI creates a git runner rooted at dir.
func NewCLI(dir string) *CLI {
	return &CLI{dir: dir}
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// IsRepo reports whether the directory is inside a git work tree.
func (g *CLI) IsRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// StagedFiles lists files in the index with their change status.
func (g *CLI) StagedFiles(ctx context.Context) ([]FileChange, error) {
	out, err := g.run(ctx, "diff", "--cached", "--name-status")
	if err != nil {
		return nil, err
	}
	return parseNameStatus(out), nil
}

func parseNameStatus(out string) []FileChange {
	var changes []FileChange
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		// Renames and copies list old and new paths; keep the new one.
		changes = append(changes, FileChange{
			Status: parts[0],
			Path:   parts[len(parts)-1],
		})
	}
	return changes
}

// StagedDiff returns the diff of the index against HEAD.
func (g *CLI) StagedDiff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "--cached")
}

// WorkingDiff returns all uncommitted changes, staged and unstaged.
func (g *CLI) WorkingDiff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "HEAD")
}

// StatusShort returns `git status --short` output.
func (g *CLI) StatusShort(ctx context.Context) (string, error) {
	return g.run(ctx, "status", "--short")
}

// RecentSubjects returns the subjects of the last n commits, newest first.
func (g *CLI) RecentSubjects(ctx context.Context, n int) ([]string, error) {
	out, err := g.run(ctx, "log", "--format=%s", "-n", fmt.Sprintf("%d", n))
	if err != nil {
		// A repository with no commits yet has no log.
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, err
	}
	var subjects []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, nil
}

// Commit commits the staged changes and returns git's own summary line plus
// the short hash.
func (g *CLI) Commit(ctx context.Context, message string) (string, error) {
	out, err := g.run(ctx, "commit", "-m", message)
	if err != nil {
		return "", err
	}
	if hash, hashErr := g.run(ctx, "rev-parse", "--short", "HEAD"); hashErr == nil {
		return fmt.Sprintf("%s\nCommit hash: %s", out, hash), nil
	}
	return out, nil
}

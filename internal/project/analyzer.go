// Package project inspects a directory tree so commands can feed a compact
// summary to the model.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxTreeDepth     = 3
	maxTreeEntries   = 200
	maxCodeFileBytes = 50 * 1024
)

// Directories that add noise without describing the project.
var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"vendor":       true,
}

// Files whose presence says something about the project's stack.
var keyFiles = []string{
	"README.md",
	"go.mod",
	"package.json",
	"requirements.txt",
	"pyproject.toml",
	"setup.py",
	"Cargo.toml",
	"Makefile",
	"Dockerfile",
}

var languageNames = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".rs":   "Rust",
	".java": "Java",
	".rb":   "Ruby",
	".c":    "C",
	".h":    "C header",
	".cpp":  "C++",
	".sh":   "Shell",
	".sql":  "SQL",
	".md":   "Markdown",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
	".html": "HTML",
	".css":  "CSS",
}

// Analyzer walks project directories.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Summarize produces a compact text summary of the tree under root: file
// type counts, notable files, and a depth-limited structure listing.
func (a *Analyzer) Summarize(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("read project path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	counts := map[string]int{}
	var present []string
	for _, name := range keyFiles {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			present = append(present, name)
		}
	}

	var tree []string
	tree = append(tree, filepath.Base(abs)+"/")
	a.walk(root, "", 0, &tree, counts)

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n\n", abs)

	b.WriteString("File types:\n")
	for _, line := range formatCounts(counts) {
		b.WriteString("  " + line + "\n")
	}
	if len(counts) == 0 {
		b.WriteString("  (no files)\n")
	}

	if len(present) > 0 {
		b.WriteString("\nNotable files: " + strings.Join(present, ", ") + "\n")
	}

	b.WriteString("\nStructure:\n")
	for _, line := range tree {
		b.WriteString(line + "\n")
	}
	if len(tree) >= maxTreeEntries {
		b.WriteString("... (listing truncated)\n")
	}

	return b.String(), nil
}

func (a *Analyzer) walk(dir, prefix string, depth int, tree *[]string, counts map[string]int) {
	if depth >= maxTreeDepth || len(*tree) >= maxTreeEntries {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		*tree = append(*tree, prefix+"└── [unreadable]")
		return
	}

	var kept []os.DirEntry
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && name != ".gitignore" {
			continue
		}
		if e.IsDir() && skipDirs[name] {
			continue
		}
		kept = append(kept, e)
	}
	// Directories first, then files, each alphabetically.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return strings.ToLower(kept[i].Name()) < strings.ToLower(kept[j].Name())
	})

	for i, e := range kept {
		if len(*tree) >= maxTreeEntries {
			return
		}
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(kept)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if e.IsDir() {
			*tree = append(*tree, prefix+connector+e.Name()+"/")
			a.walk(filepath.Join(dir, e.Name()), childPrefix, depth+1, tree, counts)
			continue
		}

		ext := strings.ToLower(filepath.Ext(e.Name()))
		counts[ext]++
		size := ""
		if info, err := e.Info(); err == nil {
			size = " (" + formatSize(info.Size()) + ")"
		}
		*tree = append(*tree, prefix+connector+e.Name()+size)
	}
}

func formatCounts(counts map[string]int) []string {
	type entry struct {
		label string
		n     int
	}
	var entries []entry
	for ext, n := range counts {
		label := languageNames[ext]
		if label == "" {
			if ext == "" {
				label = "no extension"
			} else {
				label = ext
			}
		}
		entries = append(entries, entry{label, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %d", e.label, e.n))
	}
	return lines
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ReadCodeFile reads a source file for analysis, rejecting directories,
// binaries, and anything over the size cap.
func (a *Analyzer) ReadCodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > maxCodeFileBytes {
		return "", fmt.Errorf("%s is %d KB, the limit for analysis is %d KB",
			path, info.Size()/1024, maxCodeFileBytes/1024)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	for _, b := range data {
		if b == 0 {
			return "", fmt.Errorf("%s looks like a binary file", path)
		}
	}
	return string(data), nil
}

// WriteDoc writes a generated document under root, ensuring a trailing
// newline. Returns the full path written.
func (a *Analyzer) WriteDoc(root, name, content string) (string, error) {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

package command

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError reports an unknown command name along with every registered
// name, so the caller can show what is available.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown command %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry maps command names to handlers. Names are case-insensitive and
// trimmed.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Normalize canonicalizes a command name for lookup.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a handler under its normalized name, replacing any previous
// registration.
func (r *Registry) Register(h Handler) {
	r.handlers[Normalize(h.Name())] = h
}

// Resolve looks a handler up by name. Unknown names return a *NotFoundError
// carrying the known names.
func (r *Registry) Resolve(name string) (Handler, error) {
	h, ok := r.handlers[Normalize(name)]
	if !ok {
		return nil, &NotFoundError{Name: Normalize(name), Known: r.Names()}
	}
	return h, nil
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every handler, sorted by name.
func (r *Registry) List() []Handler {
	names := r.Names()
	handlers := make([]Handler, 0, len(names))
	for _, name := range names {
		handlers = append(handlers, r.handlers[name])
	}
	return handlers
}

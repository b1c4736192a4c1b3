// Package engine drives the interactive session: one input line at a time is
// routed to a command handler, and handlers suspend across turns by returning
// prompts. The engine owns the pending prompt; command handlers own their
// resumable state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/codepal/internal/command"
	"github.com/ashureev/codepal/internal/progress"
)

// CommandPrefix marks input as a command; anything else goes to the fallback
// chat handler.
const CommandPrefix = "/"

// IdleHint is the input placeholder shown when no prompt is pending.
const IdleHint = "Type a command like /help, or just ask a question"

// State is the engine's input-routing mode.
type State int

const (
	// StateIdle routes input to command dispatch.
	StateIdle State = iota
	// StateAwaitingReply routes input to the pending prompt's handler.
	StateAwaitingReply
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateAwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// Console is the textual output surface the engine renders to.
type Console interface {
	Print(s string)
	Success(s string)
	Failure(s string)
	Notice(s string)
	Muted(s string)
	Markdown(body string)
	Placeholder(hint string)
}

// pendingPrompt pairs an open prompt with the handler that must consume the
// reply. At most one exists at a time.
type pendingPrompt struct {
	handler command.Handler
	prompt  *command.Prompt
}

// Engine is the interactive command state machine.
type Engine struct {
	registry *command.Registry
	fallback command.Handler
	console  Console
	progress *progress.Controller
	log      *slog.Logger

	state   State
	pending *pendingPrompt
}

// New creates an engine. fallback handles input without the command prefix.
func New(registry *command.Registry, fallback command.Handler, console Console, prog *progress.Controller, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		registry: registry,
		fallback: fallback,
		console:  console,
		progress: prog,
		log:      log,
	}
	console.Placeholder(IdleHint)
	return e
}

// State returns the current input-routing mode.
func (e *Engine) State() State {
	return e.state
}

// HandleLine consumes one line of user input and runs it to a well-defined
// state: every turn ends Idle or AwaitingReply, never wedged.
func (e *Engine) HandleLine(ctx context.Context, line string) {
	input := strings.TrimSpace(line)

	if e.state == StateAwaitingReply {
		e.handleReply(ctx, input)
		return
	}
	if input == "" {
		return
	}
	e.route(ctx, input)
}

func (e *Engine) route(ctx context.Context, input string) {
	if !strings.HasPrefix(input, CommandPrefix) {
		// Free-form text is a chat turn; the whole line is the message.
		e.invoke(ctx, e.fallback, command.Request{Args: []string{input}})
		return
	}

	fields := strings.Fields(strings.TrimPrefix(input, CommandPrefix))
	if len(fields) == 0 {
		e.console.Failure("Missing command name. Try /help.")
		return
	}

	handler, err := e.registry.Resolve(fields[0])
	if err != nil {
		var notFound *command.NotFoundError
		if errors.As(err, &notFound) {
			e.console.Failure("Unknown command: /" + notFound.Name)
			e.console.Muted("Available: /" + strings.Join(notFound.Known, ", /"))
			return
		}
		e.console.Failure(err.Error())
		return
	}

	e.invoke(ctx, handler, command.Request{Args: fields[1:]})
}

// handleReply feeds input to the pending prompt's handler. Empty input is
// always a cancellation and never reaches the handler.
func (e *Engine) handleReply(ctx context.Context, reply string) {
	pending := e.pending

	if reply == "" {
		e.cancelPending()
		return
	}

	req := command.Request{Reply: reply, State: pending.prompt.State}

	if pending.prompt.Kind == command.PromptYesNoEdit {
		switch {
		case isNoWord(reply):
			e.cancelPending()
			return
		case isYesWord(reply):
			req.Reply = "yes"
		default:
			// Any other text is a revised draft; an "edit " prefix is
			// stripped for convenience. No remote call happens here,
			// the handler just re-issues its confirmation prompt.
			req.Reply = stripEditPrefix(reply)
		}
	}

	e.invoke(ctx, pending.handler, req)
}

// invoke runs one handler turn. Panics and errors become failed outcomes so
// the state machine always lands somewhere defined.
func (e *Engine) invoke(ctx context.Context, handler command.Handler, req command.Request) {
	var out command.Outcome

	run := func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("command panicked", "command", handler.Name(), "panic", r)
				out = command.Fail("Internal error. See the log for details.")
			}
		}()

		res, err := handler.Execute(ctx, req)
		if err != nil {
			e.log.Warn("command failed", "command", handler.Name(), "error", err)
			out = command.Fail(err.Error())
			return
		}
		out = res
	}

	if slow, ok := handler.(command.SlowCommand); ok {
		if hint, isSlow := slow.ProgressHint(req); isSlow {
			e.console.Notice("Calling the AI now. This can take 30-60 seconds...")
			e.progress.Run(hint.Label, hint.Expected, run)
			e.finish(out, handler)
			return
		}
	}

	run()
	e.finish(out, handler)
}

// finish applies an outcome to the state machine and renders it.
func (e *Engine) finish(out command.Outcome, handler command.Handler) {
	if out.Prompt != nil {
		// A prompt the engine cannot await on would wedge the session;
		// treat it as a defect and abort the command instead.
		if !out.Prompt.Kind.Known() || out.Prompt.State == nil {
			e.log.Error("handler returned malformed prompt",
				"command", handler.Name(),
				"kind", out.Prompt.Kind.String(),
				"has_state", out.Prompt.State != nil,
			)
			e.toIdle()
			e.console.Failure("Internal error. The command was aborted.")
			return
		}

		e.pending = &pendingPrompt{handler: handler, prompt: out.Prompt}
		e.state = StateAwaitingReply
		e.renderPrompt(out)
		return
	}

	e.toIdle()
	e.renderDone(out)
}

func (e *Engine) cancelPending() {
	e.toIdle()
	e.console.Notice("Cancelled.")
}

func (e *Engine) toIdle() {
	e.pending = nil
	e.state = StateIdle
	e.console.Placeholder(IdleHint)
}

func (e *Engine) renderPrompt(out command.Outcome) {
	// A prompt may ride along with content to show first (e.g. a review
	// awaiting a save decision).
	if body, ok := out.Payload["response"].(string); ok && body != "" {
		e.console.Markdown(body)
	}

	prompt := out.Prompt
	e.console.Notice(prompt.Message)
	for i, choice := range prompt.Choices {
		e.console.Print(fmt.Sprintf("  %d. %s", i+1, choice))
	}

	hint := prompt.Hint
	if hint == "" {
		hint = defaultHint(prompt.Kind)
	}
	e.console.Placeholder(hint)
}

func (e *Engine) renderDone(out command.Outcome) {
	if body, ok := out.Payload["response"].(string); ok && body != "" {
		e.console.Markdown(body)
	}

	if out.Message != "" {
		if out.Success {
			e.console.Success(out.Message)
		} else {
			e.console.Failure(out.Message)
		}
	}

	if files, ok := out.Payload["files_created"].([]string); ok {
		for _, f := range files {
			e.console.Muted("  created " + f)
		}
	}
	if gitOut, ok := out.Payload["git_output"].(string); ok && gitOut != "" {
		e.console.Muted(gitOut)
	}
}

func defaultHint(kind command.PromptKind) string {
	switch kind {
	case command.PromptChoice:
		return "Enter a number, or press Enter to cancel"
	case command.PromptYesNoEdit:
		return "yes / no / edit <revised text>"
	case command.PromptConfirm:
		return "yes / no"
	default:
		return "Type your answer, or press Enter to cancel"
	}
}

func isYesWord(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func isNoWord(s string) bool {
	switch strings.ToLower(s) {
	case "n", "no":
		return true
	default:
		return false
	}
}

func stripEditPrefix(s string) string {
	if len(s) >= 5 && strings.EqualFold(s[:5], "edit ") {
		if stripped := strings.TrimSpace(s[5:]); stripped != "" {
			return stripped
		}
	}
	return s
}

// Package command defines the handler contract and the built-in commands.
// Handlers return an Outcome per invocation; a multi-turn command asks for
// more input by attaching a Prompt, and is re-invoked with the reply plus the
// state it packed into the Prompt.
package command

import (
	"context"
	"fmt"
	"time"
)

// PromptKind classifies what a pending prompt expects back.
type PromptKind int

const (
	PromptNone PromptKind = iota
	// PromptText expects free-form text.
	PromptText
	// PromptChoice expects a 1-based index into Prompt.Choices.
	PromptChoice
	// PromptYesNoEdit expects yes, no, or a revised draft. The reply
	// grammar is handled by the engine.
	PromptYesNoEdit
	// PromptConfirm expects yes or no.
	PromptConfirm
)

// String implements fmt.Stringer.
func (k PromptKind) String() string {
	switch k {
	case PromptText:
		return "text"
	case PromptChoice:
		return "choice"
	case PromptYesNoEdit:
		return "yes_no_edit"
	case PromptConfirm:
		return "confirm"
	default:
		return "none"
	}
}

// Known reports whether k is a prompt kind the engine can await on.
func (k PromptKind) Known() bool {
	switch k {
	case PromptText, PromptChoice, PromptYesNoEdit, PromptConfirm:
		return true
	default:
		return false
	}
}

// Prompt asks the user for another turn of input.
type Prompt struct {
	Kind    PromptKind
	Message string
	// Choices is an ordered list for numbered selection. Replies are
	// 1-based indexes into it.
	Choices []string
	// Hint is a short input placeholder, e.g. "yes/no/edit".
	Hint string
	// State is handed back verbatim on the next invocation. Required for
	// every prompt; the engine rejects prompts without it.
	State any
}

// Outcome is the result of one handler invocation.
type Outcome struct {
	Success bool
	Message string
	// Payload carries structured results, e.g. {"model": ...} or
	// {"files_created": [...]}.
	Payload map[string]any
	// Prompt, when set, suspends the command awaiting one more reply.
	Prompt *Prompt
}

// NeedsInput reports whether the outcome suspends the command.
func (o Outcome) NeedsInput() bool {
	return o.Prompt != nil
}

// OK builds a successful Done outcome.
func OK(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Fail builds a failed Done outcome.
func Fail(message string) Outcome {
	return Outcome{Success: false, Message: message}
}

// Failf builds a failed Done outcome with a formatted message.
func Failf(format string, args ...any) Outcome {
	return Outcome{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Request is one handler invocation: either a fresh command line or a reply
// to the prompt the handler raised on the previous turn.
type Request struct {
	// Args are the tokens after the command name. For the fallback chat
	// handler, Args holds the whole input line.
	Args []string
	// Reply is the user's answer to a pending prompt. Empty on a fresh
	// invocation.
	Reply string
	// State is the Prompt.State the handler packed previously, nil on a
	// fresh invocation. It is the sole source of truth for resumption.
	State any
}

// Fresh reports whether this is a new invocation rather than a prompt reply.
func (r Request) Fresh() bool {
	return r.State == nil
}

// Handler is one registered command.
type Handler interface {
	// Name is the registry key, without the leading slash.
	Name() string
	// Help is a one-line description for /help.
	Help() string
	// Execute runs one turn. It must tolerate being re-invoked with the
	// same Request.State.
	Execute(ctx context.Context, req Request) (Outcome, error)
}

// Hint describes the expected shape of a slow invocation.
type Hint struct {
	// Label keys the rotating caption set.
	Label string
	// Expected is the duration the progress estimate is scaled against.
	Expected time.Duration
}

// SlowCommand is implemented by handlers whose invocations may block on a
// remote call. The engine brackets such invocations with the progress
// animation.
type SlowCommand interface {
	// ProgressHint returns the animation hint for this request, or false
	// when the turn completes quickly (e.g. a local prompt round-trip).
	ProgressHint(req Request) (Hint, bool)
}

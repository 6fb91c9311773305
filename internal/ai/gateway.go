// Package ai defines the language model gateway used by the interview
// components and the client that adds timeouts, logging and metrics on top of
// a provider-specific content generator.
package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrGateway marks every failure of a language model call.
	ErrGateway = errors.New("language model gateway failed")
	// ErrTimeout marks a language model call that exceeded its deadline.
	ErrTimeout = errors.New("language model call timed out")
)

// Prompt is a role-tagged request: Instruction sets the model's role, Input is
// the dynamic payload. Operation names the caller for logs and metrics.
type Prompt struct {
	Operation   string
	Instruction string
	Input       string
}

// Gateway turns a prompt into free text.
type Gateway interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ContentGenerator is implemented by provider clients (gemini, openai, anthropic, ollama).
type ContentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// CallError describes a failed gateway call. It matches ErrGateway, and
// ErrTimeout when the deadline was hit, via errors.Is.
type CallError struct {
	Operation string
	Timeout   bool
	Err       error
}

func (e *CallError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	if e.Timeout {
		b.WriteString(ErrTimeout.Error())
	} else {
		b.WriteString(ErrGateway.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CallError) Unwrap() []error {
	errs := []error{ErrGateway}
	if e.Timeout {
		errs = append(errs, ErrTimeout)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

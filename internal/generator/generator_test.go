package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/ai"
	"go.uber.org/zap"
)

type stubGateway struct {
	response string
	err      error
	calls    int
	last     ai.Prompt
}

func (s *stubGateway) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	s.calls++
	s.last = prompt
	return s.response, s.err
}

func TestQuestion(t *testing.T) {
	gw := &stubGateway{response: "  How do goroutines differ from threads?\n"}
	q := NewQuestions(gw, zap.NewNop())

	out, err := q.Question(context.Background(), "Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "How do goroutines differ from threads?" {
		t.Fatalf("unexpected question: %q", out)
	}
	if gw.calls != 1 || gw.last.Operation != OperationQuestion || !strings.HasSuffix(gw.last.Input, "Go") {
		t.Fatalf("unexpected prompt: %+v", gw.last)
	}
}

func TestQuestionFallback(t *testing.T) {
	q := NewQuestions(&stubGateway{response: " \n"}, zap.NewNop())

	out, err := q.Question(context.Background(), "SQL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Tell me about your experience with SQL." {
		t.Fatalf("unexpected fallback: %q", out)
	}
}

func TestFeedbackJoinsResponses(t *testing.T) {
	gw := &stubGateway{response: "Great job"}
	f := NewFeedback(gw, zap.NewNop())

	if _, err := f.Feedback(context.Background(), []string{"answer1", "answer2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gw.last.Input, "answer1\nanswer2") {
		t.Fatalf("responses not joined: %q", gw.last.Input)
	}

	gw.response = ""
	out, err := f.Feedback(context.Background(), []string{"answer1"})
	if err != nil || out != FallbackFeedback {
		t.Fatalf("expected fallback, got %q, %v", out, err)
	}
}

func TestGatewayFailuresAreDistinct(t *testing.T) {
	backend := &ai.CallError{Operation: "x", Err: errors.New("quota")}
	gw := &stubGateway{err: backend}

	_, err := NewQuestions(gw, zap.NewNop()).Question(context.Background(), "Go")
	if !errors.Is(err, ErrQuestion) || !errors.Is(err, ai.ErrGateway) || errors.Is(err, ErrFeedback) {
		t.Fatalf("unexpected question error: %v", err)
	}

	_, err = NewFeedback(gw, zap.NewNop()).Feedback(context.Background(), []string{"a"})
	if !errors.Is(err, ErrFeedback) || !errors.Is(err, ai.ErrGateway) {
		t.Fatalf("unexpected feedback error: %v", err)
	}

	_, err = NewResumeBuilder(gw, zap.NewNop()).Build(context.Background(), "notes")
	if !errors.Is(err, ErrResume) {
		t.Fatalf("unexpected resume error: %v", err)
	}
}

func TestResumeBuilderRejectsEmptyInput(t *testing.T) {
	gw := &stubGateway{response: "resume"}
	b := NewResumeBuilder(gw, zap.NewNop())

	if _, err := b.Build(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called for empty input")
	}

	gw.response = ""
	out, err := b.Build(context.Background(), "John Doe, Go engineer")
	if err != nil || out != FallbackResume {
		t.Fatalf("expected fallback, got %q, %v", out, err)
	}
}

package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response    string
	err         error
	block       bool
	lastSystem  string
	lastMessage string
}

func (s *stubGenerator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

type observation struct {
	provider, model, operation, status string
}

type recorderStub struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recorderStub) ObserveRequest(provider, model, operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{provider, model, operation, status})
}

func TestClientGenerate(t *testing.T) {
	stub := &stubGenerator{response: "What is a goroutine?"}
	rec := &recorderStub{}
	client := NewClient(stub, Options{Provider: "stub", Recorder: rec}, zap.NewNop())

	out, err := client.Generate(context.Background(), Prompt{Operation: "question", Instruction: "be an interviewer", Input: "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "What is a goroutine?" {
		t.Fatalf("unexpected output: %q", out)
	}

	if stub.lastSystem != "be an interviewer" || stub.lastMessage != "Go" {
		t.Fatalf("prompt not forwarded: %q / %q", stub.lastSystem, stub.lastMessage)
	}

	if len(rec.obs) != 1 || rec.obs[0] != (observation{"stub", "stub-model", "question", StatusSuccess}) {
		t.Fatalf("unexpected observations: %+v", rec.obs)
	}
}

func TestClientGenerateWrapsFailures(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	rec := &recorderStub{}
	client := NewClient(&stubGenerator{err: backendErr}, Options{Provider: "stub", Recorder: rec}, zap.NewNop())

	_, err := client.Generate(context.Background(), Prompt{Operation: "feedback"})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error to be wrapped, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("did not expect timeout error")
	}
	if !strings.HasPrefix(err.Error(), "feedback: ") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
	if rec.obs[0].status != StatusError {
		t.Fatalf("expected error status, got %q", rec.obs[0].status)
	}
}

func TestClientGenerateTimesOut(t *testing.T) {
	rec := &recorderStub{}
	client := NewClient(&stubGenerator{block: true}, Options{Timeout: 10 * time.Millisecond, Recorder: rec}, zap.NewNop())

	_, err := client.Generate(context.Background(), Prompt{Operation: "skills"})
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, ErrGateway) {
		t.Fatalf("expected timeout gateway error, got %v", err)
	}

	var callErr *CallError
	if !errors.As(err, &callErr) || !callErr.Timeout {
		t.Fatalf("expected CallError with timeout flag, got %#v", err)
	}

	if rec.obs[0].status != StatusTimeout {
		t.Fatalf("expected timeout status, got %q", rec.obs[0].status)
	}
}

// Package coach wires the interview pieces together for one identity:
// resume upload, chat turns with tips, status and the resume builder.
package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/document"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/skills"
	"github.com/spigell/hh-interviewer/internal/tips"
	"go.uber.org/zap"
)

const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeExtraction = "extraction"
	OutcomeParse      = "parse"
	OutcomeTimeout    = "timeout"
	OutcomeGateway    = "gateway"
	OutcomeInternal   = "internal"
)

type Analyzer interface {
	Extract(ctx context.Context, resume string) (*skills.Analysis, error)
}

type ResumeBuilder interface {
	Build(ctx context.Context, input string) (string, error)
}

// Observer receives upload and chat outcomes.
type Observer interface {
	ObserveUpload(outcome string)
	ObserveChat(kind interview.ReplyKind)
}

type nopObserver struct{}

func (nopObserver) ObserveUpload(string) {}
func (nopObserver) ObserveChat(interview.ReplyKind) {}

type Options struct {
	Store     *interview.Store
	Documents document.Extractor
	Analyzer  Analyzer
	Builder   ResumeBuilder
	Rand      interview.RandSource
	Observer  Observer
}

type Coach struct {
	store     *interview.Store
	documents document.Extractor
	analyzer  Analyzer
	builder   ResumeBuilder
	rng       interview.RandSource
	observer  Observer
	logger    *zap.Logger
}

func New(opts Options, log *zap.Logger) *Coach {
	if opts.Documents == nil {
		opts.Documents = document.Default
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Rand == nil {
		opts.Rand = interview.NewLockedSource(time.Now().UnixNano())
	}

	return &Coach{
		store:     opts.Store,
		documents: opts.Documents,
		analyzer:  opts.Analyzer,
		builder:   opts.Builder,
		rng:       opts.Rand,
		observer:  opts.Observer,
		logger:    logger.WithFields(log),
	}
}

// ChatResult is the reply to one chat message. Metrics and Tips are set only
// for Interview-stage transitions.
type ChatResult struct {
	Response string
	Kind     interview.ReplyKind
	Stage    interview.Stage
	Metrics  *interview.Metrics
	Tips     []string
	Err      error
}

// Upload extracts the resume, analyses it and starts a new interview for
// identity. The previous session is kept untouched when any step fails.
func (c *Coach) Upload(ctx context.Context, identity, filename string, data []byte) (string, error) {
	log := logger.WithSession(c.logger, identity)

	text, err := c.documents.Extract(filename, data)
	if err != nil {
		c.observer.ObserveUpload(Outcome(err))
		log.Warn("resume rejected", zap.String("filename", filename), zap.Error(err))
		return "", err
	}

	analysis, err := c.analyzer.Extract(ctx, text)
	if err != nil {
		c.observer.ObserveUpload(Outcome(err))
		log.Warn("resume analysis failed", zap.String("filename", filename), zap.Error(err))
		return "", err
	}

	if err := c.store.Reset(identity, analysis.Skills); err != nil {
		c.observer.ObserveUpload(OutcomeInternal)
		return "", fmt.Errorf("start interview: %w", err)
	}

	c.observer.ObserveUpload(OutcomeSuccess)
	log.Info("interview seeded",
		zap.String("filename", filename),
		zap.Int("skills", len(analysis.Skills)),
	)

	return analysis.Message(), nil
}

func (c *Coach) Chat(ctx context.Context, identity, message string) ChatResult {
	reply := c.store.Get(identity).Handle(ctx, message)
	c.observer.ObserveChat(reply.Kind)

	result := ChatResult{
		Response: reply.Text,
		Kind:     reply.Kind,
		Stage:    reply.Stage,
		Metrics:  reply.Metrics,
		Err:      reply.Err,
	}

	if reply.Metrics != nil {
		result.Tips = tips.Advise(*reply.Metrics, c.rng)
	}

	if reply.Err != nil {
		logger.WithSession(c.logger, identity).Warn("chat turn failed",
			zap.Stringer(logger.FieldStage, reply.Stage),
			zap.Error(reply.Err),
		)
	}

	return result
}

func (c *Coach) BuildResume(ctx context.Context, input string) (string, error) {
	return c.builder.Build(ctx, input)
}

// Status is a read-only view; it never opens a session.
func (c *Coach) Status(identity string) interview.Snapshot {
	return c.store.Peek(identity)
}

// Forget drops the session of identity.
func (c *Coach) Forget(identity string) {
	c.store.Delete(identity)
}

// Outcome classifies an upload or generation error for metrics and status codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, document.ErrNoFile),
		errors.Is(err, document.ErrEmptyFilename),
		errors.Is(err, document.ErrUnsupportedFormat):
		return OutcomeInvalid
	case errors.Is(err, document.ErrExtraction):
		return OutcomeExtraction
	case errors.Is(err, skills.ErrNoJSON), errors.Is(err, skills.ErrMalformedJSON):
		return OutcomeParse
	case errors.Is(err, ai.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ai.ErrGateway):
		return OutcomeGateway
	default:
		return OutcomeInternal
	}
}

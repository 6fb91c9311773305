package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 60 * time.Second

	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Recorder receives one observation per gateway call.
type Recorder interface {
	ObserveRequest(provider, model, operation, status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, string, string, time.Duration) {}

// Options configures a Client.
type Options struct {
	Provider     string
	Timeout      time.Duration
	MaxLogLength int
	Recorder     Recorder
}

// Client is the Gateway implementation shared by all providers. Each call gets
// its own deadline so a hung backend cannot block a session indefinitely.
type Client struct {
	generator ContentGenerator
	provider  string
	timeout   time.Duration
	maxLogLen int
	recorder  Recorder
	logger    *zap.Logger
}

func NewClient(generator ContentGenerator, opts Options, log *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = utils.PreviewLength
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Client{
		generator: generator,
		provider:  strings.TrimSpace(opts.Provider),
		timeout:   opts.Timeout,
		maxLogLen: opts.MaxLogLength,
		recorder:  opts.Recorder,
		logger:    logger.WithCommonFields(log, opts.Provider, generator.Model()),
	}
}

func (c *Client) Generate(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	op := strings.TrimSpace(prompt.Operation)
	c.logger.Debug("language model request",
		zap.String(logger.FieldOperation, op),
		zap.Int("prompt_length", utils.RuneLen(prompt.Instruction)+utils.RuneLen(prompt.Input)),
		zap.String("input_preview", utils.TruncateForLog(prompt.Input, c.maxLogLen)),
	)

	started := time.Now()
	raw, err := c.generator.GenerateContent(ctx, prompt.Instruction, prompt.Input)
	elapsed := time.Since(started)

	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		status := StatusError
		if timedOut {
			status = StatusTimeout
		}
		c.recorder.ObserveRequest(c.provider, c.generator.Model(), op, status, elapsed)
		c.logger.Warn("language model call failed",
			zap.String(logger.FieldOperation, op),
			zap.Bool("timeout", timedOut),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", &CallError{Operation: op, Timeout: timedOut, Err: err}
	}

	c.recorder.ObserveRequest(c.provider, c.generator.Model(), op, StatusSuccess, elapsed)
	c.logger.Debug("language model response",
		zap.String(logger.FieldOperation, op),
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utils.RuneLen(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	return raw, nil
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) Model() string {
	return c.generator.Model()
}

// Package generator holds the one-shot language model calls of an interview:
// a question per skill, the final feedback and the standalone resume builder.
package generator

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

const (
	OperationQuestion = "question"
	OperationFeedback = "feedback"
	OperationResume   = "build_resume"

	fallbackQuestion = "Tell me about your experience with %s."
	FallbackFeedback = "Feedback could not be generated."
	FallbackResume   = "Sorry, I couldn't generate the resume."
)

var (
	ErrQuestion   = errors.New("generate question")
	ErrFeedback   = errors.New("generate feedback")
	ErrResume     = errors.New("generate resume")
	ErrEmptyInput = errors.New("no input provided for resume generation")

	//go:embed question.md
	questionInstruction string
	//go:embed feedback.md
	feedbackInstruction string
	//go:embed resume.md
	resumeInstruction string
)

// FallbackQuestion is asked when the model returns nothing for skill.
func FallbackQuestion(skill string) string {
	return fmt.Sprintf(fallbackQuestion, skill)
}

type call struct {
	gateway ai.Gateway
	logger  *zap.Logger
}

// generate issues exactly one gateway call and trims the answer. An empty
// answer is replaced by fallback.
func (c call) generate(ctx context.Context, kind error, prompt ai.Prompt, fallback string) (string, error) {
	raw, err := c.gateway.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", kind, err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		c.logger.Warn("model returned empty text, using fallback",
			zap.String(logger.FieldOperation, prompt.Operation),
		)
		return fallback, nil
	}

	return text, nil
}

// Questions asks the model for one interview question per skill.
type Questions struct {
	call
}

func NewQuestions(gateway ai.Gateway, log *zap.Logger) *Questions {
	return &Questions{call{gateway: gateway, logger: logger.WithFields(log)}}
}

func (q *Questions) Question(ctx context.Context, skill string) (string, error) {
	return q.generate(ctx, ErrQuestion, ai.Prompt{
		Operation:   OperationQuestion,
		Instruction: questionInstruction,
		Input:       "Generate a question for the skill: " + skill,
	}, FallbackQuestion(skill))
}

// Feedback summarises the candidate's answers.
type Feedback struct {
	call
}

func NewFeedback(gateway ai.Gateway, log *zap.Logger) *Feedback {
	return &Feedback{call{gateway: gateway, logger: logger.WithFields(log)}}
}

func (f *Feedback) Feedback(ctx context.Context, responses []string) (string, error) {
	return f.generate(ctx, ErrFeedback, ai.Prompt{
		Operation:   OperationFeedback,
		Instruction: feedbackInstruction,
		Input:       "Responses:\n\n" + strings.Join(responses, "\n"),
	}, FallbackFeedback)
}

// ResumeBuilder generates a resume from free-form notes. It keeps no state.
type ResumeBuilder struct {
	call
}

func NewResumeBuilder(gateway ai.Gateway, log *zap.Logger) *ResumeBuilder {
	return &ResumeBuilder{call{gateway: gateway, logger: logger.WithFields(log)}}
}

func (b *ResumeBuilder) Build(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}

	return b.generate(ctx, ErrResume, ai.Prompt{
		Operation:   OperationResume,
		Instruction: resumeInstruction,
		Input:       input,
	}, FallbackResume)
}

// Package interview implements the interview state machine: it decides, for
// every user message, which stage the conversation is in, which skill to ask
// about next and when to hand over to feedback.
package interview

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

const (
	MsgUploadFirst  = "Please upload your resume to begin the interview simulation!"
	MsgConfirm      = "Please confirm to start the interview (e.g., 'start' or 'yes')."
	MsgNoSkills     = "No skills were identified from your resume. Please upload a more detailed resume to continue the interview."
	MsgCompleted    = "The interview is complete! You can upload a new resume to start again."
	MsgBusy         = "Still working on your previous message, please wait."
	MsgSessionReset = "A new resume was uploaded while this message was being processed. Please continue with the new interview."

	DefaultQuestionsPerSkill = 1
)

var (
	// ErrQuestionFailed wraps question generation failures in error replies.
	ErrQuestionFailed = errors.New("question generation failed")
	// ErrFeedbackFailed wraps feedback generation failures in error replies.
	ErrFeedbackFailed = errors.New("feedback generation failed")

	confirmations = map[string]struct{}{"start": {}, "begin": {}, "yes": {}}
)

// QuestionGenerator produces one question for a skill.
type QuestionGenerator interface {
	Question(ctx context.Context, skill string) (string, error)
}

// FeedbackGenerator produces feedback from the collected answers.
type FeedbackGenerator interface {
	Feedback(ctx context.Context, responses []string) (string, error)
}

// Observer is notified about every committed stage change.
type Observer interface {
	ObserveTransition(from, to Stage)
}

type ReplyKind string

const (
	ReplyNotice   ReplyKind = "notice"
	ReplyQuestion ReplyKind = "question"
	ReplyFeedback ReplyKind = "feedback"
	ReplyError    ReplyKind = "error"
)

// Reply is the outcome of one Handle call. Metrics is set only for replies
// produced by an Interview-stage transition.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Stage   Stage
	Skill   string
	Metrics *Metrics
	Err     error
}

// Config holds optional Machine settings.
type Config struct {
	// QuestionsPerSkill is the per-skill question limit. Defaults to 1.
	QuestionsPerSkill int
	Rand              RandSource
	Observer          Observer
	Logger            *zap.Logger
}

// Machine owns one Session. State is only touched under mu; generator calls
// run unlocked and their results are committed afterwards.
type Machine struct {
	mu      sync.Mutex
	session *Session
	// epoch changes on every reset so in-flight turns can detect a stale session.
	epoch uint64
	busy  bool

	questions QuestionGenerator
	feedback  FeedbackGenerator
	limit     int
	rng       RandSource
	observer  Observer
	logger    *zap.Logger
}

func NewMachine(questions QuestionGenerator, feedback FeedbackGenerator, cfg Config) *Machine {
	if cfg.QuestionsPerSkill <= 0 {
		cfg.QuestionsPerSkill = DefaultQuestionsPerSkill
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Machine{
		session:   newSession(),
		questions: questions,
		feedback:  feedback,
		limit:     cfg.QuestionsPerSkill,
		rng:       cfg.Rand,
		observer:  cfg.Observer,
		logger:    logger.WithFields(cfg.Logger),
	}
}

// Seed sets the skills and moves an Initial session to Analysis.
func (m *Machine) Seed(skills []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.seedLocked(skills)
}

// Reset discards the session and starts a fresh one in the Initial stage.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
}

// Restart resets the session and seeds it with skills in one step.
func (m *Machine) Restart(skills []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	return m.seedLocked(skills)
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session.snapshot()
}

func (m *Machine) resetLocked() {
	m.session = newSession()
	m.epoch++
	m.busy = false
}

func (m *Machine) seedLocked(skills []string) error {
	if err := checkTransition(m.session.Stage, StageAnalysis); err != nil {
		return err
	}

	m.session.Skills = append([]string(nil), skills...)
	for _, skill := range m.session.Skills {
		m.session.QuestionsAsked[skill] = 0
	}
	m.setStageLocked(StageAnalysis)

	return nil
}

func (m *Machine) setStageLocked(to Stage) {
	from := m.session.Stage
	m.session.Stage = to

	m.logger.Debug("stage transition",
		zap.Stringer("from", from),
		zap.Stringer(logger.FieldStage, to),
	)

	if m.observer != nil {
		m.observer.ObserveTransition(from, to)
	}
}

// turn is a planned Handle call captured under the lock.
type turn struct {
	epoch     uint64
	from      Stage
	answer    *string
	skill     string
	responses []string
	finish    bool
}

// Handle processes one user message and returns the reply for it.
func (m *Machine) Handle(ctx context.Context, input string) Reply {
	m.mu.Lock()

	if m.busy {
		stage := m.session.Stage
		m.mu.Unlock()
		return notice(MsgBusy, stage)
	}

	var t turn
	switch m.session.Stage {
	case StageInitial:
		m.mu.Unlock()
		return notice(MsgUploadFirst, StageInitial)
	case StageCompleted:
		m.mu.Unlock()
		return notice(MsgCompleted, StageCompleted)
	case StageAnalysis:
		if !isConfirmation(input) {
			m.mu.Unlock()
			return notice(MsgConfirm, StageAnalysis)
		}
		if len(m.session.Skills) == 0 {
			m.mu.Unlock()
			return notice(MsgNoSkills, StageAnalysis)
		}
		t = m.planLocked(nil)
	case StageInterview:
		t = m.planLocked(&input)
	default:
		stage := m.session.Stage
		m.mu.Unlock()
		return errorReply(fmt.Errorf("%w: unknown stage %s", ErrInvalidTransition, stage), stage)
	}

	m.busy = true
	m.mu.Unlock()

	text, err := m.generate(ctx, t)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != t.epoch {
		return notice(MsgSessionReset, m.session.Stage)
	}
	m.busy = false

	if err != nil {
		m.logger.Warn("turn failed, session left unchanged",
			zap.Stringer(logger.FieldStage, m.session.Stage),
			zap.String("skill", t.skill),
			zap.Error(err),
		)
		return errorReply(err, m.session.Stage)
	}

	return m.commitLocked(t, text)
}

// generate runs the turn's generator call. A panicking generator is reported
// as a failed turn so the session does not stay busy.
func (m *Machine) generate(ctx context.Context, t turn) (text string, err error) {
	op := ErrQuestionFailed
	if t.finish {
		op = ErrFeedbackFailed
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &TurnError{Op: op, Skill: t.skill, Err: fmt.Errorf("generator panicked: %v", r)}
		}
	}()

	if t.finish {
		text, err = m.feedback.Feedback(ctx, t.responses)
	} else {
		text, err = m.questions.Question(ctx, t.skill)
	}
	if err != nil {
		return "", &TurnError{Op: op, Skill: t.skill, Err: err}
	}
	return text, nil
}

func (m *Machine) planLocked(answer *string) turn {
	s := m.session
	t := turn{epoch: m.epoch, from: s.Stage, answer: answer}

	skill, err := s.nextSkill(m.limit)
	if err == nil {
		t.skill = skill
		return t
	}

	t.finish = true
	t.responses = append([]string(nil), s.Responses...)
	if answer != nil {
		t.responses = append(t.responses, *answer)
	}
	return t
}

// commitLocked applies a successful turn. Every stage change is checked
// before anything is mutated so a rejected turn leaves no partial state.
func (m *Machine) commitLocked(t turn, text string) Reply {
	path := make([]Stage, 0, 2)
	if t.from == StageAnalysis {
		path = append(path, StageInterview)
	}
	if t.finish {
		path = append(path, StageCompleted)
	}

	from := m.session.Stage
	for _, to := range path {
		if err := checkTransition(from, to); err != nil {
			return errorReply(err, m.session.Stage)
		}
		from = to
	}

	s := m.session
	if t.answer != nil {
		s.Responses = append(s.Responses, *t.answer)
	}
	for _, to := range path {
		m.setStageLocked(to)
	}

	if t.finish {
		metrics := s.Metrics
		return Reply{Kind: ReplyFeedback, Text: text, Stage: s.Stage, Metrics: &metrics}
	}

	s.QuestionsAsked[t.skill]++
	s.TotalQuestions++
	s.Metrics = SimulateMetrics(m.rng)

	metrics := s.Metrics
	return Reply{Kind: ReplyQuestion, Text: text, Stage: s.Stage, Skill: t.skill, Metrics: &metrics}
}

func isConfirmation(input string) bool {
	_, ok := confirmations[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

func notice(text string, stage Stage) Reply {
	return Reply{Kind: ReplyNotice, Text: text, Stage: stage}
}

// TurnError is a failed generator call. It matches Op and the cause via errors.Is.
type TurnError struct {
	Op    error
	Skill string
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%v: %v", e.Op, e.Err)
}

func (e *TurnError) Unwrap() []error {
	return []error{e.Op, e.Err}
}

func errorReply(err error, stage Stage) Reply {
	text := "Something went wrong. Please try again."

	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		what := "question"
		if errors.Is(turnErr.Op, ErrFeedbackFailed) {
			what = "feedback"
		}
		text = fmt.Sprintf("Error generating %s: %v. Please send your message again.", what, turnErr.Err)
	}

	return Reply{Kind: ReplyError, Text: text, Stage: stage, Err: err}
}

package interview

import "errors"

// errExhausted signals that every skill has reached its question limit.
var errExhausted = errors.New("no skill below its question limit")

// Session is the mutable state of one interview conversation.
type Session struct {
	Stage          Stage
	Skills         []string
	QuestionsAsked map[string]int
	TotalQuestions int
	Responses      []string
	Metrics        Metrics
}

func newSession() *Session {
	return &Session{
		Stage:          StageInitial,
		QuestionsAsked: map[string]int{},
		Metrics:        initialMetrics(),
	}
}

// nextSkill returns the first skill, in order, still below limit.
func (s *Session) nextSkill(limit int) (string, error) {
	for _, skill := range s.Skills {
		if s.QuestionsAsked[skill] < limit {
			return skill, nil
		}
	}
	return "", errExhausted
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	Stage          Stage          `json:"stage"`
	Skills         []string       `json:"skills"`
	QuestionsAsked map[string]int `json:"questions_per_skill"`
	TotalQuestions int            `json:"total_questions_asked"`
	Responses      []string       `json:"responses"`
	Metrics        Metrics        `json:"metrics"`
}

func (s *Session) snapshot() Snapshot {
	asked := make(map[string]int, len(s.QuestionsAsked))
	for k, v := range s.QuestionsAsked {
		asked[k] = v
	}

	return Snapshot{
		Stage:          s.Stage,
		Skills:         append([]string(nil), s.Skills...),
		QuestionsAsked: asked,
		TotalQuestions: s.TotalQuestions,
		Responses:      append([]string(nil), s.Responses...),
		Metrics:        s.Metrics,
	}
}

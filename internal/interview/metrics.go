package interview

import (
	"math/rand"
	"sync"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	ExpressionNeutral  = "neutral"
	ExpressionSmiling  = "smiling"
	ExpressionConfused = "confused"
	ExpressionEngaged  = "engaged"

	ClarityClear    = "clear"
	ClarityModerate = "moderate"
	ClarityMuffled  = "muffled"

	ConfidenceLow      = "low"
	ConfidenceModerate = "moderate"
	ConfidenceHigh     = "high"

	minEngagement = 30
	maxEngagement = 90
)

var (
	sentiments  = []string{SentimentPositive, SentimentNeutral, SentimentNegative}
	expressions = []string{ExpressionNeutral, ExpressionSmiling, ExpressionConfused, ExpressionEngaged}
	clarities   = []string{ClarityClear, ClarityModerate, ClarityMuffled}
	confidences = []string{ConfidenceLow, ConfidenceModerate, ConfidenceHigh}
)

// Metrics is a simulated snapshot of behavioural signals. No audio or video is
// analysed; the values only drive coaching tips.
type Metrics struct {
	Engagement int    `json:"eye_contact"`
	Sentiment  string `json:"sentiment"`
	Expression string `json:"facial_expression"`
	Clarity    string `json:"speech_clarity"`
	Confidence string `json:"confidence_level"`
}

// RandSource is the subset of *rand.Rand used for simulation and tip padding.
type RandSource interface {
	Intn(n int) int
}

func initialMetrics() Metrics {
	return Metrics{
		Engagement: 0,
		Sentiment:  SentimentNeutral,
		Expression: ExpressionNeutral,
		Clarity:    ClarityModerate,
		Confidence: ConfidenceModerate,
	}
}

// SimulateMetrics draws a fresh snapshot from r.
func SimulateMetrics(r RandSource) Metrics {
	return Metrics{
		Engagement: minEngagement + r.Intn(maxEngagement-minEngagement+1),
		Sentiment:  sentiments[r.Intn(len(sentiments))],
		Expression: expressions[r.Intn(len(expressions))],
		Clarity:    clarities[r.Intn(len(clarities))],
		Confidence: confidences[r.Intn(len(confidences))],
	}
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedSource returns a RandSource safe for concurrent use.
func NewLockedSource(seed int64) RandSource {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

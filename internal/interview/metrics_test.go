package interview

import "testing"

type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

func TestSimulateMetricsBounds(t *testing.T) {
	low := SimulateMetrics(zeroSource{})
	if low.Engagement != 30 || low.Sentiment != SentimentPositive || low.Confidence != ConfidenceLow {
		t.Fatalf("unexpected low metrics: %+v", low)
	}

	high := SimulateMetrics(maxSource{})
	if high.Engagement != 90 || high.Expression != ExpressionEngaged || high.Clarity != ClarityMuffled {
		t.Fatalf("unexpected high metrics: %+v", high)
	}

	src := NewLockedSource(7)
	for i := 0; i < 200; i++ {
		m := SimulateMetrics(src)
		if m.Engagement < 30 || m.Engagement > 90 {
			t.Fatalf("engagement out of range: %d", m.Engagement)
		}
	}
}

func TestInitialMetrics(t *testing.T) {
	m := newSession().Metrics
	if m.Engagement != 0 || m.Sentiment != SentimentNeutral || m.Clarity != ClarityModerate {
		t.Fatalf("unexpected initial metrics: %+v", m)
	}
}

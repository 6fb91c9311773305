package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spigell/hh-interviewer/internal/interview"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.ObserveRequest("gemini", "gemini-2.5-flash", "question", "success", 150*time.Millisecond)
	rec.ObserveRequest("gemini", "gemini-2.5-flash", "question", "timeout", time.Second)
	rec.ObserveTransition(interview.StageAnalysis, interview.StageInterview)
	rec.ObserveUpload("success")
	rec.ObserveChat(interview.ReplyQuestion)

	if got := testutil.ToFloat64(rec.requestsTotal.WithLabelValues("gemini", "gemini-2.5-flash", "question", "success")); got != 1 {
		t.Fatalf("expected 1 successful request, got %v", got)
	}

	expected := `
# HELP hh_interviewer_interview_stage_transitions_total Total number of committed interview stage transitions
# TYPE hh_interviewer_interview_stage_transitions_total counter
hh_interviewer_interview_stage_transitions_total{from="analysis",to="interview"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "hh_interviewer_interview_stage_transitions_total"); err != nil {
		t.Fatalf("unexpected transitions metric: %v", err)
	}

	if n := testutil.CollectAndCount(rec.requestDuration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

// Package metrics records Prometheus metrics for model calls, interview stage
// changes and resume uploads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spigell/hh-interviewer/internal/interview"
)

const namespace = "hh_interviewer"

// Recorder implements ai.Recorder and interview.Observer.
type Recorder struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	transitionsTotal *prometheus.CounterVec
	uploadsTotal     *prometheus.CounterVec
	chatTurnsTotal   *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of language model requests by provider, model, operation and status",
			},
			[]string{"provider", "model", "operation", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Duration of language model requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "model", "operation"},
		),
		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interview_stage_transitions_total",
				Help:      "Total number of committed interview stage transitions",
			},
			[]string{"from", "to"},
		),
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resume_uploads_total",
				Help:      "Total number of resume uploads by outcome",
			},
			[]string{"outcome"},
		),
		chatTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_turns_total",
				Help:      "Total number of chat turns by reply kind",
			},
			[]string{"kind"},
		),
	}
}

// ObserveRequest records one language model call.
func (r *Recorder) ObserveRequest(provider, model, operation, status string, duration time.Duration) {
	r.requestsTotal.WithLabelValues(provider, model, operation, status).Inc()
	r.requestDuration.WithLabelValues(provider, model, operation).Observe(duration.Seconds())
}

func (r *Recorder) ObserveTransition(from, to interview.Stage) {
	r.transitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveUpload counts an upload; outcome is "success" or an error class.
func (r *Recorder) ObserveUpload(outcome string) {
	r.uploadsTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveChat(kind interview.ReplyKind) {
	r.chatTurnsTotal.WithLabelValues(string(kind)).Inc()
}

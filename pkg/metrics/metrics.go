package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Interpreter metrics
	MessagesProcessed *prometheus.CounterVec // shape, outcome
	ShapeErrors       *prometheus.CounterVec // shape
	MatchMisses       prometheus.Counter
	InterpretLatency  prometheus.Histogram

	// Patch applier metrics
	PatchesApplied  prometheus.Counter
	PatchesNoChange prometheus.Counter
	PatchesRejected *prometheus.CounterVec // reason

	// Event metrics
	EventsPublished *prometheus.CounterVec // event

	// Bot poller metrics
	PollCycles  prometheus.Counter
	PollErrors  prometheus.Counter
	RepliesSent prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_processed_total",
			Help:      "Inbound messages by shape and outcome",
		}, []string{"shape", "outcome"}),
		ShapeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "shape_errors_total",
			Help:      "Extractor errors swallowed per shape",
		}, []string{"shape"}),
		MatchMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "doctor_match_misses_total",
			Help:      "Messages dropped because no doctor matched",
		}),
		InterpretLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "interpret_duration_seconds",
			Help:      "Time spent interpreting one inbound message",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		PatchesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "patches_applied_total",
			Help:      "Per-date schedule patches that changed stored state",
		}),
		PatchesNoChange: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "patches_nochange_total",
			Help:      "Patches that were no-ops after equality checks",
		}),
		PatchesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "patches_rejected_total",
			Help:      "Patches rejected before merge",
		}, []string{"reason"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_published_total",
			Help:      "Change notifications published",
		}, []string{"event"}),
		PollCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bot_poll_cycles_total",
			Help:      "Long-poll cycles against the bot API",
		}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bot_poll_errors_total",
			Help:      "Failed long-poll cycles",
		}),
		RepliesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bot_replies_sent_total",
			Help:      "Canned command replies sent",
		}),
	}
}

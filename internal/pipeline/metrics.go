package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered once per process and shared by the actor, the
// mempool packing step, and the proof worker.
type Metrics struct {
	ProposedEmptyBlocksWithCandidates prometheus.Counter
	BlocksFinalized                   prometheus.Counter
	BlocksExecuted                    prometheus.Counter
	EventsEmitted                     prometheus.Counter
	ProofJobsEnqueued                 prometheus.Counter
	ProofJobsFailed                   prometheus.Counter
	MempoolSize                       prometheus.Gauge
	MailboxDepth                      prometheus.Gauge
}

// NewMetrics registers the pipeline's metrics against reg. Tests and
// short-lived tools should pass a fresh prometheus.NewRegistry() to avoid
// the default registry's global duplicate-registration panic.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProposedEmptyBlocksWithCandidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_proposed_empty_blocks_with_candidates_total",
			Help: "Proposals that came back empty despite the mempool holding candidate transactions.",
		}),
		BlocksFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_blocks_finalized_total",
			Help: "Blocks the actor has received a Finalized message for.",
		}),
		BlocksExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_blocks_executed_total",
			Help: "Blocks the execution engine has run against state.",
		}),
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_events_emitted_total",
			Help: "Events appended to the event log across all executed blocks.",
		}),
		ProofJobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_proof_jobs_enqueued_total",
			Help: "Proof jobs handed to the proof worker.",
		}),
		ProofJobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocpengine_proof_jobs_failed_total",
			Help: "Proof jobs that exhausted their retry budget.",
		}),
		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocpengine_mempool_size",
			Help: "Current total pending transaction count.",
		}),
		MailboxDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocpengine_mailbox_depth",
			Help: "Pending messages in the actor's mailbox.",
		}),
	}
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cosmossdk.io/log"

	"ocpengine/internal/store"
	"ocpengine/internal/store/mmr"
)

// ProofJob is one unit of work handed from the actor's Seeded handler to the
// proof worker: the contiguous operation ranges one block's execution
// produced in each log (spec §4.1 commit contract, §4.9/§4.11).
type ProofJob struct {
	Block Block

	StateStart, StateEnd   int
	EventsStart, EventsEnd int
}

// ProofResult is what the proof worker hands to the Aggregator.
type ProofResult struct {
	Block Block

	StateProof  *mmr.RangeProof
	EventsProof *mmr.RangeProof
}

// ProofWorker is the asynchronous generator of historical proofs described
// in spec §4.11: it drains ProofJobs, retries transient errors with
// jittered exponential backoff, and periodically prunes both logs to their
// inactivity floor.
type ProofWorker struct {
	log log.Logger

	state  *store.State
	events *store.EventLog

	jobs       <-chan ProofJob
	aggregator Aggregator
	metrics    *Metrics
	fatal      chan<- error

	pruneInterval time.Duration

	provenStateEnd  int
	provenEventsEnd int
}

func NewProofWorker(
	logger log.Logger,
	st *store.State,
	ev *store.EventLog,
	jobs <-chan ProofJob,
	aggregator Aggregator,
	metrics *Metrics,
	fatal chan<- error,
	pruneInterval time.Duration,
) *ProofWorker {
	if pruneInterval <= 0 {
		pruneInterval = time.Minute
	}
	return &ProofWorker{
		log:           logger.With("module", "proofworker"),
		state:         st,
		events:        ev,
		jobs:          jobs,
		aggregator:    aggregator,
		metrics:       metrics,
		fatal:         fatal,
		pruneInterval: pruneInterval,
	}
}

// Run consumes jobs until ctx is canceled or the job channel closes.
func (w *ProofWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		case <-ticker.C:
			w.pruneBoth()
		}
	}
}

// process generates both range proofs with a bounded, jittered retry
// (cenkalti/backoff, spec §5: "retries transient proof errors five times
// with jittered backoff capped at two seconds"). A permanent failure is
// fatal to the node.
func (w *ProofWorker) process(ctx context.Context, job ProofJob) {
	var stateProof, eventsProof *mmr.RangeProof

	op := func() error {
		var err error
		if job.StateEnd > job.StateStart {
			stateProof, err = w.state.HistoricalProof(job.StateStart, job.StateEnd)
			if err != nil {
				return fmt.Errorf("state historical proof [%d,%d): %w", job.StateStart, job.StateEnd, err)
			}
		}
		if job.EventsEnd > job.EventsStart {
			eventsProof, err = w.events.HistoricalProof(job.EventsStart, job.EventsEnd)
			if err != nil {
				return fmt.Errorf("events historical proof [%d,%d): %w", job.EventsStart, job.EventsEnd, err)
			}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0 // bounded by WithMaxRetries instead, not wall time
	retrier := backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx) // 5 attempts total

	notify := func(err error, wait time.Duration) {
		w.log.Debug("proof generation attempt failed, retrying", "height", job.Block.Height, "err", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, retrier, notify); err != nil {
		w.metrics.ProofJobsFailed.Inc()
		w.log.Error("proof generation exhausted retries", "height", job.Block.Height, "err", err)
		select {
		case w.fatal <- fmt.Errorf("pipeline: proof generation for block %d: %w", job.Block.Height, err):
		case <-ctx.Done():
		}
		return
	}

	w.provenStateEnd = job.StateEnd
	w.provenEventsEnd = job.EventsEnd

	w.aggregator.SubmitProof(ProofResult{
		Block:       job.Block,
		StateProof:  stateProof,
		EventsProof: eventsProof,
	})
}

// pruneBoth releases storage below the furthest position every successfully
// proven job has reached (spec §5: "Ancestry resolution is rate-limited..."
// — pruning itself is rate-limited by pruneInterval, never by every commit).
func (w *ProofWorker) pruneBoth() {
	if w.provenStateEnd > 0 {
		if err := w.state.Prune(w.provenStateEnd); err != nil {
			w.log.Error("prune state store", "err", err)
		}
	}
	if w.provenEventsEnd > 0 {
		if err := w.events.Prune(w.provenEventsEnd); err != nil {
			w.log.Error("prune event log", "err", err)
		}
	}
}

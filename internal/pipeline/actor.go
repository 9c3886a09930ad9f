// Package pipeline implements the node's single-threaded actor loop: block
// proposal, verification, seeded execution, and the background proof
// worker, generalized from the teacher's per-request ABCI handlers
// (apps/chain/internal/app) into the explicit mailbox actor spec §4.9
// describes.
package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"cosmossdk.io/log"

	"ocpengine/internal/domain"
	"ocpengine/internal/engine"
	"ocpengine/internal/layer"
	"ocpengine/internal/mempool"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

// Marshal is the named external collaborator (spec §1 non-goals, §4.9) that
// holds proposed and verified blocks keyed by hash so Broadcast/Verify can
// fetch a payload's parent without the actor itself retaining every block
// body. Production nodes back this with the consensus library's own block
// store; tests use an in-memory map.
type Marshal interface {
	Block(hash [32]byte) (Block, bool)
	Store(b Block)
}

// MemMarshal is a trivial in-memory Marshal, sufficient for single-node
// simulation and tests.
type MemMarshal struct {
	mu     sync.Mutex
	blocks map[[32]byte]Block
}

func NewMemMarshal() *MemMarshal {
	return &MemMarshal{blocks: make(map[[32]byte]Block)}
}

func (m *MemMarshal) Block(hash [32]byte) (Block, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[hash]
	return b, ok
}

func (m *MemMarshal) Store(b Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[b.Hash()] = b
}

// SeedSource fetches the revealed seed for a finalized block's view, as the
// seeder component named in spec §6 would over the wire. Unlike
// seedlock.SeedFetcher (a synchronous, already-resolved lookup the engine
// consults mid-block), SeedSource models the real round trip: it can block,
// and it can fail.
type SeedSource interface {
	FetchSeed(ctx context.Context, view uint64) (seedlock.Seed, bool, error)
}

// Aggregator receives proof jobs once the proof worker has generated them
// (spec §4.9/§4.11).
type Aggregator interface {
	SubmitProof(ProofResult)
}

// NonceReader is the read-only slice of *store.State the block-packing step
// needs to project nonces forward over an unfinalized ancestry chain.
type NonceReader interface {
	GetAccount(public []byte) (store.Account, error)
}

// ProposeResult answers a Propose or Ancestry-completed-Propose request.
type ProposeResult struct {
	Block Block
	Ok    bool
}

// VerifyResult answers a Verify request.
type VerifyResult struct {
	Ok  bool
	Err error
}

// Mailbox messages (spec §4.9 table). Each concrete type implements
// Message for exhaustive type-switch routing in Run.
type Message interface{ isMessage() }

type GenesisMsg struct {
	Reply chan<- [32]byte
}

type ProposeMsg struct {
	Round  uint64
	Parent [32]byte
	Reply  chan<- ProposeResult
}

type AncestryMsg struct {
	Round  uint64
	Blocks []Block
	Reply  chan<- ProposeResult
}

type BroadcastMsg struct {
	Payload Block
}

type VerifyMsg struct {
	Round   uint64
	Parent  [32]byte
	Payload Block
	Reply   chan<- VerifyResult
}

type FinalizedMsg struct {
	Block Block
}

type SeededMsg struct {
	Block Block
	Seed  seedlock.Seed
}

func (GenesisMsg) isMessage()   {}
func (ProposeMsg) isMessage()   {}
func (AncestryMsg) isMessage()  {}
func (BroadcastMsg) isMessage() {}
func (VerifyMsg) isMessage()    {}
func (FinalizedMsg) isMessage() {}
func (SeededMsg) isMessage()    {}

// Config bundles the actor's tunables, mirroring spec §6's enumerated
// configuration knobs.
type Config struct {
	Namespace             string
	MasterPublic          []byte
	MaxBlockTransactions  int
	ExecutionConcurrency  int
	AncestryCacheEntries  int
	MailboxSize           int
	ProofQueueSize        int
	GenesisDigest         [32]byte
	CommittedHeightAtOpen uint64
}

// Actor is the pipeline's single-threaded select loop (spec §4.9). The
// actor mutates state/events only in Seeded, under stateMu. The proof
// worker does not take stateMu: its HistoricalProof reads and Prune calls
// are serialized against the actor's writes by the store's and event log's
// own mutexes.
type Actor struct {
	cfg Config
	log log.Logger

	state   *store.State
	events  *store.EventLog
	mempool *mempool.Mempool

	marshal    Marshal
	ancestry   *AncestryCache
	seedSource SeedSource
	aggregator Aggregator
	metrics    *Metrics

	mailbox chan Message

	proofJobs chan ProofJob
	fatal     chan error

	stateMu sync.Mutex

	// committedHeight tracks the last height Seeded successfully executed,
	// advanced under stateMu alongside the state/events commit.
	committedHeight uint64

	// lastBuilt is the most recent block this actor packed via Propose,
	// consulted by Broadcast (spec §4.9: "Only if the last built block
	// matches the payload, push it to the marshal").
	lastBuilt   Block
	lastBuiltOk bool

	// pendingParent remembers the parent hash a Propose attempt couldn't
	// resolve ancestry for, so a later Ancestry message for the same round
	// knows what tip to chain from.
	pendingParent map[uint64][32]byte

	// revealedSeeds accumulates every seed the actor has ever resolved via
	// Seeded, so the engine's precompute pass can verify timelock
	// ciphertexts that target views other than the block's own (spec §4.4).
	seedMu        sync.Mutex
	revealedSeeds map[uint64]seedlock.Seed
}

func NewActor(
	cfg Config,
	logger log.Logger,
	st *store.State,
	ev *store.EventLog,
	mp *mempool.Mempool,
	marshal Marshal,
	ancestry *AncestryCache,
	seedSource SeedSource,
	aggregator Aggregator,
	metrics *Metrics,
) *Actor {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 64
	}
	if cfg.ProofQueueSize <= 0 {
		cfg.ProofQueueSize = 16
	}
	return &Actor{
		cfg:           cfg,
		log:           logger.With("module", "pipeline"),
		state:         st,
		events:        ev,
		mempool:       mp,
		marshal:       marshal,
		ancestry:      ancestry,
		seedSource:    seedSource,
		aggregator:    aggregator,
		metrics:       metrics,
		mailbox:       make(chan Message, cfg.MailboxSize),
		proofJobs:     make(chan ProofJob, cfg.ProofQueueSize),
		fatal:         make(chan error, 1),
		committedHeight: cfg.CommittedHeightAtOpen,
		pendingParent: make(map[uint64][32]byte),
		revealedSeeds: make(map[uint64]seedlock.Seed),
	}
}

// Mailbox exposes the send side the consensus driver publishes messages on.
func (a *Actor) Mailbox() chan<- Message { return a.mailbox }

// ProofJobs exposes the receive side the proof worker consumes.
func (a *Actor) ProofJobs() <-chan ProofJob { return a.proofJobs }

// Fatal reports infrastructure failures that should terminate the node
// (spec §7: "Storage I/O failures inside execute/sync are fatal").
func (a *Actor) Fatal() <-chan error { return a.fatal }

// FatalChan exposes the send side of the same channel, so a collaborator
// run alongside the actor (the proof worker) can signal its own
// unrecoverable failures into the actor's Run loop instead of maintaining a
// second shutdown path (spec §5: "on unrecoverable proof failure it
// signals fatal and the actor shuts down").
func (a *Actor) FatalChan() chan<- error { return a.fatal }

// Run is the actor's select loop. It exits when ctx is canceled or a fatal
// error is raised internally, matching spec §7's "the actor logs and
// terminates."
func (a *Actor) Run(ctx context.Context) error {
	for {
		a.metrics.MailboxDepth.Set(float64(len(a.mailbox)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-a.fatal:
			a.log.Error("fatal error, shutting down actor", "err", err)
			return err
		case msg := <-a.mailbox:
			if err := a.handle(ctx, msg); err != nil {
				a.log.Error("fatal error handling mailbox message", "err", err)
				return err
			}
		}
	}
}

func (a *Actor) handle(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case GenesisMsg:
		a.handleGenesis(m)
	case ProposeMsg:
		return a.handlePropose(m)
	case AncestryMsg:
		return a.handleAncestry(m)
	case BroadcastMsg:
		a.handleBroadcast(m)
	case VerifyMsg:
		return a.handleVerify(m)
	case FinalizedMsg:
		a.handleFinalized(ctx, m)
	case SeededMsg:
		return a.handleSeeded(ctx, m)
	default:
		return fmt.Errorf("pipeline: unknown mailbox message %T", msg)
	}
	return nil
}

func (a *Actor) handleGenesis(m GenesisMsg) {
	select {
	case m.Reply <- a.cfg.GenesisDigest:
	default:
	}
}

// handlePropose resolves ancestry from the cache; if the chain back to the
// last committed height isn't fully cached yet, it records the pending
// parent and replies !Ok — the caller is expected to supply the missing
// blocks via an AncestryMsg for the same round once it has resolved them.
func (a *Actor) handlePropose(m ProposeMsg) error {
	chain, ok := a.ancestry.Chain(m.Parent, a.committedHeight)
	if !ok {
		a.pendingParent[m.Round] = m.Parent
		reply(m.Reply, ProposeResult{Ok: false})
		return nil
	}
	return a.completePropose(m.Round, chain, m.Reply)
}

// handleAncestry folds newly supplied blocks into the cache and completes
// whatever Propose attempt was pending for the round.
func (a *Actor) handleAncestry(m AncestryMsg) error {
	for _, b := range m.Blocks {
		a.ancestry.Add(b)
	}
	parent, ok := a.pendingParent[m.Round]
	if !ok && len(m.Blocks) > 0 {
		parent = m.Blocks[len(m.Blocks)-1].Hash()
	}
	delete(a.pendingParent, m.Round)

	chain, ok := a.ancestry.Chain(parent, a.committedHeight)
	if !ok {
		reply(m.Reply, ProposeResult{Ok: false})
		return nil
	}
	return a.completePropose(m.Round, chain, m.Reply)
}

func (a *Actor) completePropose(round uint64, chain []Block, replyCh chan<- ProposeResult) error {
	candidates := a.mempool.PeekBatch(2 * a.cfg.MaxBlockTransactions)
	txs, err := packBlock(chain, a.state, candidates, a.cfg.MaxBlockTransactions)
	if err != nil {
		return fmt.Errorf("pipeline: pack block: %w", err)
	}
	if len(txs) == 0 && len(candidates) > 0 {
		a.metrics.ProposedEmptyBlocksWithCandidates.Inc()
	}

	tip := chain[len(chain)-1]
	block := Block{
		Height:       tip.Height + 1,
		View:         round,
		ParentHash:   tip.Hash(),
		Transactions: txs,
	}
	a.lastBuilt = block
	a.lastBuiltOk = true
	reply(replyCh, ProposeResult{Block: block, Ok: true})
	return nil
}

// packBlock projects each account's next admissible nonce forward across
// the (uncommitted) ancestry chain, then walks mempool candidates in FIFO
// order, taking every transaction whose nonce matches the account's current
// projection, up to max (spec §4.9 Propose).
func packBlock(chain []Block, base NonceReader, candidates []domain.Transaction, max int) ([]domain.Transaction, error) {
	projected := make(map[string]uint64)
	get := func(public []byte) (uint64, error) {
		k := hex.EncodeToString(public)
		if n, ok := projected[k]; ok {
			return n, nil
		}
		acct, err := base.GetAccount(public)
		if err != nil {
			return 0, err
		}
		projected[k] = acct.Nonce
		return acct.Nonce, nil
	}

	for _, b := range chain {
		for _, tx := range b.Transactions {
			n, err := get(tx.Public)
			if err != nil {
				return nil, err
			}
			if n == tx.Nonce {
				projected[hex.EncodeToString(tx.Public)] = tx.Nonce + 1
			}
		}
	}

	out := make([]domain.Transaction, 0, max)
	for _, tx := range candidates {
		if len(out) >= max {
			break
		}
		n, err := get(tx.Public)
		if err != nil {
			return nil, err
		}
		if n != tx.Nonce {
			continue
		}
		out = append(out, tx)
		projected[hex.EncodeToString(tx.Public)] = tx.Nonce + 1
	}
	return out, nil
}

func (a *Actor) handleBroadcast(m BroadcastMsg) {
	if !a.lastBuiltOk || a.lastBuilt.Hash() != m.Payload.Hash() {
		return
	}
	a.marshal.Store(m.Payload)
}

// handleVerify checks the proposal's structural invariants against its
// parent (fetched from the marshal, never trusted from the wire directly),
// then batch-verifies every transaction signature before persisting it
// (spec §4.5/§4.9).
func (a *Actor) handleVerify(m VerifyMsg) error {
	parent, ok := a.marshal.Block(m.Parent)
	if !ok {
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: parent %x not found", m.Parent)})
		return nil
	}
	switch {
	case m.Payload.View != m.Round:
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: view mismatch: got %d want %d", m.Payload.View, m.Round)})
		return nil
	case m.Payload.Height != parent.Height+1:
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: height mismatch: got %d want %d", m.Payload.Height, parent.Height+1)})
		return nil
	case m.Payload.ParentHash != parent.Hash():
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: parent hash mismatch")})
		return nil
	case len(m.Payload.Transactions) > a.cfg.MaxBlockTransactions:
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: %d transactions exceeds max %d", len(m.Payload.Transactions), a.cfg.MaxBlockTransactions)})
		return nil
	}
	// engine.Prepare's own cap check is a subset of the a.cfg.MaxBlockTransactions
	// check above (a valid deployment sets the two equal); the duplicate
	// (public, nonce) rejection is the reason for this call.
	if err := engine.Prepare(m.Payload.Transactions); err != nil {
		reply(m.Reply, VerifyResult{Ok: false, Err: err})
		return nil
	}
	if idx, err := domain.VerifyBatch(m.Payload.Transactions); idx != -1 {
		reply(m.Reply, VerifyResult{Ok: false, Err: fmt.Errorf("pipeline: transaction %d failed signature verification: %w", idx, err)})
		return nil
	}

	a.marshal.Store(m.Payload)
	a.ancestry.Add(m.Payload)
	reply(m.Reply, VerifyResult{Ok: true})
	return nil
}

// handleFinalized spawns the seed fetch as its own goroutine (spec §4.9:
// "Spawn a task to fetch the block's view seed; when available, forward as
// Seeded") so the actor's own select loop keeps servicing other messages
// while the seeder round trip is in flight.
func (a *Actor) handleFinalized(ctx context.Context, m FinalizedMsg) {
	a.metrics.BlocksFinalized.Inc()
	go func() {
		seed, ok, err := a.seedSource.FetchSeed(ctx, m.Block.View)
		if err != nil {
			select {
			case a.fatal <- fmt.Errorf("pipeline: fetch seed for view %d: %w", m.Block.View, err):
			case <-ctx.Done():
			}
			return
		}
		if !ok {
			a.log.Error("seed never revealed for finalized block's view", "view", m.Block.View, "height", m.Block.Height)
			return
		}
		select {
		case a.mailbox <- SeededMsg{Block: m.Block, Seed: seed}:
		case <-ctx.Done():
		}
	}()
}

// handleSeeded is the only place state/events are mutated: nonce gate,
// precompute, apply, commit, sync, then mempool retention and proof-job
// enqueueing (spec §4.7, §4.9).
func (a *Actor) handleSeeded(ctx context.Context, m SeededMsg) error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	a.seedMu.Lock()
	a.revealedSeeds[m.Seed.View] = m.Seed
	fetch := a.makeSeedFetcherLocked()
	a.seedMu.Unlock()

	l := layer.New(a.state, m.Seed, nil)
	now := domain.ViewTime(m.Block.View)
	result, err := engine.Execute(l, m.Block.View, now, a.cfg.Namespace, a.cfg.MasterPublic, fetch, a.cfg.ExecutionConcurrency, m.Block.Transactions)
	if err != nil {
		return fmt.Errorf("pipeline: execute block %d: %w", m.Block.Height, err)
	}

	changes := l.Commit()
	if err := layer.Apply(a.state, changes); err != nil {
		return fmt.Errorf("pipeline: apply committed changes: %w", err)
	}
	for _, ev := range result.Events {
		b, err := ev.Encode()
		if err != nil {
			return fmt.Errorf("pipeline: encode event: %w", err)
		}
		a.events.Append(b)
	}
	a.metrics.EventsEmitted.Add(float64(len(result.Events)))

	stateStart, stateEnd, err := a.state.Sync()
	if err != nil {
		return fmt.Errorf("pipeline: sync state: %w", err)
	}
	eventsStart, eventsEnd, err := a.events.Sync()
	if err != nil {
		return fmt.Errorf("pipeline: sync events: %w", err)
	}
	if err := a.state.SetMetadata(store.CommitMetadata{Height: int64(m.Block.Height), Start: int64(stateStart)}); err != nil {
		return fmt.Errorf("pipeline: set commit metadata: %w", err)
	}

	a.committedHeight = m.Block.Height
	a.metrics.BlocksExecuted.Inc()

	for pubHex, nextNonce := range result.ProcessedNonces {
		public, err := hex.DecodeString(pubHex)
		if err != nil {
			continue
		}
		a.mempool.Retain(public, nextNonce)
	}
	total, _ := a.mempool.Stats()
	a.metrics.MempoolSize.Set(float64(total))

	if stateEnd > stateStart || eventsEnd > eventsStart {
		job := ProofJob{
			Block:       m.Block,
			StateStart:  stateStart,
			StateEnd:    stateEnd,
			EventsStart: eventsStart,
			EventsEnd:   eventsEnd,
		}
		select {
		case a.proofJobs <- job:
			a.metrics.ProofJobsEnqueued.Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// makeSeedFetcherLocked returns a seedlock.SeedFetcher closing over a
// snapshot of the revealed-seeds map. Caller must hold seedMu.
func (a *Actor) makeSeedFetcherLocked() seedlock.SeedFetcher {
	snapshot := make(map[uint64]seedlock.Seed, len(a.revealedSeeds))
	for k, v := range a.revealedSeeds {
		snapshot[k] = v
	}
	return func(view uint64) (seedlock.Seed, bool) {
		s, ok := snapshot[view]
		return s, ok
	}
}

// reply delivers v to ch without blocking the actor loop. Callers are
// expected to hand the actor a reply channel with capacity at least 1 (the
// usual synchronous request/response shape: make it, send the message, then
// receive); the non-blocking send here only guards against a caller that
// abandoned the request entirely (spec §5: Propose/Verify race against a
// cancellation signal), never against ordinary backpressure.
func reply[T any](ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

package pipeline

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
	"ocpengine/internal/mempool"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

type stubSeedSource struct {
	seed seedlock.Seed
	ok   bool
	err  error
}

func (s stubSeedSource) FetchSeed(_ context.Context, _ uint64) (seedlock.Seed, bool, error) {
	return s.seed, s.ok, s.err
}

type stubAggregator struct {
	results chan ProofResult
}

func (a *stubAggregator) SubmitProof(r ProofResult) {
	a.results <- r
}

func newTestActor(t *testing.T) (*Actor, *store.State, *store.EventLog) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	ev, err := store.OpenEventLogMemory()
	require.NoError(t, err)
	mp := mempool.New(1000, 100)
	marshal := NewMemMarshal()
	ancestry, err := NewAncestryCache(64)
	require.NoError(t, err)
	metrics := NewMetrics(nil)
	agg := &stubAggregator{results: make(chan ProofResult, 8)}

	cfg := Config{
		Namespace:            "pipeline-test",
		MaxBlockTransactions: 10,
		ExecutionConcurrency: 2,
		MailboxSize:          8,
		ProofQueueSize:       8,
		GenesisDigest:        [32]byte{0xAA},
	}
	a := NewActor(cfg, log.NewNopLogger(), st, ev, mp, marshal, ancestry, stubSeedSource{ok: true}, agg, metrics)
	return a, st, ev
}

func TestMetricsRegisterWithoutRegistry(t *testing.T) {
	// NewMetrics must tolerate a nil Registerer in tests that never scrape.
	require.NotPanics(t, func() { NewMetrics(nil) })
}

func TestActorGenesisReplies(t *testing.T) {
	a, _, _ := newTestActor(t)
	reply := make(chan [32]byte, 1)
	require.NoError(t, a.handle(context.Background(), GenesisMsg{Reply: reply}))
	require.Equal(t, a.cfg.GenesisDigest, <-reply)
}

func TestActorBroadcastOnlyStoresLastBuilt(t *testing.T) {
	a, _, _ := newTestActor(t)
	genesis := Block{Height: 0}
	a.ancestry.Add(genesis)

	reply := make(chan ProposeResult, 1)
	require.NoError(t, a.handle(context.Background(), ProposeMsg{Round: 1, Parent: genesis.Hash(), Reply: reply}))
	res := <-reply
	require.True(t, res.Ok)
	require.Equal(t, uint64(1), res.Block.Height)

	other := Block{Height: 1, View: 99}
	require.NoError(t, a.handle(context.Background(), BroadcastMsg{Payload: other}))
	_, ok := a.marshal.Block(other.Hash())
	require.False(t, ok, "mismatched payload must not be stored")

	require.NoError(t, a.handle(context.Background(), BroadcastMsg{Payload: res.Block}))
	_, ok = a.marshal.Block(res.Block.Hash())
	require.True(t, ok, "last-built payload must be stored")
}

func TestActorProposeDefersUntilAncestrySupplied(t *testing.T) {
	a, _, _ := newTestActor(t)
	genesis := Block{Height: 0}
	parent := genesis.Hash()

	reply := make(chan ProposeResult, 1)
	require.NoError(t, a.handle(context.Background(), ProposeMsg{Round: 5, Parent: parent, Reply: reply}))
	res := <-reply
	require.False(t, res.Ok)
	require.Equal(t, parent, a.pendingParent[5])

	ancestryReply := make(chan ProposeResult, 1)
	require.NoError(t, a.handle(context.Background(), AncestryMsg{Round: 5, Blocks: []Block{genesis}, Reply: ancestryReply}))
	res = <-ancestryReply
	require.True(t, res.Ok)
	require.Equal(t, uint64(1), res.Block.Height)
	_, pending := a.pendingParent[5]
	require.False(t, pending)
}

func TestActorVerifyRejectsBadSignature(t *testing.T) {
	a, _, _ := newTestActor(t)
	genesis := Block{Height: 0}
	a.marshal.Store(genesis)

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, err := domain.EncodeInstruction(domain.InstrRegister, struct{}{})
	require.NoError(t, err)
	tx := domain.Transaction{Public: pub, Nonce: 0, Instruction: instr, Signature: []byte("not-a-real-signature")}

	payload := Block{Height: 1, View: 1, ParentHash: genesis.Hash(), Transactions: []domain.Transaction{tx}}
	reply := make(chan VerifyResult, 1)
	require.NoError(t, a.handle(context.Background(), VerifyMsg{Round: 1, Parent: genesis.Hash(), Payload: payload, Reply: reply}))
	res := <-reply
	require.False(t, res.Ok)
	require.Error(t, res.Err)
}

func TestActorVerifyAcceptsSignedBlock(t *testing.T) {
	a, _, _ := newTestActor(t)
	genesis := Block{Height: 0}
	a.marshal.Store(genesis)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, err := domain.EncodeInstruction(domain.InstrRegister, struct{}{})
	require.NoError(t, err)
	tx := domain.Transaction{Public: pub, Nonce: 0, Instruction: instr}
	tx.Sign(priv)

	payload := Block{Height: 1, View: 1, ParentHash: genesis.Hash(), Transactions: []domain.Transaction{tx}}
	reply := make(chan VerifyResult, 1)
	require.NoError(t, a.handle(context.Background(), VerifyMsg{Round: 1, Parent: genesis.Hash(), Payload: payload, Reply: reply}))
	res := <-reply
	require.True(t, res.Ok)
	require.NoError(t, res.Err)

	_, ok := a.marshal.Block(payload.Hash())
	require.True(t, ok)
}

func TestActorVerifyRejectsDuplicateNonceWithinBlock(t *testing.T) {
	a, _, _ := newTestActor(t)
	genesis := Block{Height: 0}
	a.marshal.Store(genesis)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, err := domain.EncodeInstruction(domain.InstrRegister, struct{}{})
	require.NoError(t, err)

	tx1 := domain.Transaction{Public: pub, Nonce: 0, Instruction: instr}
	tx1.Sign(priv)
	tx2 := domain.Transaction{Public: pub, Nonce: 0, Instruction: instr}
	tx2.Sign(priv)

	payload := Block{Height: 1, View: 1, ParentHash: genesis.Hash(), Transactions: []domain.Transaction{tx1, tx2}}
	reply := make(chan VerifyResult, 1)
	require.NoError(t, a.handle(context.Background(), VerifyMsg{Round: 1, Parent: genesis.Hash(), Payload: payload, Reply: reply}))
	res := <-reply
	require.False(t, res.Ok)
	require.Error(t, res.Err)

	_, ok := a.marshal.Block(payload.Hash())
	require.False(t, ok, "a block rejected at Prepare must not be stored")
}

func TestActorSeededExecutesCommitsAndEnqueuesProof(t *testing.T) {
	a, st, _ := newTestActor(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	instr, err := domain.EncodeInstruction(domain.InstrRegister, struct{}{})
	require.NoError(t, err)
	tx := domain.Transaction{Public: pub, Nonce: 0, Instruction: instr}
	tx.Sign(priv)

	block := Block{Height: 1, View: 1, Transactions: []domain.Transaction{tx}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, a.handle(ctx, SeededMsg{Block: block, Seed: seedlock.Seed{View: 1}}))

	acct, err := st.GetAccount(pub)
	require.NoError(t, err)
	require.Equal(t, uint64(1), acct.Nonce)
	require.Equal(t, uint64(1), a.committedHeight)

	select {
	case job := <-a.proofJobs:
		require.Equal(t, uint64(1), job.Block.Height)
	default:
		t.Fatal("expected a proof job to be enqueued")
	}
}

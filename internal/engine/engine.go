// Package engine runs one block's transactions against a Layer: admission
// through the nonce gate, a precompute pass that resolves every timelocked
// move the block will need, then in-order apply.
package engine

import (
	"encoding/hex"

	"ocpengine/internal/battle"
	"ocpengine/internal/casino"
	"ocpengine/internal/domain"
	"ocpengine/internal/economy"
	"ocpengine/internal/layer"
	"ocpengine/internal/noncegate"
	"ocpengine/internal/seedlock"
)

// Result is what a block's execution hands back to the caller. The caller
// commits the Layer separately (Execute never calls Commit itself, so a
// dry-run or a replay can inspect the Layer before durable state changes).
type Result struct {
	Events []domain.Event

	// ProcessedNonces maps a hex-encoded public key to the next nonce the
	// account expects, for every account with at least one accepted
	// transaction in the block. Mempool retention drops entries below it.
	ProcessedNonces map[string]uint64
}

// Execute admits, precomputes, and applies every transaction in txs against
// l, in order. A rejected-at-admission transaction contributes a
// NonceMismatch event and is skipped; everything else always produces
// exactly one event. An error return means an infrastructure failure deep in
// apply (state I/O): the caller aborts the block rather than commit a
// partial Layer.
func Execute(
	l *layer.Layer,
	view uint64,
	now int64,
	namespace string,
	masterPublic []byte,
	fetch seedlock.SeedFetcher,
	concurrency int,
	txs []domain.Transaction,
) (Result, error) {
	accepted := make([]domain.Transaction, 0, len(txs))
	result := Result{ProcessedNonces: make(map[string]uint64)}

	for _, tx := range txs {
		admit, err := noncegate.Prepare(l, tx.Public, tx.Nonce)
		if err != nil {
			return Result{}, err
		}
		if admit.Outcome != noncegate.Accepted {
			result.Events = append(result.Events, domain.NewCasinoError(domain.ErrNonceMismatch, nil))
			continue
		}
		accepted = append(accepted, tx)
		result.ProcessedNonces[hex.EncodeToString(tx.Public)] = tx.Nonce + 1
	}

	tasks, err := extractTasks(l, accepted)
	if err != nil {
		return Result{}, err
	}
	cache, err := seedlock.Extract(namespace, masterPublic, view, l.Seed, tasks, fetch, concurrency)
	if err != nil {
		return Result{}, err
	}
	l.Cache = cache

	for _, tx := range accepted {
		ev, err := route(l, tx.Public, view, now, tx.Instruction)
		if err != nil {
			return Result{}, err
		}
		result.Events = append(result.Events, ev)
	}
	return result, nil
}

// extractTasks scans every accepted transaction's Settle instructions and
// resolves the caller's battle to find the ciphertexts that will need
// decrypting, before any transaction in the block is applied. Anything not
// a Settle, or whose target battle can't be resolved, contributes nothing:
// the handler will find the same absence at apply time and fall back to its
// own admission-error path.
func extractTasks(l *layer.Layer, txs []domain.Transaction) ([]seedlock.Task, error) {
	var tasks []seedlock.Task
	for _, tx := range txs {
		if tx.Instruction.Type != domain.InstrSettle {
			continue
		}
		player, ok, err := l.GetCasinoPlayer(tx.Public)
		if err != nil {
			return nil, err
		}
		if !ok || player.ActiveBattleID == 0 {
			continue
		}
		b, ok, err := l.GetBattle(player.ActiveBattleID)
		if err != nil {
			return nil, err
		}
		if !ok || b.IsOver {
			continue
		}
		tasks = append(tasks, seedlock.SeedTask(b.RoundExpiryView))
		if len(b.A.PendingMove) == 32 {
			tasks = append(tasks, seedlock.DecryptTask(b.RoundExpiryView, b.A.PendingMove))
		}
		if len(b.B.PendingMove) == 32 {
			tasks = append(tasks, seedlock.DecryptTask(b.RoundExpiryView, b.B.PendingMove))
		}
	}
	return tasks, nil
}

// route picks the one handler package that owns instr.Type. An instruction
// nothing claims surfaces as an admission-tier error rather than aborting
// the block: a malformed or unroutable instruction is the caller's fault,
// not an infrastructure failure.
func route(l *layer.Layer, public []byte, view uint64, now int64, instr domain.Instruction) (domain.Event, error) {
	switch {
	case battle.Handles(instr.Type):
		return battle.Dispatch(l, public, view, now, instr)
	case casino.Handles(instr.Type):
		return casino.Dispatch(l, public, view, now, instr)
	case economy.Handles(instr.Type):
		return economy.Dispatch(l, public, view, now, instr)
	default:
		return domain.NewCasinoError(domain.ErrInvalidMove, nil), nil
	}
}

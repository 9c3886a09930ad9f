package engine

import (
	"encoding/hex"
	"fmt"

	"ocpengine/internal/domain"
)

// Prepare runs the structural checks a proposed block must pass before
// signature batch-verification even starts: no more than MaxBlockTransactions
// entries, and no two transactions sharing a (public, nonce) pair. Both are
// caller-visible rejections of the whole proposal, distinct from the
// per-transaction admission skip the nonce gate performs once execution
// actually starts.
func Prepare(txs []domain.Transaction) error {
	if len(txs) > domain.MaxBlockTransactions {
		return fmt.Errorf("engine: block has %d transactions, exceeds cap of %d", len(txs), domain.MaxBlockTransactions)
	}
	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		k := hex.EncodeToString(tx.Public) + ":" + fmt.Sprint(tx.Nonce)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("engine: duplicate (public, nonce) %s within block", k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

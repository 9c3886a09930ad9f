// Package pipeline implements the node's single-threaded actor loop: block
// proposal, verification, seeded execution, and the background proof
// worker, generalized from the teacher's per-request ABCI handlers
// (apps/chain/internal/app) into the explicit mailbox actor spec §4.9
// describes.
package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"ocpengine/internal/domain"
)

// Block is one proposed or finalized unit of execution: a view, its parent,
// and the transactions to apply in order.
type Block struct {
	Height       uint64
	View         uint64
	ParentHash   [32]byte
	Transactions []domain.Transaction
}

// NewBlock enforces the spec §3 Block invariant ("transactions ≤
// MAX_BLOCK_TRANSACTIONS enforced via constructor") for callers that build
// a Block by hand outside the actor's own packBlock.
func NewBlock(height, view uint64, parent [32]byte, txs []domain.Transaction) (Block, error) {
	if len(txs) > domain.MaxBlockTransactions {
		return Block{}, fmt.Errorf("pipeline: %d transactions exceeds max %d", len(txs), domain.MaxBlockTransactions)
	}
	return Block{Height: height, View: view, ParentHash: parent, Transactions: txs}, nil
}

// Hash returns a deterministic digest over the block's height, view, parent,
// and ordered transaction signing bytes — stable across nodes that agree on
// content, independent of JSON map ordering.
func (b Block) Hash() [32]byte {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], b.Height)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], b.View)
	h.Write(buf[:])
	h.Write(b.ParentHash[:])
	for _, tx := range b.Transactions {
		h.Write(tx.SigningBytes())
		h.Write(tx.Signature)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

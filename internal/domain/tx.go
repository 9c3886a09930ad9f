package domain

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"ocpengine/internal/ocpcrypto"
)

// TxNamespace is the domain-separation tag transactions are signed under
// (spec §6: "sign(public, nonce, instruction) under the configured
// namespace bytes").
const TxNamespace = ocpcrypto.TxNamespace

// Transaction is a signed (public, nonce, instruction) triple (spec §4.5).
// It round-trips through JSON for the mempool and wire: JSON is adequate
// here because the signing/verification bytes are computed separately via
// SigningBytes over the canonical instruction encoding, not over this
// struct's own JSON form.
type Transaction struct {
	Public      []byte      `json:"public"`
	Nonce       uint64      `json:"nonce"`
	Instruction Instruction `json:"instruction"`
	Signature   []byte      `json:"signature"`
}

// instructionBytes returns the canonical bytes representing the instruction
// for signing: type length-prefixed, followed by its already-deterministic
// JSON value (json.Marshal of a struct walks fields in declaration order).
func instructionBytes(i Instruction) []byte {
	out := make([]byte, 0, len(i.Type)+len(i.Value)+8)
	out = append(out, byte(len(i.Type)>>24), byte(len(i.Type)>>16), byte(len(i.Type)>>8), byte(len(i.Type)))
	out = append(out, i.Type...)
	out = append(out, i.Value...)
	return out
}

// SigningBytes returns the exact bytes an Ed25519 signature over this
// transaction must cover.
func (tx Transaction) SigningBytes() []byte {
	return ocpcrypto.SigningBytes(TxNamespace, tx.Public, tx.Nonce, instructionBytes(tx.Instruction))
}

// Sign fills in tx.Signature using priv (64-byte Ed25519 private key).
func (tx *Transaction) Sign(priv ed25519.PrivateKey) {
	tx.Signature = ocpcrypto.Sign(priv, TxNamespace, tx.Public, tx.Nonce, instructionBytes(tx.Instruction))
}

// Verify checks tx.Signature against tx.Public.
func (tx Transaction) Verify() bool {
	return ocpcrypto.Verify(tx.Public, TxNamespace, tx.Nonce, instructionBytes(tx.Instruction), tx.Signature) == nil
}

// BatchItem adapts a Transaction to ocpcrypto.VerifyBatch's shape.
func (tx Transaction) BatchItem() ocpcrypto.BatchItem {
	return ocpcrypto.BatchItem{
		Public:           tx.Public,
		Nonce:            tx.Nonce,
		InstructionBytes: instructionBytes(tx.Instruction),
		Signature:        tx.Signature,
	}
}

// VerifyBatch batch-verifies every transaction's signature under the fixed
// namespace (spec §4.5: "Signature verification is batched per block before
// any apply; if the batch fails, the proposal is rejected"). It returns the
// index of the first failing transaction, or -1 if all verified.
func VerifyBatch(txs []Transaction) (int, error) {
	items := make([]ocpcrypto.BatchItem, len(txs))
	for i, tx := range txs {
		items[i] = tx.BatchItem()
	}
	return ocpcrypto.VerifyBatch(TxNamespace, items)
}

// EncodeTransaction/DecodeTransaction implement the wire round-trip used by
// the mempool and block payloads.
func EncodeTransaction(tx Transaction) ([]byte, error) {
	return json.Marshal(tx)
}

func DecodeTransaction(b []byte) (Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(b, &tx); err != nil {
		return Transaction{}, fmt.Errorf("invalid transaction json: %w", err)
	}
	return tx, nil
}

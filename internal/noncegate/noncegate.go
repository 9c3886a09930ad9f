// Package noncegate implements spec §4.3: the admission check that runs
// before precompute extraction and apply, on the same Layer so intra-block
// nonce progression is visible to later transactions in the block.
package noncegate

import "ocpengine/internal/layer"

// Outcome is the closed rejection set from spec §4.3.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedMismatch
)

// Result reports why prepare skipped a transaction, mirroring the
// NonceMismatch{expected, got} shape from the spec's admission taxonomy.
type Result struct {
	Outcome  Outcome
	Expected uint64
	Got      uint64
}

// Prepare loads Account(public) (default nonce 0 if absent), and either
// bumps the stored nonce and returns Accepted, or leaves state untouched and
// returns RejectedMismatch. A gap or duplicate is a skip, never an error.
func Prepare(l *layer.Layer, public []byte, nonce uint64) (Result, error) {
	acct, err := l.GetAccount(public)
	if err != nil {
		return Result{}, err
	}
	if acct.Nonce != nonce {
		return Result{Outcome: RejectedMismatch, Expected: acct.Nonce, Got: nonce}, nil
	}
	acct.Nonce = nonce + 1
	if err := l.PutAccount(public, acct); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Accepted}, nil
}

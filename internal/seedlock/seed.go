// Package seedlock implements spec §4.4: per-view verifiable randomness
// seeds, timelock ciphertexts gated on a future view's seed, and the
// precomputation cache the execution engine populates once per block and
// handlers consult deterministically during apply.
package seedlock

import "ocpengine/internal/ocpcrypto"

// Seed is a per-view randomness beacon: a BLS12-381 threshold signature over
// a view-namespaced message (spec §3, §4.4).
type Seed struct {
	View      uint64
	Signature []byte
}

// Verify checks the seed's threshold signature against the consensus
// master public key. Seeds for the active view are trusted without recheck
// by the engine (spec §4.4) — this is the check the seeder/consensus layer
// performs before ever handing a Seed to the pipeline actor.
func (s Seed) Verify(namespace string, masterPublic []byte) error {
	return ocpcrypto.VerifySeedSignature(namespace, s.View, masterPublic, s.Signature)
}

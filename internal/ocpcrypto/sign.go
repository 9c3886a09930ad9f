package ocpcrypto

import (
	"crypto/ed25519"
	"fmt"
)

// TxNamespace is the domain separator bound into every transaction signature.
// The tx_namespace configuration value does not replace it.
const TxNamespace = "ocpengine/v1/tx"

// SigningBytes returns the exact bytes signed by a transaction: the
// namespace, the signer's public key, the nonce, and the canonical encoding
// of the instruction, each length-prefixed so no two distinct triples can
// collide on the same byte string.
func SigningBytes(namespace string, public ed25519.PublicKey, nonce uint64, instructionBytes []byte) []byte {
	d := HashDomain(namespace, []byte(public), u64le(nonce), instructionBytes)
	return d[:]
}

// Sign produces an Ed25519 signature over SigningBytes.
func Sign(priv ed25519.PrivateKey, namespace string, public ed25519.PublicKey, nonce uint64, instructionBytes []byte) []byte {
	msg := SigningBytes(namespace, public, nonce, instructionBytes)
	return ed25519.Sign(priv, msg)
}

// Verify checks a single transaction signature.
func Verify(public ed25519.PublicKey, namespace string, nonce uint64, instructionBytes, sig []byte) error {
	if len(public) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length %d", len(public))
	}
	msg := SigningBytes(namespace, public, nonce, instructionBytes)
	if !ed25519.Verify(public, msg, sig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

// BatchItem is one signature to verify as part of a block's batch check.
type BatchItem struct {
	Public           ed25519.PublicKey
	Nonce            uint64
	InstructionBytes []byte
	Signature        []byte
}

// VerifyBatch verifies every item and returns the index of the first failure,
// or -1 if all signatures are valid. Per spec §4.5, a single bad signature in
// the batch rejects the whole proposal.
func VerifyBatch(namespace string, items []BatchItem) (int, error) {
	for i, it := range items {
		if err := Verify(it.Public, namespace, it.Nonce, it.InstructionBytes, it.Signature); err != nil {
			return i, err
		}
	}
	return -1, nil
}

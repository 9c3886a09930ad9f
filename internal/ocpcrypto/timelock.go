package ocpcrypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// timelockDomain binds a ciphertext to the view it targets; the keystream is
// only computable once that view's seed signature is public.
const timelockDomain = "ocpengine/v1/timelock"

// TimelockKey derives the symmetric keystream key for a ciphertext targeting
// targetView from that view's revealed BLS signature bytes. Anyone who has
// observed the seed can derive the same key; nobody can before it is
// revealed, which is the entirety of the timelock property (spec §4.4).
func TimelockKey(targetView uint64, revealedSeedSignature []byte) [32]byte {
	return HashDomain(timelockDomain, u64le(targetView), revealedSeedSignature)
}

// SealMove encrypts a single move byte plus 31 bytes of padding into a
// 32-byte ciphertext payload decryptable once targetView's seed is revealed.
func SealMove(targetView uint64, revealedSeedSignature []byte, move byte, padding [31]byte) ([]byte, error) {
	key := TimelockKey(targetView, revealedSeedSignature)
	plain := make([]byte, 32)
	plain[0] = move
	copy(plain[1:], padding[:])
	return xorKeystream(key, plain)
}

// OpenMove decrypts a 32-byte timelock ciphertext once the target view's
// seed signature is known. The first output byte is the encoded move; values
// outside the legal move range are the caller's responsibility to clamp to 0
// (spec §4.4: "out-of-range -> treated as move 0").
func OpenMove(targetView uint64, revealedSeedSignature, ciphertext []byte) (byte, error) {
	if len(ciphertext) != 32 {
		return 0, fmt.Errorf("timelock: ciphertext must be 32 bytes, got %d", len(ciphertext))
	}
	key := TimelockKey(targetView, revealedSeedSignature)
	plain, err := xorKeystream(key, ciphertext)
	if err != nil {
		return 0, err
	}
	return plain[0], nil
}

func xorKeystream(key [32]byte, in []byte) ([]byte, error) {
	var nonce [chacha20.NonceSize]byte // zero nonce is safe: key is single-use per (view, seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("timelock: init cipher: %w", err)
	}
	out := make([]byte, len(in))
	c.XORKeyStream(out, in)
	return out, nil
}

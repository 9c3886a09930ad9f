package ocpcrypto

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// EncodeU64LE and EncodeU32LE expose the length-prefixing helpers' integer
// encodings for callers building DomainRNG seeds from structured context.
func EncodeU64LE(x uint64) []byte { return u64le(x) }
func EncodeU32LE(x uint32) []byte { return u32le(x) }

func u32le(x uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, x)
	return b
}

func u64le(x uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, x)
	return b
}

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashDomain hashes domain-separated, length-prefixed parts into a 32-byte
// digest. Length-prefixing avoids ambiguous concatenations across parts.
func HashDomain(domain string, parts ...[]byte) [32]byte {
	h := sha256.New()
	updateLenBytes(h, []byte(domain))
	for _, p := range parts {
		updateLenBytes(h, p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

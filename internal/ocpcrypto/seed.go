package ocpcrypto

import (
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// SeedDST is the BLS12-381 ciphersuite domain separation tag used for
// threshold seed signatures, matching consensus's seed-namespace + view
// convention (spec §6).
const SeedDST = "OCPENGINE-V1-SEED-BLS12381G2_XMD:SHA-256_SSWU_RO_"

// SeedMessage returns the namespaced message a view's threshold signature is
// computed over: domain || view.
func SeedMessage(namespace string, view uint64) []byte {
	d := HashDomain(namespace, u64le(view))
	return d[:]
}

// VerifySeedSignature checks a BLS12-381 threshold signature (G2 point, 96
// bytes compressed) against a master public key (G1 point, 48 bytes
// compressed) for the given namespaced view message. Seeds for the active
// view are trusted without recheck by the engine (§4.4); this function backs
// the checks the consensus layer and the seeder perform before a seed is
// handed to the engine at all.
func VerifySeedSignature(namespace string, view uint64, masterPublic []byte, signature []byte) error {
	pk := new(blst.P1Affine).Uncompress(masterPublic)
	if pk == nil {
		return fmt.Errorf("seed: invalid master public key encoding")
	}
	if !pk.KeyValidate() {
		return fmt.Errorf("seed: master public key fails subgroup check")
	}
	sig := new(blst.P2Affine).Uncompress(signature)
	if sig == nil {
		return fmt.Errorf("seed: invalid signature encoding")
	}
	msg := SeedMessage(namespace, view)
	if !sig.Verify(true, pk, true, msg, []byte(SeedDST)) {
		return fmt.Errorf("seed: signature verification failed for view %d", view)
	}
	return nil
}

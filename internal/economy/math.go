package economy

import sdkmath "cosmossdk.io/math"

// MulDivU128 computes floor(a*b/d) with the multiply widened past 64 bits
// (spec §4.6: "all arithmetic widened to 128-bit intermediates"), using
// cosmossdk.io/math.Uint rather than hand-rolling a 128-bit multiply. Exported so
// internal/casino's tournament weighting can share it.
func MulDivU128(a, b, d uint64) uint64 {
	if d == 0 {
		return 0
	}
	r := sdkmath.NewUint(a).Mul(sdkmath.NewUint(b)).Quo(sdkmath.NewUint(d))
	return r.Uint64()
}

func mulDivU128(a, b, d uint64) uint64 { return MulDivU128(a, b, d) }

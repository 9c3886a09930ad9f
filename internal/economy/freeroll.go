package economy

import (
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

// vestedLocked returns how much of a FreerollCredit's locked balance has
// linearly vested by now, clamped to the locked amount.
func vestedLocked(c store.FreerollCredit, now int64) uint64 {
	if c.Locked == 0 || now <= c.VestStart {
		return 0
	}
	if now >= c.VestEnd || c.VestEnd <= c.VestStart {
		return c.Locked
	}
	elapsed := uint64(now - c.VestStart)
	total := uint64(c.VestEnd - c.VestStart)
	return mulDiv(c.Locked, elapsed, total)
}

// AwardFreerollCredits implements spec §4.6: expire idle credits, vest what
// has linearly unlocked so far, then split the new award into an immediate
// portion and a locked portion whose vest end extends to at least
// now+credit_vest_secs.
func AwardFreerollCredits(l *layer.Layer, public []byte, amount uint64, now int64, policy store.PolicyState) error {
	c, err := l.GetFreerollCredit(public)
	if err != nil {
		return err
	}

	if c.LastActivity > 0 && now-c.LastActivity > policy.CreditExpirySecs {
		c = store.FreerollCredit{}
	}

	vested := vestedLocked(c, now)
	c.Immediate += vested
	c.Locked -= vested
	if c.Locked == 0 {
		c.VestStart = 0
		c.VestEnd = 0
	} else {
		c.VestStart = now
	}

	immediate := mulDiv(amount, uint64(policy.CreditImmediateBps), 10_000)
	locked := amount - immediate

	c.Immediate += immediate
	if locked > 0 {
		c.Locked += locked
		vestEnd := now + policy.CreditVestSecs
		if c.VestEnd < vestEnd {
			c.VestEnd = vestEnd
		}
		if c.VestStart == 0 {
			c.VestStart = now
		}
	}
	c.LastActivity = now

	return l.PutFreerollCredit(public, c)
}

func mulDiv(a, b, d uint64) uint64 {
	return mulDivU128(a, b, d)
}

package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

// SetTreasury is admin-gated by the caller (handlers.go).
func SetTreasury(l *layer.Layer, payload domain.SetTreasuryPayload) (domain.Event, error) {
	t := store.Treasury{AdminPublicHex: payload.AdminPublicHex}
	if err := l.PutTreasury(t); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, payload)
}

// SetTreasuryVesting overwrites the six vesting buckets wholesale; admin
// gated by the caller.
func SetTreasuryVesting(l *layer.Layer, payload domain.SetTreasuryVestingPayload) (domain.Event, error) {
	if len(payload.Vesting) == 0 {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	var v store.TreasuryVesting
	if err := decodeJSON(payload.Vesting, &v); err != nil {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	if err := l.PutTreasuryVesting(v); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, payload)
}

func bucketPtr(v *store.TreasuryVesting, name string) *store.VestingBucket {
	switch name {
	case "auction":
		return &v.Auction
	case "liquidity":
		return &v.Liquidity
	case "bonus":
		return &v.Bonus
	case "player":
		return &v.Player
	case "treasury":
		return &v.TreasuryB
	case "team":
		return &v.Team
	default:
		return nil
	}
}

// vestedAmount is the linear-vesting schedule shared by every bucket:
// allocation * min(elapsed, duration) / duration.
func vestedAmount(b store.VestingBucket, now int64) uint64 {
	if b.DurationSecs <= 0 {
		return b.Allocation
	}
	elapsed := now - b.StartTs
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= b.DurationSecs {
		return b.Allocation
	}
	return mulDivU128(b.Allocation, uint64(elapsed), uint64(b.DurationSecs))
}

// ReleaseTreasuryAllocation pays out min(requested, vested-released) from
// the named bucket into the house issuance ledger, clamped to never exceed
// the linear vesting schedule (spec §4.6 supplement).
func ReleaseTreasuryAllocation(l *layer.Layer, now int64, payload domain.ReleaseAllocationPayload) (domain.Event, error) {
	v, err := l.GetTreasuryVesting()
	if err != nil {
		return domain.Event{}, err
	}
	b := bucketPtr(&v, payload.Bucket)
	if b == nil {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	vested := vestedAmount(*b, now)
	releasable := uint64(0)
	if vested > b.Released {
		releasable = vested - b.Released
	}
	amount := payload.Amount
	if amount > releasable {
		amount = releasable
	}
	b.Released += amount

	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	h.TotalIssuance += amount

	if err := l.PutTreasuryVesting(v); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventAllocationRelease, struct {
		Bucket   string `json:"bucket"`
		Released uint64 `json:"released"`
	}{Bucket: payload.Bucket, Released: amount})
}

package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

// SetPolicy overwrites the risk-parameter singleton wholesale. Admin-gated
// by the caller (handlers.go).
func SetPolicy(l *layer.Layer, payload domain.SetPolicyPayload) (domain.Event, error) {
	var p store.PolicyState
	if err := decodeJSON(payload.Policy, &p); err != nil {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	if err := l.PutPolicy(p); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, payload)
}

// FundRecoveryPool sweeps up to amount out of accumulated house fees into
// the recovery pool. LiquidateVault also credits this pool with its share of
// the penalty; no handler other than RetireRecoveryPool draws from it.
func FundRecoveryPool(l *layer.Layer, payload domain.FundRecoveryPoolPayload) (domain.Event, error) {
	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	amount := payload.Amount
	if amount > h.AccumulatedFees {
		amount = h.AccumulatedFees
	}
	h.AccumulatedFees -= amount
	h.RecoveryPoolVusdt += amount
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, struct {
		Funded uint64 `json:"funded"`
	}{Funded: amount})
}

// RetireRecoveryPool removes up to amount from the recovery pool. The
// retired amount is not credited to AccumulatedFees, issuance, or any other
// balance.
func RetireRecoveryPool(l *layer.Layer, payload domain.RetireRecoveryPoolPayload) (domain.Event, error) {
	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	amount := payload.Amount
	if amount > h.RecoveryPoolVusdt {
		amount = h.RecoveryPoolVusdt
	}
	h.RecoveryPoolVusdt -= amount
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, struct {
		Retired uint64 `json:"retired"`
	}{Retired: amount})
}

// SeedAmmBootstrap sets the pool's initial reserves and bootstrap reference
// price once, before any liquidity provider has minted shares. A second
// call onto an already-seeded pool is rejected.
func SeedAmmBootstrap(l *layer.Layer, payload domain.SeedAmmBootstrapPayload) (domain.Event, error) {
	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	if pool.TotalShares != 0 || pool.ReserveRng != 0 || pool.ReserveVusdt != 0 {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	if payload.PriceDenominator == 0 {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	pool.ReserveRng = payload.ReserveRNG
	pool.ReserveVusdt = payload.ReserveVUSDT
	pool.BootstrapPriceNumerator = payload.PriceNumerator
	pool.BootstrapPriceDenominator = payload.PriceDenominator
	if err := l.PutAmmPool(pool); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, payload)
}

// FinalizeAmmBootstrap mints the seeded reserves into the first liquidity
// share tranche (spec §4.6: "initial-liquidity mint with MINIMUM_LIQUIDITY
// lock"), completing the two-step admin bootstrap.
func FinalizeAmmBootstrap(l *layer.Layer, adminPublic []byte) (domain.Event, error) {
	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	if pool.TotalShares != 0 {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	if pool.ReserveRng == 0 || pool.ReserveVusdt == 0 {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	minted := isqrtProduct(pool.ReserveRng, pool.ReserveVusdt)
	if minted <= domain.MinimumLiquidity {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	minted -= domain.MinimumLiquidity
	pool.TotalShares = domain.MinimumLiquidity + minted

	lp, err := l.GetLpBalance(adminPublic)
	if err != nil {
		return domain.Event{}, err
	}
	lp += minted

	if err := l.PutAmmPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutLpBalance(adminPublic, lp); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventLiquidityAdded, struct {
		Minted uint64 `json:"minted"`
	}{Minted: minted})
}

package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

// effectivePrice picks between the AMM spot price and the oracle price per
// spec §9: for borrow, the side implying LOWER collateral value wins
// (protects the protocol); for liquidation, the side implying HIGHER
// collateral value wins. A stale or cleared oracle falls back to AMM.
// Price is expressed as numerator/denominator of vUSDT per unit collateral.
func effectivePrice(pool store.AmmPool, oracle store.OracleState, now int64, forBorrow bool, policy store.PolicyState) (num, den uint64) {
	ammNum, ammDen := pool.ReserveVusdt, pool.ReserveRng
	if ammDen == 0 {
		ammNum, ammDen = 1, 1
	}
	if oracle.PriceDenominator == 0 || (oracle.StaleAfterSecs > 0 && now-oracle.UpdatedAt > oracle.StaleAfterSecs) {
		return ammNum, ammDen
	}

	// deviation check: |amm - oracle| / oracle > max_deviation_bps
	ammValue := mulDivU128(ammNum, oracle.PriceDenominator, 1)
	oracleValue := mulDivU128(oracle.PriceNumerator, ammDen, 1)
	diff := ammValue
	if oracleValue > diff {
		diff = oracleValue - diff
	} else {
		diff = diff - oracleValue
	}
	base := oracleValue
	if base == 0 {
		base = 1
	}
	deviationBps := mulDivU128(diff, 10_000, base)
	if deviationBps <= uint64(policy.OracleMaxDeviationBps) {
		return ammNum, ammDen
	}

	ammCollateralValue := mulDivU128(1, ammNum, ammDen)
	oracleCollateralValue := mulDivU128(1, oracle.PriceNumerator, oracle.PriceDenominator)
	if forBorrow {
		if ammCollateralValue < oracleCollateralValue {
			return ammNum, ammDen
		}
		return oracle.PriceNumerator, oracle.PriceDenominator
	}
	if ammCollateralValue > oracleCollateralValue {
		return ammNum, ammDen
	}
	return oracle.PriceNumerator, oracle.PriceDenominator
}

func collateralValue(collateral uint64, num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	return mulDivU128(collateral, num, den)
}

func accrueInterest(l *layer.Layer, v *store.Vault, now int64, policy store.PolicyState) error {
	if v.DebtVusdt == 0 {
		v.LastAccrualTs = now
		return nil
	}
	elapsed := now - v.LastAccrualTs
	if elapsed <= 0 {
		return nil
	}
	annualFee := mulDivU128(v.DebtVusdt, uint64(policy.StabilityFeeAprBps), 10_000)
	interest := mulDivU128(annualFee, uint64(elapsed), domain.SecondsPerYear)
	if interest == 0 {
		v.LastAccrualTs = now
		return nil
	}
	v.DebtVusdt += interest
	v.LastAccrualTs = now

	// interest routes to savings rewards (spec §4.6).
	pool, err := l.GetSavingsPool()
	if err != nil {
		return err
	}
	pool.PendingRewards += interest
	pool.TotalRewardsAccrued += interest
	if err := l.PutSavingsPool(pool); err != nil {
		return err
	}
	h, err := l.GetHouseState()
	if err != nil {
		return err
	}
	h.StabilityFeesAccrued += interest
	return l.PutHouseState(h)
}

// DepositCollateral transfers chips into the vault.
func DepositCollateral(l *layer.Layer, public []byte, payload domain.DepositCollateralPayload) (domain.Event, error) {
	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if player.CashChips < payload.Amount {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	v, _, err := l.GetVault(public)
	if err != nil {
		return domain.Event{}, err
	}
	v.Owner = hexEncode(public)
	v.CollateralRng += payload.Amount
	player.CashChips -= payload.Amount

	if err := l.PutVault(v); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventVaultBorrowed, struct {
		CollateralAdded uint64 `json:"collateralAdded"`
	}{CollateralAdded: payload.Amount})
}

// BorrowUSDT implements spec §4.6: accrue interest, compute LTV under the
// oracle-gated effective price, enforce max LTV and the global debt
// ceiling, then credit vUSDT.
func BorrowUSDT(l *layer.Layer, public []byte, now int64, payload domain.BorrowUSDTPayload) (domain.Event, error) {
	v, ok, err := l.GetVault(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}
	if err := accrueInterest(l, &v, now, policy); err != nil {
		return domain.Event{}, err
	}

	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	oracle, err := l.GetOracle()
	if err != nil {
		return domain.Event{}, err
	}
	num, den := effectivePrice(pool, oracle, now, true, policy)
	if pool.ReserveRng == 0 && oracle.PriceDenominator == 0 {
		num, den = pool.BootstrapPriceNumerator, pool.BootstrapPriceDenominator
	}

	collateralVal := collateralValue(v.CollateralRng, num, den)
	newDebt := v.DebtVusdt + payload.Amount
	maxDebt := mulDivU128(collateralVal, uint64(policy.MaxLtvBpsNew), 10_000)
	if newDebt > maxDebt {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}

	debtCeiling := mulDivU128(pool.ReserveVusdt, uint64(policy.DebtCeilingBps), 10_000)
	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	if h.TotalVusdtDebt+payload.Amount > debtCeiling {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}

	v.DebtVusdt = newDebt
	h.TotalVusdtDebt += payload.Amount

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	player.VUSDT += payload.Amount

	if err := l.PutVault(v); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventVaultBorrowed, struct {
		NewDebt uint64 `json:"newDebt"`
	}{NewDebt: v.DebtVusdt})
}

// RepayUSDT is the inverse of BorrowUSDT, capped at current debt.
func RepayUSDT(l *layer.Layer, public []byte, now int64, payload domain.RepayUSDTPayload) (domain.Event, error) {
	v, ok, err := l.GetVault(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}
	if err := accrueInterest(l, &v, now, policy); err != nil {
		return domain.Event{}, err
	}

	amount := payload.Amount
	if amount > v.DebtVusdt {
		amount = v.DebtVusdt
	}

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if player.VUSDT < amount {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	player.VUSDT -= amount
	v.DebtVusdt -= amount

	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	if h.TotalVusdtDebt < amount {
		h.TotalVusdtDebt = 0
	} else {
		h.TotalVusdtDebt -= amount
	}

	if err := l.PutVault(v); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventVaultRepaid, struct {
		Repaid     uint64 `json:"repaid"`
		RemainingDebt uint64 `json:"remainingDebt"`
	}{Repaid: amount, RemainingDebt: v.DebtVusdt})
}

// LiquidateVault implements spec §4.6: eligible when debt/collateral_value
// exceeds liquidation_threshold_bps; repay drives LTV back to
// liquidation_target_bps; penalty splits between the liquidator reward and
// the house recovery pool. The oracle-gating function is applied once per
// spec §9's resolved Open Question, not twice.
func LiquidateVault(l *layer.Layer, liquidator, owner []byte, now int64) (domain.Event, error) {
	v, ok, err := l.GetVault(owner)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || v.DebtVusdt == 0 {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}
	if err := accrueInterest(l, &v, now, policy); err != nil {
		return domain.Event{}, err
	}

	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	oracle, err := l.GetOracle()
	if err != nil {
		return domain.Event{}, err
	}
	num, den := effectivePrice(pool, oracle, now, false, policy)

	collateralVal := collateralValue(v.CollateralRng, num, den)
	if collateralVal == 0 {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	ltvBps := mulDivU128(v.DebtVusdt, 10_000, collateralVal)
	if ltvBps <= uint64(policy.LiquidationThresholdBps) {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	// repay amount r solves (debt - r) / (collateralVal - r*den/num) = target
	// approximated here by driving debt down to target * collateralVal / 1e4,
	// which matches the spec's stated intent without modelling collateral
	// seizure's feedback into collateralVal within the same step.
	targetDebt := mulDivU128(collateralVal, uint64(policy.LiquidationTargetBps), 10_000)
	repay := uint64(0)
	if v.DebtVusdt > targetDebt {
		repay = v.DebtVusdt - targetDebt
	}
	if repay > v.DebtVusdt {
		repay = v.DebtVusdt
	}

	liquidatorAcct, ok, err := l.GetCasinoPlayer(liquidator)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if liquidatorAcct.VUSDT < repay {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}

	penalty := mulDivU128(repay, uint64(policy.LiquidationPenaltyBps), 10_000)
	reward := penalty / 2
	stability := penalty - reward

	seizeCollateral := mulDivU128(repay+penalty, den, num)
	if seizeCollateral > v.CollateralRng {
		seizeCollateral = v.CollateralRng
	}

	liquidatorAcct.VUSDT -= repay
	liquidatorAcct.CashChips += reward
	v.DebtVusdt -= repay
	v.CollateralRng -= seizeCollateral

	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	if h.TotalVusdtDebt < repay {
		h.TotalVusdtDebt = 0
	} else {
		h.TotalVusdtDebt -= repay
	}
	h.RecoveryPoolVusdt += stability

	if err := l.PutVault(v); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(liquidator, liquidatorAcct); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventVaultLiquidated, struct {
		Repaid          uint64 `json:"repaid"`
		SeizedCollateral uint64 `json:"seizedCollateral"`
		LiquidatorReward uint64 `json:"liquidatorReward"`
	}{Repaid: repay, SeizedCollateral: seizeCollateral, LiquidatorReward: reward})
}

package economy

import (
	sdkmath "cosmossdk.io/math"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

const rewardScaleX18 = domain.StakingRewardScaleX

func rewardPerShareX18(pool store.SavingsPool) sdkmath.Int {
	if pool.RewardPerShareX18 == "" {
		return sdkmath.ZeroInt()
	}
	i, ok := sdkmath.NewIntFromString(pool.RewardPerShareX18)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return i
}

// distributeSavingsRewards moves pool.PendingRewards into the per-share
// reward accumulator using the x18 fixed-point scale (spec §4.6).
func distributeSavingsRewards(pool *store.SavingsPool) {
	if pool.TotalDeposits == 0 || pool.PendingRewards == 0 {
		return
	}
	added := sdkmath.NewIntFromUint64(pool.PendingRewards).
		MulRaw(rewardScaleX18).
		Quo(sdkmath.NewIntFromUint64(pool.TotalDeposits))
	cur := rewardPerShareX18(*pool)
	pool.RewardPerShareX18 = cur.Add(added).String()
	pool.PendingRewards = 0
}

// settleSavingsRewards computes the pending reward delta since the
// balance's last touch and folds it into UnclaimedRewards (spec §4.6).
func settleSavingsRewards(balance *store.SavingsBalance, pool store.SavingsPool) {
	rps := rewardPerShareX18(pool)
	debt := sdkmath.ZeroInt()
	if balance.RewardDebtX18 != "" {
		if d, ok := sdkmath.NewIntFromString(balance.RewardDebtX18); ok {
			debt = d
		}
	}
	pendingX18 := sdkmath.NewIntFromUint64(balance.DepositBalance).Mul(rps).Sub(debt)
	if pendingX18.IsPositive() {
		balance.UnclaimedRewards += pendingX18.Quo(sdkmath.NewInt(rewardScaleX18)).Uint64()
	}
	balance.RewardDebtX18 = sdkmath.NewIntFromUint64(balance.DepositBalance).Mul(rps).String()
}

// SavingsDeposit settles first, then adjusts balances (spec §4.6).
func SavingsDeposit(l *layer.Layer, public []byte, payload domain.SavingsDepositPayload) (domain.Event, error) {
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

	pool, err := l.GetSavingsPool()
	if err != nil {
		return domain.Event{}, err
	}
	distributeSavingsRewards(&pool)

	balance, err := l.GetSavingsBalance(public)
	if err != nil {
		return domain.Event{}, err
	}
	settleSavingsRewards(&balance, pool)

	balance.DepositBalance += payload.Amount
	pool.TotalDeposits += payload.Amount
	settleSavingsRewards(&balance, pool) // re-sync reward_debt_x18 post-adjustment

	player.CashChips -= payload.Amount

	if err := l.PutSavingsPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutSavingsBalance(public, balance); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSavingsClaimed, struct {
		Deposited uint64 `json:"deposited"`
	}{Deposited: payload.Amount})
}

// SavingsWithdraw is the inverse of SavingsDeposit.
func SavingsWithdraw(l *layer.Layer, public []byte, payload domain.SavingsWithdrawPayload) (domain.Event, error) {
	pool, err := l.GetSavingsPool()
	if err != nil {
		return domain.Event{}, err
	}
	distributeSavingsRewards(&pool)

	balance, err := l.GetSavingsBalance(public)
	if err != nil {
		return domain.Event{}, err
	}
	if balance.DepositBalance < payload.Amount {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}
	settleSavingsRewards(&balance, pool)

	balance.DepositBalance -= payload.Amount
	pool.TotalDeposits -= payload.Amount
	settleSavingsRewards(&balance, pool)

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	player.CashChips += payload.Amount

	if err := l.PutSavingsPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutSavingsBalance(public, balance); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSavingsClaimed, struct {
		Withdrawn uint64 `json:"withdrawn"`
	}{Withdrawn: payload.Amount})
}

// SavingsClaim transfers min(unclaimed, accrued-paid) to the player.
func SavingsClaim(l *layer.Layer, public []byte) (domain.Event, error) {
	pool, err := l.GetSavingsPool()
	if err != nil {
		return domain.Event{}, err
	}
	distributeSavingsRewards(&pool)

	balance, err := l.GetSavingsBalance(public)
	if err != nil {
		return domain.Event{}, err
	}
	settleSavingsRewards(&balance, pool)

	claimable := balance.UnclaimedRewards
	available := uint64(0)
	if pool.TotalRewardsAccrued > pool.TotalRewardsPaid {
		available = pool.TotalRewardsAccrued - pool.TotalRewardsPaid
	}
	amount := claimable
	if available < amount {
		amount = available
	}
	balance.UnclaimedRewards -= amount
	pool.TotalRewardsPaid += amount

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	player.CashChips += amount

	if err := l.PutSavingsPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutSavingsBalance(public, balance); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventSavingsClaimed, struct {
		Claimed uint64 `json:"claimed"`
	}{Claimed: amount})
}

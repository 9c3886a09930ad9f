package economy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

func newLayer(t *testing.T) *layer.Layer {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	return layer.New(st, seedlock.Seed{}, nil)
}

func seedPlayer(t *testing.T, l *layer.Layer, public []byte, cash, vusdt uint64) {
	t.Helper()
	require.NoError(t, l.PutCasinoPlayer(public, store.CasinoPlayer{
		Registered: true,
		CashChips:  cash,
		VUSDT:      vusdt,
	}))
}

func TestSavingsDepositWithdrawClaimRoundTrip(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 1000, 0)

	_, err := SavingsDeposit(l, alice, domain.SavingsDepositPayload{Amount: 400})
	require.NoError(t, err)

	p, _, err := l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(600), p.CashChips)

	pool, err := l.GetSavingsPool()
	require.NoError(t, err)
	require.Equal(t, uint64(400), pool.TotalDeposits)

	pool.PendingRewards = 40
	pool.TotalRewardsAccrued = 40
	require.NoError(t, l.PutSavingsPool(pool))

	ev, err := SavingsClaim(l, alice)
	require.NoError(t, err)
	require.Equal(t, domain.EventSavingsClaimed, ev.Type)

	p, _, err = l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(640), p.CashChips) // 600 + all 40 pending rewards

	_, err = SavingsWithdraw(l, alice, domain.SavingsWithdrawPayload{Amount: 400})
	require.NoError(t, err)
	p, _, err = l.GetCasinoPlayer(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1040), p.CashChips)
}

func TestSwapRejectsSlippage(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 10_000, 0)
	require.NoError(t, l.PutAmmPool(store.AmmPool{
		ReserveRng: 100_000, ReserveVusdt: 100_000, TotalShares: 100_000,
		FeeBps: 30, SellTaxBps: 100, BootstrapPriceDenominator: 1,
	}))
	require.NoError(t, l.PutPolicy(store.PolicyState{
		AmmDailyBuyBpsOfBalance: 10_000, AmmDailySellBpsOfBalance: 10_000, AmmDailyBpsOfPool: 10_000,
	}))

	ev, err := Swap(l, alice, 0, domain.SwapPayload{AmountIn: 1000, MinAmountOut: 1_000_000, SellingRNG: false})
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}

func TestAddLiquidityMintsInitialShares(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 10_000, 10_000)

	ev, err := AddLiquidity(l, alice, domain.AddLiquidityPayload{AmountRNG: 10_000, AmountVUSDT: 10_000})
	require.NoError(t, err)
	require.Equal(t, domain.EventLiquidityAdded, ev.Type)

	pool, err := l.GetAmmPool()
	require.NoError(t, err)
	require.Equal(t, uint64(10_000), pool.ReserveRng)
	require.True(t, pool.TotalShares > domain.MinimumLiquidity)
}

func TestSwapBuyUsesVusdtReserveAsInput(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 0, 100_000)
	// asymmetric pool: a buy (SellingRNG=false) consumes the vUSDT side of
	// the formula's reserve_in, not the RNG side.
	require.NoError(t, l.PutAmmPool(store.AmmPool{
		ReserveRng: 50_000, ReserveVusdt: 200_000, TotalShares: 100_000,
		BootstrapPriceDenominator: 1,
	}))
	require.NoError(t, l.PutPolicy(store.PolicyState{
		AmmDailyBuyBpsOfBalance: 10_000, AmmDailySellBpsOfBalance: 10_000, AmmDailyBpsOfPool: 10_000,
	}))

	ev, err := Swap(l, alice, 0, domain.SwapPayload{AmountIn: 10_000, MinAmountOut: 1, SellingRNG: false})
	require.NoError(t, err)
	require.Equal(t, domain.EventSwapExecuted, ev.Type)

	pool, err := l.GetAmmPool()
	require.NoError(t, err)
	// amount_out = net_in * reserve_rng / (reserve_vusdt + net_in), which
	// is well under reserve_rng; a reversed formula would instead bound
	// the payout by the (larger) vUSDT reserve.
	require.True(t, pool.ReserveRng < 50_000)
	require.True(t, pool.ReserveRng > 50_000-10_000)
}

func TestVaultBorrowRespectsMaxLTV(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 10_000, 0)
	require.NoError(t, l.PutAmmPool(store.AmmPool{
		ReserveRng: 100_000, ReserveVusdt: 100_000, TotalShares: 100_000,
		BootstrapPriceNumerator: 1, BootstrapPriceDenominator: 1,
	}))
	require.NoError(t, l.PutPolicy(store.PolicyState{
		MaxLtvBpsNew: 5_000, DebtCeilingBps: 10_000,
	}))

	_, err := DepositCollateral(l, alice, domain.DepositCollateralPayload{Amount: 1000})
	require.NoError(t, err)

	ev, err := BorrowUSDT(l, alice, 0, domain.BorrowUSDTPayload{Amount: 900})
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type) // exceeds 50% max LTV of 1000 collateral

	ev, err = BorrowUSDT(l, alice, 0, domain.BorrowUSDTPayload{Amount: 400})
	require.NoError(t, err)
	require.Equal(t, domain.EventVaultBorrowed, ev.Type)
}

func TestBridgeDepositRejectsReplayedNullifier(t *testing.T) {
	l := newLayer(t)
	alice := []byte("alice")
	seedPlayer(t, l, alice, 0, 0)

	payload := domain.BridgeDepositPayload{NullifierHex: "aabbcc", Amount: 500}
	ev, err := BridgeDeposit(l, alice, payload)
	require.NoError(t, err)
	require.Equal(t, domain.EventBridgeDeposited, ev.Type)

	ev, err = BridgeDeposit(l, alice, payload)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}

func TestTreasuryAllocationClampsToVestedAmount(t *testing.T) {
	l := newLayer(t)
	require.NoError(t, l.PutTreasuryVesting(store.TreasuryVesting{
		Team: store.VestingBucket{StartTs: 0, DurationSecs: 1000, Allocation: 1000},
	}))

	ev, err := ReleaseTreasuryAllocation(l, 500, domain.ReleaseAllocationPayload{Bucket: "team", Amount: 1000})
	require.NoError(t, err)
	require.Equal(t, domain.EventAllocationRelease, ev.Type)

	v, err := l.GetTreasuryVesting()
	require.NoError(t, err)
	require.Equal(t, uint64(500), v.Team.Released) // clamped to 50% elapsed vesting
}

func TestUpdateOracleRejectsMismatchedZero(t *testing.T) {
	l := newLayer(t)
	ev, err := UpdateOracle(l, 0, domain.UpdateOraclePayload{PriceNumerator: 1, PriceDenominator: 0})
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)
}

func TestDispatchRejectsNonAdminForAdminInstructions(t *testing.T) {
	l := newLayer(t)
	require.NoError(t, l.PutTreasury(store.Treasury{AdminPublicHex: hexEncode([]byte("admin"))}))

	instr, err := domain.EncodeInstruction(domain.InstrSetPolicy, domain.SetPolicyPayload{Policy: []byte(`{}`)})
	require.NoError(t, err)

	ev, err := Dispatch(l, []byte("notadmin"), 0, 0, instr)
	require.NoError(t, err)
	require.Equal(t, domain.EventCasinoError, ev.Type)

	ev, err = Dispatch(l, []byte("admin"), 0, 0, instr)
	require.NoError(t, err)
	require.Equal(t, domain.EventPolicyUpdated, ev.Type)
}

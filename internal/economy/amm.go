package economy

import (
	"math/big"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

func validatePool(p store.AmmPool) error {
	if p.FeeBps > 10_000 || p.SellTaxBps > 10_000 {
		return domain.ErrInvalidBet
	}
	if p.BootstrapPriceDenominator == 0 {
		return domain.ErrInvalidBet
	}
	zero := p.ReserveRng == 0 && p.ReserveVusdt == 0
	nonzero := p.ReserveRng != 0 && p.ReserveVusdt != 0
	if !zero && !nonzero {
		return domain.ErrInvalidBet
	}
	if nonzero && p.TotalShares < domain.MinimumLiquidity {
		return domain.ErrInvalidBet
	}
	return nil
}

// isqrtProduct returns floor(sqrt(x*y)) with the multiply widened past 64
// bits (the initial-liquidity mint per spec §4.6), using big.Int's exact
// integer square root rather than a float64 approximation.
func isqrtProduct(x, y uint64) uint64 {
	prod := new(big.Int).Mul(new(big.Int).SetUint64(x), new(big.Int).SetUint64(y))
	return new(big.Int).Sqrt(prod).Uint64()
}

func dailyBucket(view uint64) int64 { return domain.ViewTime(view) / 86400 }

func resetAmmDailyIfNeeded(p *store.AmmPool, today int64) {
	if p.DailyBucket != today {
		p.DailyBucket = today
		p.DailySellTotal = 0
	}
}

func resetPlayerAmmDailyIfNeeded(pl *store.CasinoPlayer, today int64) {
	if pl.AmmDailyBucket != today {
		pl.AmmDailyBucket = today
		pl.AmmDailyBought = 0
		pl.AmmDailySold = 0
	}
}

// dynamicSellTaxBps bins the post-swap daily sell outflow into three levels
// (spec §9: "Dynamic sell tax"). outflow_bps = min(daily_sell_after * 10_000
// / reserve_rng, u16::MAX), widened to avoid overflow.
func dynamicSellTaxBps(base uint32, dailySellAfter, reserveRng uint64) uint32 {
	if reserveRng == 0 {
		return base
	}
	outflowBps := mulDivU128(dailySellAfter, 10_000, reserveRng)
	if outflowBps > 65535 {
		outflowBps = 65535
	}
	switch {
	case outflowBps >= 2000:
		return base + 200
	case outflowBps >= 500:
		return base + 50
	default:
		return base
	}
}

// Swap implements spec §4.6's constant-product swap with fee/sell-tax bps
// and per-account daily caps.
func Swap(l *layer.Layer, public []byte, view uint64, payload domain.SwapPayload) (domain.Event, error) {
	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	if err := validatePool(pool); err != nil {
		return domain.NewCasinoError(err, nil), nil
	}

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}

	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}

	today := dailyBucket(view)
	resetAmmDailyIfNeeded(&pool, today)
	resetPlayerAmmDailyIfNeeded(&player, today)

	reserveIn, reserveOut := pool.ReserveVusdt, pool.ReserveRng
	if payload.SellingRNG {
		reserveIn, reserveOut = pool.ReserveRng, pool.ReserveVusdt
	}

	fee := mulDivU128(payload.AmountIn, uint64(pool.FeeBps), 10_000)
	netIn := payload.AmountIn - fee
	amountOut := mulDivU128(netIn, reserveOut, reserveIn+netIn)

	var burn uint64
	if payload.SellingRNG {
		taxBps := dynamicSellTaxBps(pool.SellTaxBps, pool.DailySellTotal+payload.AmountIn, pool.ReserveRng)
		burn = mulDivU128(payload.AmountIn, uint64(taxBps), 10_000)
		if burn > amountOut {
			burn = amountOut
		}
		amountOut -= burn
	}

	if amountOut < payload.MinAmountOut {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	// per-account daily caps: bps of balance AND bps of pool, whichever binds.
	balanceCapSource := player.CashChips
	poolCapSource := pool.ReserveVusdt
	capBps := policy.AmmDailyBuyBpsOfBalance
	dailySpent := player.AmmDailyBought
	if payload.SellingRNG {
		balanceCapSource = player.CashChips
		poolCapSource = pool.ReserveRng
		capBps = policy.AmmDailySellBpsOfBalance
		dailySpent = player.AmmDailySold
	}
	balanceCap := mulDivU128(balanceCapSource, uint64(capBps), 10_000)
	poolCap := mulDivU128(poolCapSource, uint64(policy.AmmDailyBpsOfPool), 10_000)
	cap := balanceCap
	if poolCap < cap {
		cap = poolCap
	}
	if dailySpent+payload.AmountIn > cap && cap > 0 {
		return domain.NewCasinoError(domain.ErrRateLimited, nil), nil
	}

	if payload.SellingRNG {
		if player.CashChips < payload.AmountIn {
			return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
		}
		player.CashChips -= payload.AmountIn
		player.VUSDT += amountOut
		pool.ReserveRng += netIn
		pool.ReserveVusdt -= amountOut
		pool.DailySellTotal += payload.AmountIn
		player.AmmDailySold += payload.AmountIn
	} else {
		if player.VUSDT < payload.AmountIn {
			return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
		}
		player.VUSDT -= payload.AmountIn
		player.CashChips += amountOut
		pool.ReserveVusdt += netIn
		pool.ReserveRng -= amountOut
		player.AmmDailyBought += payload.AmountIn
	}

	if burn > 0 {
		h, err := l.GetHouseState()
		if err != nil {
			return domain.Event{}, err
		}
		h.TotalBurned += burn
		if err := l.PutHouseState(h); err != nil {
			return domain.Event{}, err
		}
	}

	if err := l.PutAmmPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}

	return domain.NewEvent(domain.EventSwapExecuted, struct {
		AmountIn  uint64 `json:"amountIn"`
		AmountOut uint64 `json:"amountOut"`
		FeeAmount uint64 `json:"feeAmount"`
		Burned    uint64 `json:"burned"`
	}{AmountIn: payload.AmountIn, AmountOut: amountOut, FeeAmount: fee, Burned: burn})
}

// AddLiquidity mints sqrt(x*y) shares and locks MINIMUM_LIQUIDITY on first
// deposit; subsequent deposits mint min(x*S/Rx, y*S/Ry) (spec §4.6).
func AddLiquidity(l *layer.Layer, public []byte, payload domain.AddLiquidityPayload) (domain.Event, error) {
	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if player.CashChips < payload.AmountRNG || player.VUSDT < payload.AmountVUSDT {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}

	var minted uint64
	if pool.TotalShares == 0 {
		minted = isqrtProduct(payload.AmountRNG, payload.AmountVUSDT)
		if minted <= domain.MinimumLiquidity {
			return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
		}
		minted -= domain.MinimumLiquidity
		pool.TotalShares = domain.MinimumLiquidity
	} else {
		fromRng := mulDivU128(payload.AmountRNG, pool.TotalShares, pool.ReserveRng)
		fromVusdt := mulDivU128(payload.AmountVUSDT, pool.TotalShares, pool.ReserveVusdt)
		minted = fromRng
		if fromVusdt < minted {
			minted = fromVusdt
		}
	}

	pool.ReserveRng += payload.AmountRNG
	pool.ReserveVusdt += payload.AmountVUSDT
	pool.TotalShares += minted

	player.CashChips -= payload.AmountRNG
	player.VUSDT -= payload.AmountVUSDT

	lp, err := l.GetLpBalance(public)
	if err != nil {
		return domain.Event{}, err
	}
	lp += minted

	if err := l.PutAmmPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutLpBalance(public, lp); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventLiquidityAdded, struct {
		Minted uint64 `json:"minted"`
	}{Minted: minted})
}

// RemoveLiquidity burns shares and returns the proportional reserves.
func RemoveLiquidity(l *layer.Layer, public []byte, payload domain.RemoveLiquidityPayload) (domain.Event, error) {
	pool, err := l.GetAmmPool()
	if err != nil {
		return domain.Event{}, err
	}
	lp, err := l.GetLpBalance(public)
	if err != nil {
		return domain.Event{}, err
	}
	if lp < payload.Shares || pool.TotalShares == 0 {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, nil), nil
	}

	outRng := mulDivU128(payload.Shares, pool.ReserveRng, pool.TotalShares)
	outVusdt := mulDivU128(payload.Shares, pool.ReserveVusdt, pool.TotalShares)

	pool.ReserveRng -= outRng
	pool.ReserveVusdt -= outVusdt
	pool.TotalShares -= payload.Shares
	lp -= payload.Shares

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	player.CashChips += outRng
	player.VUSDT += outVusdt

	if err := l.PutAmmPool(pool); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutLpBalance(public, lp); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventLiquidityRemoved, struct {
		OutRNG   uint64 `json:"outRng"`
		OutVUSDT uint64 `json:"outVusdt"`
	}{OutRNG: outRng, OutVUSDT: outVusdt})
}

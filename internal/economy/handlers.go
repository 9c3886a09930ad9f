package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
)

// IsAdmin reports whether public matches the treasury's configured admin
// key. Used by both this package's admin instructions and the casino
// package's AdminSetTournamentCap.
func IsAdmin(l *layer.Layer, public []byte) (bool, error) {
	t, err := l.GetTreasury()
	if err != nil {
		return false, err
	}
	if t.AdminPublicHex == "" {
		return false, nil
	}
	return hexEncode(public) == t.AdminPublicHex, nil
}

var adminInstructions = map[string]bool{
	domain.InstrSetPolicy:            true,
	domain.InstrSetTreasury:          true,
	domain.InstrSetTreasuryVesting:   true,
	domain.InstrReleaseAllocation:    true,
	domain.InstrFundRecoveryPool:     true,
	domain.InstrRetireRecoveryPool:   true,
	domain.InstrSeedAmmBootstrap:     true,
	domain.InstrFinalizeAmmBootstrap: true,
	domain.InstrUpdateOracle:         true,
}

// Handles reports whether this package owns the given instruction type.
func Handles(instrType string) bool {
	switch instrType {
	case domain.InstrDepositCollateral, domain.InstrBorrowUSDT, domain.InstrRepayUSDT,
		domain.InstrSwap, domain.InstrAddLiquidity, domain.InstrRemoveLiquidity,
		domain.InstrLiquidateVault, domain.InstrSavingsDeposit, domain.InstrSavingsWithdraw,
		domain.InstrSavingsClaim, domain.InstrBridgeDeposit, domain.InstrBridgeFinalizeWithdraw:
		return true
	}
	return adminInstructions[instrType]
}

// Dispatch routes one economy-category instruction to its handler. Admin
// instructions are rejected with ErrUnauthorized unless public matches the
// configured treasury admin key (spec §4.6/§7).
func Dispatch(l *layer.Layer, public []byte, view uint64, now int64, instr domain.Instruction) (domain.Event, error) {
	if adminInstructions[instr.Type] {
		ok, err := IsAdmin(l, public)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			return domain.NewCasinoError(domain.ErrUnauthorized, nil), nil
		}
	}

	switch instr.Type {
	case domain.InstrDepositCollateral:
		var p domain.DepositCollateralPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return DepositCollateral(l, public, p)
	case domain.InstrBorrowUSDT:
		var p domain.BorrowUSDTPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return BorrowUSDT(l, public, now, p)
	case domain.InstrRepayUSDT:
		var p domain.RepayUSDTPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return RepayUSDT(l, public, now, p)
	case domain.InstrLiquidateVault:
		var p domain.LiquidateVaultPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		owner, err := hexDecode(p.Owner)
		if err != nil {
			return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
		}
		return LiquidateVault(l, public, owner, now)
	case domain.InstrSwap:
		var p domain.SwapPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return Swap(l, public, view, p)
	case domain.InstrAddLiquidity:
		var p domain.AddLiquidityPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return AddLiquidity(l, public, p)
	case domain.InstrRemoveLiquidity:
		var p domain.RemoveLiquidityPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return RemoveLiquidity(l, public, p)
	case domain.InstrSavingsDeposit:
		var p domain.SavingsDepositPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SavingsDeposit(l, public, p)
	case domain.InstrSavingsWithdraw:
		var p domain.SavingsWithdrawPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SavingsWithdraw(l, public, p)
	case domain.InstrSavingsClaim:
		return SavingsClaim(l, public)
	case domain.InstrBridgeDeposit:
		var p domain.BridgeDepositPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return BridgeDeposit(l, public, p)
	case domain.InstrBridgeFinalizeWithdraw:
		var p domain.BridgeFinalizeWithdrawPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return BridgeFinalizeWithdraw(l, public, p)

	case domain.InstrSetPolicy:
		var p domain.SetPolicyPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SetPolicy(l, p)
	case domain.InstrSetTreasury:
		var p domain.SetTreasuryPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SetTreasury(l, p)
	case domain.InstrSetTreasuryVesting:
		var p domain.SetTreasuryVestingPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SetTreasuryVesting(l, p)
	case domain.InstrReleaseAllocation:
		var p domain.ReleaseAllocationPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return ReleaseTreasuryAllocation(l, now, p)
	case domain.InstrFundRecoveryPool:
		var p domain.FundRecoveryPoolPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return FundRecoveryPool(l, p)
	case domain.InstrRetireRecoveryPool:
		var p domain.RetireRecoveryPoolPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return RetireRecoveryPool(l, p)
	case domain.InstrSeedAmmBootstrap:
		var p domain.SeedAmmBootstrapPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return SeedAmmBootstrap(l, p)
	case domain.InstrFinalizeAmmBootstrap:
		return FinalizeAmmBootstrap(l, public)
	case domain.InstrUpdateOracle:
		var p domain.UpdateOraclePayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return UpdateOracle(l, now, p)
	}

	return domain.Event{}, domain.ErrInvalidMove
}

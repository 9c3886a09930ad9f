package economy

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
)

// BridgeDeposit credits a player's cash balance against an external bridge
// mint, guarded by a nullifier so the same external proof can never be
// replayed into two deposits (spec §4.6 supplement).
func BridgeDeposit(l *layer.Layer, public []byte, payload domain.BridgeDepositPayload) (domain.Event, error) {
	nullifier, err := hexDecode(payload.NullifierHex)
	if err != nil {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	used, err := l.HasBridgeNullifier(nullifier)
	if err != nil {
		return domain.Event{}, err
	}
	if used {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	player, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	player.CashChips += payload.Amount

	if err := l.MarkBridgeNullifier(nullifier); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventBridgeDeposited, payload)
}

// BridgeFinalizeWithdraw debits a player's cash balance against an
// external bridge burn, guarded by the same nullifier mechanism.
func BridgeFinalizeWithdraw(l *layer.Layer, public []byte, payload domain.BridgeFinalizeWithdrawPayload) (domain.Event, error) {
	nullifier, err := hexDecode(payload.NullifierHex)
	if err != nil {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}
	used, err := l.HasBridgeNullifier(nullifier)
	if err != nil {
		return domain.Event{}, err
	}
	if used {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

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
	player.CashChips -= payload.Amount

	if err := l.MarkBridgeNullifier(nullifier); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, player); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventBridgeFinalized, payload)
}

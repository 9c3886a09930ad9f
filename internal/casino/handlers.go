package casino

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/economy"
	"ocpengine/internal/layer"
)

var adminInstructions = map[string]bool{
	domain.InstrStartTournament:       true,
	domain.InstrEndTournament:         true,
	domain.InstrAdminSetTournamentCap: true,
}

// Handles reports whether this package owns the given instruction type.
func Handles(instrType string) bool {
	switch instrType {
	case domain.InstrRegister, domain.InstrDepositFaucet, domain.InstrStartGame,
		domain.InstrGameMove, domain.InstrPlayerAction, domain.InstrJoinTournament:
		return true
	}
	return adminInstructions[instrType]
}

// Dispatch routes one casino-category instruction to its handler. Admin
// instructions (tournament lifecycle) are rejected with ErrUnauthorized
// unless public matches the configured treasury admin key.
func Dispatch(l *layer.Layer, public []byte, view uint64, now int64, instr domain.Instruction) (domain.Event, error) {
	if adminInstructions[instr.Type] {
		ok, err := economy.IsAdmin(l, public)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			return domain.NewCasinoError(domain.ErrUnauthorized, nil), nil
		}
	}

	switch instr.Type {
	case domain.InstrRegister:
		return Register(l, public, now)
	case domain.InstrDepositFaucet:
		return DepositFaucet(l, public, now)
	case domain.InstrStartGame:
		var p domain.StartGamePayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return StartGame(l, public, view, now, p)
	case domain.InstrGameMove:
		var p domain.GameMovePayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return GameMove(l, public, view, p)
	case domain.InstrPlayerAction:
		var p domain.PlayerActionPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return PlayerAction(l, public, p)
	case domain.InstrJoinTournament:
		var p domain.JoinTournamentPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return JoinTournament(l, public, view, p)
	case domain.InstrStartTournament:
		var p domain.StartTournamentPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return StartTournament(l, view, p)
	case domain.InstrEndTournament:
		var p domain.EndTournamentPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return EndTournament(l, view, p)
	case domain.InstrAdminSetTournamentCap:
		var p domain.AdminSetTournamentCapPayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return AdminSetTournamentCap(l, p)
	}

	return domain.Event{}, domain.ErrInvalidMove
}

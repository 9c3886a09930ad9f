package battle

import (
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
)

// Handles reports whether this package owns the given instruction type.
func Handles(instrType string) bool {
	switch instrType {
	case domain.InstrGenerate, domain.InstrMatch, domain.InstrMove, domain.InstrSettle:
		return true
	}
	return false
}

// Dispatch routes one battle-dialect instruction to its handler.
func Dispatch(l *layer.Layer, public []byte, view uint64, now int64, instr domain.Instruction) (domain.Event, error) {
	switch instr.Type {
	case domain.InstrGenerate:
		return Generate(l, public, view, now)
	case domain.InstrMatch:
		return Match(l, view)
	case domain.InstrMove:
		var p domain.MovePayload
		if err := instr.Decode(&p); err != nil {
			return domain.Event{}, err
		}
		return Move(l, public, p)
	case domain.InstrSettle:
		return Settle(l, public, view)
	}
	return domain.Event{}, domain.ErrInvalidMove
}

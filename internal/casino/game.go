package casino

import (
	"encoding/json"

	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/ocpcrypto"
	"ocpengine/internal/store"
)

// Outcome is the closed terminal/non-terminal result set from spec §4.5.1.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeContinueWithUpdate
	OutcomeWin
	OutcomePush
	OutcomeLoss
	OutcomeLossPreDeducted
	OutcomeLossWithExtraDeduction
)

// gameState is the StateBlob JSON payload: a streak counter for the
// double-or-nothing illustrative game.
type gameState struct {
	Round uint32 `json:"round"`
}

// progressiveEligible names the two games whose side bets feed a shared
// jackpot (spec §4.5.1: "two progressive-eligible games").
var progressiveEligible = map[string]bool{"HiLo": true, "Dice": true}

// zeroBetAllowed names games that accept a practice-mode zero bet.
var zeroBetAllowed = map[string]bool{"HiLo": true}

func superFee(bet uint64) uint64 {
	return bet * 500 / 10_000 // 5%
}

// StartGame implements spec §4.5.1's preconditions and session creation.
func StartGame(l *layer.Layer, public []byte, view uint64, now int64, payload domain.StartGamePayload) (domain.Event, error) {
	if _, ok, err := l.GetSession(payload.SessionID); err != nil {
		return domain.Event{}, err
	} else if ok {
		return domain.NewCasinoError(domain.ErrSessionExists, nil), nil
	}

	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}

	if payload.Bet == 0 && !zeroBetAllowed[payload.GameType] {
		return domain.NewCasinoError(domain.ErrInvalidBet, nil), nil
	}

	fee := uint64(0)
	if p.SuperMode && payload.Bet > 0 {
		fee = superFee(payload.Bet)
	}
	total := payload.Bet + fee

	stack := &p.CashChips
	if p.InTournament {
		stack = &p.TournamentChips
	}
	if *stack < total {
		return domain.NewCasinoError(domain.ErrInsufficientFunds, &payload.SessionID), nil
	}
	*stack -= total

	auraEnhanced := false
	if p.AuraRounds > 0 {
		auraEnhanced = true
		p.AuraRounds--
	}

	p.TotalWagered += payload.Bet
	p.SessionsPlayed++

	var jackpotContribution uint64
	if progressiveEligible[payload.GameType] && payload.Bet > 0 {
		jackpotContribution = payload.Bet / 100
		h, err := l.GetHouseState()
		if err != nil {
			return domain.Event{}, err
		}
		h.ProgressiveJackpots[payload.GameType] += jackpotContribution
		if err := l.PutHouseState(h); err != nil {
			return domain.Event{}, err
		}
	}

	blob, err := encodeGameState(gameState{Round: 0})
	if err != nil {
		return domain.Event{}, err
	}

	sess := store.CasinoSession{
		ID:                  payload.SessionID,
		Player:              pub(public),
		GameType:            payload.GameType,
		Bet:                 payload.Bet,
		StateBlob:           blob,
		CreatedAt:           now,
		IsTournament:        p.InTournament,
		SuperMode:           p.SuperMode,
		AuraEnhanced:        auraEnhanced,
		JackpotContribution: jackpotContribution,
	}

	if !p.InTournament && payload.Bet > 0 {
		h, err := l.GetHouseState()
		if err != nil {
			return domain.Event{}, err
		}
		addPnl(&h, int64(payload.Bet+fee))
		if err := l.PutHouseState(h); err != nil {
			return domain.Event{}, err
		}
	}

	if err := l.PutSession(sess); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}

	return domain.NewEvent(domain.EventSessionStarted, struct {
		SessionID uint64 `json:"sessionId"`
		GameType  string `json:"gameType"`
		Bet       uint64 `json:"bet"`
	}{SessionID: payload.SessionID, GameType: payload.GameType, Bet: payload.Bet})
}

// GameMove resolves one round of an in-progress session.
func GameMove(l *layer.Layer, public []byte, view uint64, payload domain.GameMovePayload) (domain.Event, error) {
	sess, ok, err := l.GetSession(payload.SessionID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrSessionNotFound, &payload.SessionID), nil
	}
	if sess.Player != pub(public) {
		return domain.NewCasinoError(domain.ErrSessionNotOwned, &payload.SessionID), nil
	}
	if sess.IsComplete {
		return domain.NewCasinoError(domain.ErrSessionComplete, &payload.SessionID), nil
	}

	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, &payload.SessionID), nil
	}

	var gs gameState
	_ = decodeGameState(sess.StateBlob, &gs)

	rng := ocpcrypto.NewDomainRNG("casino/round", []byte(sess.Player), ocpcrypto.EncodeU64LE(sess.ID), ocpcrypto.EncodeU32LE(gs.Round))
	roll := rng.Intn(100)

	outcome, amount, payout := resolveRoll(sess.GameType, roll, gs.Round, sess.SuperMode, sess.AuraEnhanced)

	sess.MoveCount++

	var event domain.Event
	switch outcome {
	case OutcomeContinue, OutcomeContinueWithUpdate:
		gs.Round++
		sess.StateBlob, err = encodeGameState(gs)
		if err != nil {
			return domain.Event{}, err
		}
		if outcome == OutcomeContinueWithUpdate {
			creditPayout(&p, sess.IsTournament, payout)
		}
	case OutcomeWin:
		if p.ActiveDouble && p.CashDoubles > 0 && !sess.IsTournament {
			amount *= 2
			p.CashDoubles--
		} else if p.ActiveDouble && p.TournamentDouble > 0 && sess.IsTournament {
			amount *= 2
			p.TournamentDouble--
		}
		creditStack(&p, sess.IsTournament, amount)
		sess.IsComplete = true
		bumpAura(&p, sess.IsTournament, true)
	case OutcomePush:
		creditStack(&p, sess.IsTournament, amount)
		sess.IsComplete = true
		consumeAuraRound(&p)
	case OutcomeLoss:
		if p.ActiveShield && p.CashShields > 0 && !sess.IsTournament {
			amount = 0
			p.CashShields--
		} else if p.ActiveShield && p.TournamentShield > 0 && sess.IsTournament {
			amount = 0
			p.TournamentShield--
		}
		sess.IsComplete = true
		bumpAura(&p, sess.IsTournament, false)
	case OutcomeLossPreDeducted:
		if p.ActiveShield && ((p.CashShields > 0 && !sess.IsTournament) || (p.TournamentShield > 0 && sess.IsTournament)) {
			if !sess.IsTournament {
				p.CashShields--
			} else {
				p.TournamentShield--
			}
			creditStack(&p, sess.IsTournament, amount) // refund the pre-deducted amount
		}
		sess.IsComplete = true
		bumpAura(&p, sess.IsTournament, false)
	case OutcomeLossWithExtraDeduction:
		debitStack(&p, sess.IsTournament, amount)
		sess.IsComplete = true
		bumpAura(&p, sess.IsTournament, false)
	}

	if err := settleJackpot(l, &sess, &p, outcome, roll); err != nil {
		return domain.Event{}, err
	}

	if sess.IsComplete && !sess.IsTournament {
		h, err := l.GetHouseState()
		if err != nil {
			return domain.Event{}, err
		}
		switch outcome {
		case OutcomeWin, OutcomePush, OutcomeLossPreDeducted:
			addPnl(&h, -int64(amount))
		}
		if err := l.PutHouseState(h); err != nil {
			return domain.Event{}, err
		}
	}

	if err := l.PutSession(sess); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}

	event, err = domain.NewEvent(domain.EventSessionResolved, struct {
		SessionID uint64 `json:"sessionId"`
		Outcome   int    `json:"outcome"`
		Amount    uint64 `json:"amount"`
		Complete  bool   `json:"complete"`
	}{SessionID: sess.ID, Outcome: int(outcome), Amount: amount, Complete: sess.IsComplete})
	return event, err
}

// resolveRoll maps a 0-99 roll to a terminal/non-terminal outcome, using a
// simple double-or-nothing pay table: the deeper the streak, the better the
// odds must be to keep surviving, matching the illustrative nature the
// spec calls for rather than any one real casino game's exact rules.
func resolveRoll(gameType string, roll int, round uint32, superMode, auraEnhanced bool) (Outcome, uint64, int64) {
	threshold := 55 - int(round)*3
	if threshold < 20 {
		threshold = 20
	}
	switch {
	case roll < threshold:
		return OutcomeContinue, 0, 0
	case roll < threshold+20:
		mult := uint64(2 + round)
		if superMode {
			mult += 2
		}
		if auraEnhanced {
			mult += 1
		}
		return OutcomeWin, mult * 100, 0
	case roll < threshold+25:
		return OutcomePush, 100, 0
	default:
		return OutcomeLoss, 0, 0
	}
}

func creditStack(p *store.CasinoPlayer, tournament bool, amount uint64) {
	if tournament {
		p.TournamentChips += amount
	} else {
		p.CashChips += amount
	}
}

func debitStack(p *store.CasinoPlayer, tournament bool, amount uint64) {
	if tournament {
		if p.TournamentChips < amount {
			p.TournamentChips = 0
			return
		}
		p.TournamentChips -= amount
	} else {
		if p.CashChips < amount {
			p.CashChips = 0
			return
		}
		p.CashChips -= amount
	}
}

func creditPayout(p *store.CasinoPlayer, tournament bool, payout int64) {
	if payout >= 0 {
		creditStack(p, tournament, uint64(payout))
	} else {
		debitStack(p, tournament, uint64(-payout))
	}
}

// bumpAura updates the per-player aura meter on terminal Win/Loss (spec
// §4.5.1: "Aura: on terminal Win/Loss update aura meter").
func bumpAura(p *store.CasinoPlayer, tournament bool, won bool) {
	if won {
		p.AuraMeter += 10
	} else if p.AuraMeter >= 5 {
		p.AuraMeter -= 5
	} else {
		p.AuraMeter = 0
	}
	if p.AuraMeter >= 100 {
		p.AuraMeter -= 100
		p.AuraRounds++
	}
}

// consumeAuraRound is called on Push, per spec §4.5.1: "on Push consume an
// active Aura Round."
func consumeAuraRound(p *store.CasinoPlayer) {
	if p.AuraRounds > 0 {
		p.AuraRounds--
	}
}

// settleJackpot pays the progressive jackpot to a qualifying winning hand
// and resets it to base, per spec §4.5.1.
func settleJackpot(l *layer.Layer, sess *store.CasinoSession, p *store.CasinoPlayer, outcome Outcome, roll int) error {
	if !progressiveEligible[sess.GameType] || outcome != OutcomeWin || roll < 97 {
		return nil
	}
	h, err := l.GetHouseState()
	if err != nil {
		return err
	}
	pot := h.ProgressiveJackpots[sess.GameType]
	if pot == 0 {
		return nil
	}
	creditStack(p, sess.IsTournament, pot)
	h.ProgressiveJackpots[sess.GameType] = 0
	return l.PutHouseState(h)
}

func encodeGameState(gs gameState) ([]byte, error) {
	return json.Marshal(gs)
}

func decodeGameState(blob []byte, out *gameState) error {
	if len(blob) == 0 {
		return nil
	}
	return json.Unmarshal(blob, out)
}

package casino

import (
	"encoding/hex"
	"sort"

	"ocpengine/internal/domain"
	"ocpengine/internal/economy"
	"ocpengine/internal/layer"
	"ocpengine/internal/store"
)

// dailyBoundary returns the UTC day index derived from view time (spec
// §4.5.2: "reset at UTC day boundary derived from view x 3 s/view").
func dailyBoundary(view uint64) int64 {
	return domain.ViewTime(view) / 86400
}

// JoinTournament implements spec §4.5.2: only allowed during Registration,
// a per-day join counter, and a trial-account cap clamp.
func JoinTournament(l *layer.Layer, public []byte, view uint64, payload domain.JoinTournamentPayload) (domain.Event, error) {
	t, ok, err := l.GetTournament(payload.TournamentID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrTournamentNotRegistering, nil), nil
	}
	if t.Phase != store.PhaseRegistration {
		return domain.NewCasinoError(domain.ErrTournamentNotRegistering, nil), nil
	}

	p, ok, err := l.GetCasinoPlayer(public)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		return domain.NewCasinoError(domain.ErrPlayerNotFound, nil), nil
	}
	if p.InTournament {
		return domain.NewCasinoError(domain.ErrAlreadyInTournament, nil), nil
	}

	now := domain.ViewTime(view)
	if now-p.LastTournamentEndAt < domain.TournamentJoinCoolSec && p.LastTournamentEndAt > 0 {
		return domain.NewCasinoError(domain.ErrRateLimited, nil), nil
	}

	today := dailyBoundary(view)
	if p.DailyTournamentJoinDay != today {
		p.DailyTournamentJoinDay = today
		p.DailyTournamentJoinCount = 0
	}

	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}
	limit := uint32(domain.FreerollDailyLimitFree)
	if policy.TournamentDailyLimitFree > 0 {
		limit = policy.TournamentDailyLimitFree
	}
	if now-p.AccountCreatedAt < domain.AccountTierNewSecs {
		limit = uint32(domain.FreerollDailyLimitTrial)
		if policy.TournamentDailyLimitTrial > 0 {
			limit = policy.TournamentDailyLimitTrial
		}
	}
	if p.DailyTournamentJoinCount >= limit {
		return domain.NewCasinoError(domain.ErrTournamentLimitReached, nil), nil
	}

	p.InTournament = true
	p.TournamentID = payload.TournamentID
	p.DailyTournamentJoinCount++

	t.Players = append(t.Players, pub(public))

	if err := l.PutCasinoPlayer(public, p); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutTournament(t); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventTournamentJoined, payload)
}

// StartTournament implements spec §4.5.2's emission cap, duration, and
// stack-reset semantics. Admin-gated by the caller (handlers.go).
func StartTournament(l *layer.Layer, view uint64, payload domain.StartTournamentPayload) (domain.Event, error) {
	t, ok, err := l.GetTournament(payload.TournamentID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok {
		t = store.Tournament{ID: payload.TournamentID}
	}
	if t.Phase == store.PhaseActive || t.Phase == store.PhaseComplete {
		return domain.NewCasinoError(domain.ErrTournamentNotRegistering, nil), nil
	}

	h, err := l.GetHouseState()
	if err != nil {
		return domain.Event{}, err
	}
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}

	perTournamentEmission := mulDivBig(domain.TotalSupply, uint64(policy.AnnualEmissionRateBps), 10_000) / domain.SecondsPerYear
	perTournamentEmission = perTournamentEmission * (domain.SecondsPerYear / 365 / domain.TournamentsPerDay)
	rewardPoolCap := mulDivBig(domain.TotalSupply, uint64(policy.RewardPoolBps), 10_000)
	remaining := uint64(0)
	if rewardPoolCap > h.TotalIssuance {
		remaining = rewardPoolCap - h.TotalIssuance
	}
	if perTournamentEmission > remaining {
		perTournamentEmission = remaining
	}

	now := domain.ViewTime(view)
	t.Phase = store.PhaseActive
	t.StartTime = now
	t.EndTime = now + domain.TournamentDuration // any client-supplied end time is overwritten
	t.PrizePool = perTournamentEmission
	t.StartingStacks = payload.StartingChips

	t.Leaderboard = t.Leaderboard[:0]
	for _, playerKey := range t.Players {
		pubBytes, err := hexDecode(playerKey)
		if err != nil {
			continue
		}
		p, ok, err := l.GetCasinoPlayer(pubBytes)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			continue
		}
		p.TournamentChips = payload.StartingChips
		p.TournamentShield = 0
		p.TournamentDouble = 0
		if err := l.PutCasinoPlayer(pubBytes, p); err != nil {
			return domain.Event{}, err
		}
		t.Leaderboard = append(t.Leaderboard, store.LeaderboardEntry{Player: playerKey, Chips: payload.StartingChips})
	}

	h.TotalIssuance += perTournamentEmission
	if err := l.PutHouseState(h); err != nil {
		return domain.Event{}, err
	}
	if err := l.PutTournament(t); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventTournamentStarted, struct {
		TournamentID uint64 `json:"tournamentId"`
		PrizePool    uint64 `json:"prizePool"`
	}{TournamentID: t.ID, PrizePool: t.PrizePool})
}

// proofOfPlay is the engagement weight spec §4.5.2 multiplies into a
// winner's payout share: the player's lifetime SessionsPlayed plus one per
// 1000 chips of lifetime TotalWagered, plus one, both already tracked on
// CasinoPlayer. The weight is an unbounded integer.
func proofOfPlay(p store.CasinoPlayer) uint64 {
	return p.SessionsPlayed + p.TotalWagered/1000 + 1
}

// EndTournament implements spec §4.5.2's ranking, winner selection, and
// weighted freeroll-credit distribution.
func EndTournament(l *layer.Layer, view uint64, payload domain.EndTournamentPayload) (domain.Event, error) {
	t, ok, err := l.GetTournament(payload.TournamentID)
	if err != nil {
		return domain.Event{}, err
	}
	if !ok || t.Phase != store.PhaseActive {
		return domain.NewCasinoError(domain.ErrTournamentNotRegistering, nil), nil
	}

	type ranked struct {
		player string
		chips  uint64
		weight uint64
	}
	entries := make([]ranked, 0, len(t.Players))
	for _, playerKey := range t.Players {
		pubBytes, err := hexDecode(playerKey)
		if err != nil {
			continue
		}
		p, ok, err := l.GetCasinoPlayer(pubBytes)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			continue
		}
		entries = append(entries, ranked{player: playerKey, chips: p.TournamentChips})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].chips > entries[j].chips })

	n := uint64(len(entries))
	winnerCount := ceilDiv(n*15, 100)
	if winnerCount < 1 && n > 0 {
		winnerCount = 1
	}
	if winnerCount > n {
		winnerCount = n
	}

	now := domain.ViewTime(view)
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}

	// weight(rank) = (1/rank) x proof_of_play(player); scaled by 1e6 to stay
	// integral, matching the "exact integer share" rounding rule in spec §9.
	const scale = 1_000_000
	totalWeight := uint64(0)
	weights := make([]uint64, winnerCount)
	for i := uint64(0); i < winnerCount; i++ {
		pubBytes, _ := hexDecode(entries[i].player)
		p, _, err := l.GetCasinoPlayer(pubBytes)
		if err != nil {
			return domain.Event{}, err
		}
		w := (scale / (i + 1)) * proofOfPlay(p)
		weights[i] = w
		totalWeight += w
	}

	for i := uint64(0); i < winnerCount; i++ {
		if totalWeight == 0 {
			break
		}
		share := mulDivBig(t.PrizePool, weights[i], totalWeight)
		pubBytes, err := hexDecode(entries[i].player)
		if err != nil {
			continue
		}
		if err := economy.AwardFreerollCredits(l, pubBytes, share, now, policy); err != nil {
			return domain.Event{}, err
		}
	}

	for _, playerKey := range t.Players {
		pubBytes, err := hexDecode(playerKey)
		if err != nil {
			continue
		}
		p, ok, err := l.GetCasinoPlayer(pubBytes)
		if err != nil {
			return domain.Event{}, err
		}
		if !ok {
			continue
		}
		p.InTournament = false
		p.TournamentID = 0
		p.TournamentChips = 0
		p.TournamentShield = 0
		p.TournamentDouble = 0
		p.LastTournamentEndAt = now
		if err := l.PutCasinoPlayer(pubBytes, p); err != nil {
			return domain.Event{}, err
		}
	}

	t.Phase = store.PhaseComplete
	if err := l.PutTournament(t); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventTournamentEnded, struct {
		TournamentID uint64 `json:"tournamentId"`
		Winners      uint64 `json:"winners"`
	}{TournamentID: t.ID, Winners: winnerCount})
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// AdminSetTournamentCap overrides the daily tournament-join limits. Admin
// gating is performed by the caller (handlers.go).
func AdminSetTournamentCap(l *layer.Layer, payload domain.AdminSetTournamentCapPayload) (domain.Event, error) {
	policy, err := l.GetPolicy()
	if err != nil {
		return domain.Event{}, err
	}
	policy.TournamentDailyLimitFree = payload.DailyLimitFree
	policy.TournamentDailyLimitTrial = payload.DailyLimitTrial
	if err := l.PutPolicy(policy); err != nil {
		return domain.Event{}, err
	}
	return domain.NewEvent(domain.EventPolicyUpdated, payload)
}

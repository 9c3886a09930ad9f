// Package simulate is a deterministic house-edge harness over the same
// casino handlers the pipeline actor executes on-chain (internal/casino).
// It runs many synthetic sessions directly against an in-memory layer —
// no consensus, no wire format, no signature verification — mirroring the
// trial/stats method of simulator/examples/house_edge.rs: accumulate each
// trial's net payout and amount wagered, then report the realized edge and
// its standard error.
package simulate

import (
	"fmt"
	"math"

	"ocpengine/internal/casino"
	"ocpengine/internal/domain"
	"ocpengine/internal/layer"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

// Stats accumulates per-trial (net, wagered) pairs the way house_edge.rs's
// Stats type does: running sums are enough to report mean and variance
// without retaining every trial.
type Stats struct {
	Trials       int64
	TotalNet     float64
	TotalNetSq   float64
	TotalWagered float64
}

// Add records one trial's signed net payout (positive favors the player)
// and the amount it put at risk.
func (s *Stats) Add(net int64, wagered uint64) {
	n := float64(net)
	s.Trials++
	s.TotalNet += n
	s.TotalNetSq += n * n
	s.TotalWagered += float64(wagered)
}

// Merge folds another Stats accumulator into this one.
func (s *Stats) Merge(o Stats) {
	s.Trials += o.Trials
	s.TotalNet += o.TotalNet
	s.TotalNetSq += o.TotalNetSq
	s.TotalWagered += o.TotalWagered
}

func (s Stats) MeanNet() float64 {
	if s.Trials == 0 {
		return 0
	}
	return s.TotalNet / float64(s.Trials)
}

func (s Stats) MeanWagered() float64 {
	if s.Trials == 0 {
		return 0
	}
	return s.TotalWagered / float64(s.Trials)
}

// HouseEdge is the fraction of each wagered unit the house keeps on
// average: -mean(net)/mean(wagered).
func (s Stats) HouseEdge() float64 {
	mw := s.MeanWagered()
	if mw == 0 {
		return 0
	}
	return -s.MeanNet() / mw
}

// StdErr is the standard error of the mean net payout.
func (s Stats) StdErr() float64 {
	if s.Trials <= 1 {
		return 0
	}
	mean := s.MeanNet()
	variance := s.TotalNetSq/float64(s.Trials) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance / float64(s.Trials))
}

// GameSpec is one game type to sample and the flat bet to stake each trial.
type GameSpec struct {
	GameType string
	Bet      uint64
}

// Config parameterizes a simulation run.
type Config struct {
	Games []GameSpec
	// Trials is the number of independent sessions run per GameSpec.
	Trials int
	// MaxRoundsPerSession guards against a resolveRoll pay table change
	// that never reaches a terminal outcome; sessions exceeding it fail
	// the run rather than spin forever.
	MaxRoundsPerSession int
}

// Result is one GameSpec's realized statistics.
type Result struct {
	GameType string
	Bet      uint64
	Stats    Stats
}

// bankrollFloor is the synthetic top-up threshold: a trial never fails on
// insufficient funds mid-run, since the harness is measuring the game's
// pay table, not bankroll survival. The top-up happens only immediately
// before StartGame is called, so it never leaks into the net measurement.
const bankrollFloor = 1 << 40

// Run executes Config.Trials independent sessions for every GameSpec and
// reports each one's realized house edge. All sessions share a single
// in-memory layer and a single synthetic player identity, varying only the
// session ID, the same way house_edge.rs fixes its player and varies only
// the trial id — resolveRoll's RNG is keyed on (player, session id, round),
// so varying the session id alone already yields an independent stream per
// trial (internal/casino/game.go's ocpcrypto.NewDomainRNG call).
func Run(cfg Config) ([]Result, error) {
	if cfg.MaxRoundsPerSession <= 0 {
		cfg.MaxRoundsPerSession = 64
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("simulate: open memory store: %w", err)
	}
	defer st.Close()

	// StartGame/GameMove never touch Layer.Seed or Layer.Cache: resolveRoll
	// draws from ocpcrypto.NewDomainRNG keyed on (player, session, round),
	// independent of the view seed/timelock machinery those fields serve.
	l := layer.New(st, seedlock.Seed{}, nil)

	player := make([]byte, 32)
	player[0] = 0x01
	if _, err := casino.Register(l, player, 0); err != nil {
		return nil, fmt.Errorf("simulate: register player: %w", err)
	}

	var sessionID uint64
	results := make([]Result, 0, len(cfg.Games))

	for _, game := range cfg.Games {
		var stats Stats
		for i := 0; i < cfg.Trials; i++ {
			sessionID++
			net, wagered, err := runTrial(l, player, sessionID, game, cfg.MaxRoundsPerSession)
			if err != nil {
				return nil, fmt.Errorf("simulate: %s trial %d: %w", game.GameType, sessionID, err)
			}
			stats.Add(net, wagered)
		}
		results = append(results, Result{GameType: game.GameType, Bet: game.Bet, Stats: stats})
	}
	return results, nil
}

func runTrial(l *layer.Layer, player []byte, sessionID uint64, game GameSpec, maxRounds int) (int64, uint64, error) {
	if err := topUpBankroll(l, player); err != nil {
		return 0, 0, err
	}
	before, err := cashChips(l, player)
	if err != nil {
		return 0, 0, err
	}

	if _, err := casino.StartGame(l, player, 0, 0, domain.StartGamePayload{
		GameType:  game.GameType,
		Bet:       game.Bet,
		SessionID: sessionID,
	}); err != nil {
		return 0, 0, err
	}

	for round := 0; ; round++ {
		sess, ok, err := l.GetSession(sessionID)
		if err != nil {
			return 0, 0, err
		}
		if !ok || sess.IsComplete {
			break
		}
		if round >= maxRounds {
			return 0, 0, fmt.Errorf("session %d exceeded %d rounds without a terminal outcome", sessionID, maxRounds)
		}
		if _, err := casino.GameMove(l, player, 0, domain.GameMovePayload{SessionID: sessionID}); err != nil {
			return 0, 0, err
		}
	}

	after, err := cashChips(l, player)
	if err != nil {
		return 0, 0, err
	}
	return int64(after) - int64(before), game.Bet, nil
}

func cashChips(l *layer.Layer, player []byte) (uint64, error) {
	p, ok, err := l.GetCasinoPlayer(player)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("player not found mid-simulation")
	}
	return p.CashChips, nil
}

func topUpBankroll(l *layer.Layer, player []byte) error {
	p, ok, err := l.GetCasinoPlayer(player)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("player not found mid-simulation")
	}
	if p.CashChips < bankrollFloor/2 {
		p.CashChips = bankrollFloor
		if err := l.PutCasinoPlayer(player, p); err != nil {
			return err
		}
	}
	return nil
}

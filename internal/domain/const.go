// Package domain defines the transaction envelope, instruction set, typed
// events, and error taxonomy shared by every handler package (spec §4.5-4.7).
package domain

// Protocol constants enumerated in spec §6.
const (
	MaxBlockTransactions = 500
	MaxLobbySize         = 2
	MaxBattleRounds      = 20
	MoveExpiryViews      = 10
	LobbyExpiryViews     = 20
	TotalMoves           = 4

	MinimumLiquidity    = 1000
	StakingRewardScaleX = 1_000_000_000_000_000_000 // x18 fixed point
	TotalSupply         = 1_000_000_000_000

	RewardPoolBps        = 1500
	AnnualEmissionBps    = 200
	TournamentsPerDay    = 4
	TournamentDuration   = 3600 // seconds
	TournamentJoinCoolSec = 900

	StartingChips   = 10_000
	StartingShields = 0
	StartingDoubles = 0

	AccountTierNewSecs    = 86400
	AccountTierMatureSecs = 30 * 86400
	AccountTier2StakeMin  = 100_000

	FreerollDailyLimitFree  = 2
	FreerollDailyLimitTrial = 1

	FaucetAmount       = 500
	FaucetCooldownSecs = 3600

	SecondsPerYear = 365 * 86400
	ViewSeconds    = 3 // wall time for policy logic is view*3s

	StartingElo  = 1000
	EloKFactor   = 32
	MaxMoveUses  = 5 // illustrative per-move usage cap within a single battle
)

// ViewTime converts a view number to the wall-clock seconds the spec's
// policy logic (daily counters, vesting, cooldowns) operates on.
func ViewTime(view uint64) int64 {
	return int64(view) * ViewSeconds
}

package domain

import errorsmod "cosmossdk.io/errors"

const ModuleName = "ocpengine"

// Admission-tier errors (spec §7): surfaced as typed CasinoError events,
// never abort the block or the nonce gate.
var (
	ErrNonceMismatch            = errorsmod.Register(ModuleName, 1, "nonce mismatch")
	ErrRateLimited              = errorsmod.Register(ModuleName, 2, "rate limited")
	ErrInsufficientFunds        = errorsmod.Register(ModuleName, 3, "insufficient funds")
	ErrInvalidBet               = errorsmod.Register(ModuleName, 4, "invalid bet")
	ErrInvalidMove              = errorsmod.Register(ModuleName, 5, "invalid move")
	ErrSessionNotFound          = errorsmod.Register(ModuleName, 6, "session not found")
	ErrSessionExists            = errorsmod.Register(ModuleName, 7, "session already exists")
	ErrSessionNotOwned          = errorsmod.Register(ModuleName, 8, "session not owned by caller")
	ErrSessionComplete          = errorsmod.Register(ModuleName, 9, "session already complete")
	ErrPlayerNotFound           = errorsmod.Register(ModuleName, 10, "player not found")
	ErrPlayerAlreadyRegistered  = errorsmod.Register(ModuleName, 11, "player already registered")
	ErrNotInTournament          = errorsmod.Register(ModuleName, 12, "not in tournament")
	ErrAlreadyInTournament      = errorsmod.Register(ModuleName, 13, "already in tournament")
	ErrTournamentNotRegistering = errorsmod.Register(ModuleName, 14, "tournament not registering")
	ErrTournamentLimitReached   = errorsmod.Register(ModuleName, 15, "tournament limit reached")
	ErrUnauthorized             = errorsmod.Register(ModuleName, 16, "unauthorized")
)

// Infrastructure-tier errors: fatal. The pipeline actor logs and terminates
// rather than surfacing these as events (spec §7).
var (
	ErrStateIO        = errorsmod.Register(ModuleName, 100, "state store I/O failure")
	ErrProofGeneration = errorsmod.Register(ModuleName, 101, "proof generation failure")
	ErrStorageSync    = errorsmod.Register(ModuleName, 102, "storage sync failure")
)

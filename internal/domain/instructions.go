package domain

import "encoding/json"

// Instruction kinds (spec §4.5). The envelope mirrors the teacher's
// TxEnvelope{Type, Value} shape: routing by string tag, payload as raw JSON
// decoded into the concrete struct once the tag is known.
const (
	// Battle dialect
	InstrGenerate = "Generate"
	InstrMatch    = "Match"
	InstrMove     = "Move"
	InstrSettle   = "Settle"

	// Casino
	InstrRegister               = "Register"
	InstrDepositFaucet          = "DepositFaucet"
	InstrStartGame              = "StartGame"
	InstrGameMove               = "GameMove"
	InstrPlayerAction           = "PlayerAction"
	InstrJoinTournament         = "JoinTournament"
	InstrStartTournament        = "StartTournament"
	InstrEndTournament          = "EndTournament"
	InstrAdminSetTournamentCap  = "AdminSetTournamentCap"

	// Economy
	InstrDepositCollateral       = "DepositCollateral"
	InstrBorrowUSDT              = "BorrowUSDT"
	InstrRepayUSDT               = "RepayUSDT"
	InstrSwap                    = "Swap"
	InstrAddLiquidity            = "AddLiquidity"
	InstrRemoveLiquidity         = "RemoveLiquidity"
	InstrLiquidateVault          = "LiquidateVault"
	InstrSavingsDeposit          = "SavingsDeposit"
	InstrSavingsWithdraw         = "SavingsWithdraw"
	InstrSavingsClaim            = "SavingsClaim"
	InstrBridgeDeposit           = "BridgeDeposit"
	InstrBridgeFinalizeWithdraw  = "BridgeFinalizeWithdraw"

	// Admin
	InstrSetPolicy              = "SetPolicy"
	InstrSetTreasury            = "SetTreasury"
	InstrSetTreasuryVesting     = "SetTreasuryVesting"
	InstrReleaseAllocation      = "ReleaseAllocation"
	InstrFundRecoveryPool       = "FundRecoveryPool"
	InstrRetireRecoveryPool     = "RetireRecoveryPool"
	InstrSeedAmmBootstrap       = "SeedAmmBootstrap"
	InstrFinalizeAmmBootstrap   = "FinalizeAmmBootstrap"
	InstrUpdateOracle           = "UpdateOracle"
)

// Instruction is the routed, still-opaque payload of a Transaction.
type Instruction struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func EncodeInstruction(kind string, payload interface{}) (Instruction, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Type: kind, Value: b}, nil
}

func (i Instruction) Decode(out interface{}) error {
	return json.Unmarshal(i.Value, out)
}

// ---- Battle dialect payloads ----

type MatchPayload struct{}

type MovePayload struct {
	CiphertextHex string `json:"ciphertext"`
}

// SettlePayload carries no fields: the round's seed is already verified and
// cached by the engine's precompute phase before Settle ever runs (spec
// §4.4), so the caller has nothing left to submit.
type SettlePayload struct{}

// ---- Casino payloads ----

type StartGamePayload struct {
	GameType  string `json:"gameType"`
	Bet       uint64 `json:"bet"`
	SessionID uint64 `json:"sessionId"`
}

type GameMovePayload struct {
	SessionID uint64          `json:"sessionId"`
	Move      json.RawMessage `json:"move"`
}

type PlayerActionPayload struct {
	ToggleSuper  bool `json:"toggleSuper,omitempty"`
	ToggleDouble bool `json:"toggleDouble,omitempty"`
	ToggleShield bool `json:"toggleShield,omitempty"`
}

type JoinTournamentPayload struct {
	TournamentID uint64 `json:"tournamentId"`
}

type StartTournamentPayload struct {
	TournamentID uint64 `json:"tournamentId"`
	StartingChips uint64 `json:"startingChips"`
}

type EndTournamentPayload struct {
	TournamentID uint64 `json:"tournamentId"`
}

type AdminSetTournamentCapPayload struct {
	DailyLimitFree  uint32 `json:"dailyLimitFree"`
	DailyLimitTrial uint32 `json:"dailyLimitTrial"`
}

// ---- Economy payloads ----

type DepositCollateralPayload struct {
	Amount uint64 `json:"amount"`
}

type BorrowUSDTPayload struct {
	Amount uint64 `json:"amount"`
}

type RepayUSDTPayload struct {
	Amount uint64 `json:"amount"`
}

type SwapPayload struct {
	AmountIn     uint64 `json:"amountIn"`
	MinAmountOut uint64 `json:"minAmountOut"`
	SellingRNG   bool   `json:"sellingRng"`
}

type AddLiquidityPayload struct {
	AmountRNG   uint64 `json:"amountRng"`
	AmountVUSDT uint64 `json:"amountVusdt"`
}

type RemoveLiquidityPayload struct {
	Shares uint64 `json:"shares"`
}

type LiquidateVaultPayload struct {
	Owner string `json:"owner"`
}

type SavingsDepositPayload struct {
	Amount uint64 `json:"amount"`
}

type SavingsWithdrawPayload struct {
	Amount uint64 `json:"amount"`
}

type SavingsClaimPayload struct{}

type BridgeDepositPayload struct {
	NullifierHex string `json:"nullifier"`
	Amount       uint64 `json:"amount"`
}

type BridgeFinalizeWithdrawPayload struct {
	NullifierHex string `json:"nullifier"`
	Amount       uint64 `json:"amount"`
}

// ---- Admin payloads ----

type SetPolicyPayload struct {
	Policy json.RawMessage `json:"policy"`
}

type SetTreasuryPayload struct {
	AdminPublicHex string `json:"adminPublic"`
}

type SetTreasuryVestingPayload struct {
	Vesting json.RawMessage `json:"vesting"`
}

type ReleaseAllocationPayload struct {
	Bucket string `json:"bucket"`
	Amount uint64 `json:"amount"`
}

type FundRecoveryPoolPayload struct {
	Amount uint64 `json:"amount"`
}

type RetireRecoveryPoolPayload struct {
	Amount uint64 `json:"amount"`
}

type SeedAmmBootstrapPayload struct {
	ReserveRNG          uint64 `json:"reserveRng"`
	ReserveVUSDT        uint64 `json:"reserveVusdt"`
	PriceNumerator      uint64 `json:"priceNumerator"`
	PriceDenominator    uint64 `json:"priceDenominator"`
}

type FinalizeAmmBootstrapPayload struct{}

type UpdateOraclePayload struct {
	Source           string `json:"source"`
	PriceNumerator   uint64 `json:"priceNumerator"`
	PriceDenominator uint64 `json:"priceDenominator"`
}

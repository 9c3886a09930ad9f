package store

import "encoding/hex"

// This file defines the durable entity shapes from spec §3. Field names
// favor the teacher's Go casing (exported, struct-tagged) over the spec's
// snake_case prose.

// Account holds the nonce gate counter plus per-account domain sub-state
// addresses reference into (CasinoPlayer, Vault, ...) live under their own
// keys so a hot nonce bump never rewrites unrelated state.
type Account struct {
	Nonce uint64 `json:"nonce"`
}

func (s *State) GetAccount(public []byte) (Account, error) {
	var a Account
	v, ok, err := s.Get(AccountKey(public))
	if err != nil || !ok {
		return a, err
	}
	err = decodeValue(v, KindAccount, &a)
	return a, err
}

func (s *State) PutAccount(public []byte, a Account) error {
	v, err := encodeValue(KindAccount, a)
	if err != nil {
		return err
	}
	return s.Update(AccountKey(public), v)
}

// CasinoPlayer is per-player domain state: profile, balances, session stats,
// tournament stats, and modifier flags (doubles/shields/aura).
type CasinoPlayer struct {
	Registered bool `json:"registered"`

	CashChips uint64 `json:"cashChips"`
	VUSDT     uint64 `json:"vusdt"`

	TournamentChips  uint64 `json:"tournamentChips"`
	InTournament     bool   `json:"inTournament"`
	TournamentID     uint64 `json:"tournamentId,omitempty"`
	TournamentShield uint32 `json:"tournamentShields"`
	TournamentDouble uint32 `json:"tournamentDoubles"`

	CashShields uint32 `json:"cashShields"`
	CashDoubles uint32 `json:"cashDoubles"`
	SuperMode   bool   `json:"superMode"`
	AuraMeter   uint32 `json:"auraMeter"`
	AuraRounds  uint32 `json:"auraRounds"`

	// ActiveDouble/ActiveShield are the arm/disarm toggles set by
	// PlayerAction; a pool charge is only spent on a win/loss when the
	// corresponding toggle is armed (spec §4.5.1).
	ActiveDouble bool `json:"activeDouble"`
	ActiveShield bool `json:"activeShield"`

	LastFaucetAt int64 `json:"lastFaucetAt"`

	DailyTournamentJoinDay   int64  `json:"dailyTournamentJoinDay"`
	DailyTournamentJoinCount uint32 `json:"dailyTournamentJoinCount"`
	LastTournamentEndAt      int64  `json:"lastTournamentEndAt"`
	AccountCreatedAt         int64  `json:"accountCreatedAt"`
	TotalWagered             uint64 `json:"totalWagered"`
	SessionsPlayed           uint64 `json:"sessionsPlayed"`

	AmmDailyBucket   int64  `json:"ammDailyBucket"`
	AmmDailyBought   uint64 `json:"ammDailyBought"`
	AmmDailySold     uint64 `json:"ammDailySold"`

	BattleWins     uint32 `json:"battleWins"`
	BattleLosses   uint32 `json:"battleLosses"`
	BattleDraws    uint32 `json:"battleDraws"`
	Elo            int32  `json:"elo"`
	ActiveBattleID uint64 `json:"activeBattleId,omitempty"`
}

// AccountKeyPlayer addresses a CasinoPlayer record. It lives in a distinct
// keyspace from Account (the nonce-gate record) so a nonce bump never
// rewrites, or is blocked by, unrelated player state.
func AccountKeyPlayer(public []byte) Key { return withBytes(0x20, public) }

func (s *State) GetCasinoPlayer(public []byte) (CasinoPlayer, bool, error) {
	var p CasinoPlayer
	v, ok, err := s.Get(AccountKeyPlayer(public))
	if err != nil || !ok {
		return p, ok, err
	}
	err = decodeValue(v, KindAccount, &p)
	return p, true, err
}

func (s *State) PutCasinoPlayer(public []byte, p CasinoPlayer) error {
	v, err := encodeValue(KindAccount, p)
	if err != nil {
		return err
	}
	return s.Update(AccountKeyPlayer(public), v)
}

// CasinoSession is an in-progress (or just-completed) game.
type CasinoSession struct {
	ID           uint64 `json:"id"`
	Player       string `json:"player"` // hex public key
	GameType     string `json:"gameType"`
	Bet          uint64 `json:"bet"`
	StateBlob    []byte `json:"stateBlob"`
	MoveCount    uint32 `json:"moveCount"`
	CreatedAt    int64  `json:"createdAt"`
	IsComplete   bool   `json:"isComplete"`
	IsTournament bool   `json:"isTournament"`

	SuperMode    bool   `json:"superMode"`
	AuraEnhanced bool   `json:"auraEnhanced"`

	JackpotContribution uint64 `json:"jackpotContribution"`
}

func (s *State) GetSession(id uint64) (CasinoSession, bool, error) {
	var v CasinoSession
	val, ok, err := s.Get(SessionKey(id))
	if err != nil || !ok {
		return v, ok, err
	}
	err = decodeValue(val, KindSession, &v)
	return v, true, err
}

func (s *State) PutSession(sess CasinoSession) error {
	v, err := encodeValue(KindSession, sess)
	if err != nil {
		return err
	}
	return s.Update(SessionKey(sess.ID), v)
}

func (s *State) DeleteSession(id uint64) error {
	return s.Delete(SessionKey(id))
}

// TournamentPhase is the monotone lifecycle of a Tournament.
type TournamentPhase int

const (
	PhaseRegistration TournamentPhase = iota
	PhaseActive
	PhaseComplete
)

type LeaderboardEntry struct {
	Player string `json:"player"`
	Chips  uint64 `json:"chips"`
}

type Tournament struct {
	ID             uint64             `json:"id"`
	Phase          TournamentPhase    `json:"phase"`
	StartTime      int64              `json:"startTime"`
	EndTime        int64              `json:"endTime"`
	Players        []string           `json:"players"`
	PrizePool      uint64             `json:"prizePool"`
	StartingStacks uint64             `json:"startingStacks"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
}

func (s *State) GetTournament(id uint64) (Tournament, bool, error) {
	var t Tournament
	v, ok, err := s.Get(TournamentKey(id))
	if err != nil || !ok {
		return t, ok, err
	}
	err = decodeValue(v, KindTournament, &t)
	return t, true, err
}

func (s *State) PutTournament(t Tournament) error {
	v, err := encodeValue(KindTournament, t)
	if err != nil {
		return err
	}
	return s.Update(TournamentKey(t.ID), v)
}

// PlayerRegistry is the sorted, deduplicated iteration set over players.
type PlayerRegistry struct {
	Players []string `json:"players"` // hex public keys, strictly sorted
}

func (s *State) GetPlayerRegistry() (PlayerRegistry, error) {
	var r PlayerRegistry
	v, ok, err := s.Get(PlayerRegistryKey())
	if err != nil || !ok {
		return r, err
	}
	err = decodeValue(v, KindPlayerRegistry, &r)
	return r, err
}

func (s *State) PutPlayerRegistry(r PlayerRegistry) error {
	v, err := encodeValue(KindPlayerRegistry, r)
	if err != nil {
		return err
	}
	return s.Update(PlayerRegistryKey(), v)
}

// Vault is a collateralized debt position.
type Vault struct {
	Owner          string `json:"owner"`
	CollateralRng  uint64 `json:"collateralRng"`
	DebtVusdt      uint64 `json:"debtVusdt"`
	LastAccrualTs  int64  `json:"lastAccrualTs"`
}

func (s *State) GetVault(owner []byte) (Vault, bool, error) {
	var v Vault
	val, ok, err := s.Get(VaultKey(owner))
	if err != nil || !ok {
		return v, ok, err
	}
	err = decodeValue(val, KindVault, &v)
	return v, true, err
}

func (s *State) PutVault(v Vault) error {
	owner, err := hex.DecodeString(v.Owner)
	if err != nil {
		return err
	}
	val, err := encodeValue(KindVault, v)
	if err != nil {
		return err
	}
	return s.Update(VaultKey(owner), val)
}

// AmmPool is the constant-product market singleton.
type AmmPool struct {
	ReserveRng               uint64 `json:"reserveRng"`
	ReserveVusdt             uint64 `json:"reserveVusdt"`
	TotalShares              uint64 `json:"totalShares"`
	FeeBps                   uint32 `json:"feeBps"`
	SellTaxBps               uint32 `json:"sellTaxBps"`
	BootstrapPriceNumerator  uint64 `json:"bootstrapPriceNumerator"`
	BootstrapPriceDenominator uint64 `json:"bootstrapPriceDenominator"`

	DailyBucket      int64  `json:"dailyBucket"`
	DailySellTotal   uint64 `json:"dailySellTotal"`
}

func (s *State) GetAmmPool() (AmmPool, error) {
	var p AmmPool
	v, ok, err := s.Get(AmmPoolKey())
	if err != nil || !ok {
		return p, err
	}
	err = decodeValue(v, KindAmmPool, &p)
	return p, err
}

func (s *State) PutAmmPool(p AmmPool) error {
	v, err := encodeValue(KindAmmPool, p)
	if err != nil {
		return err
	}
	return s.Update(AmmPoolKey(), v)
}

func (s *State) GetLpBalance(owner []byte) (uint64, error) {
	v, ok, err := s.Get(LpBalanceKey(owner))
	if err != nil || !ok {
		return 0, err
	}
	var bal uint64
	err = decodeValue(v, KindLpBalance, &bal)
	return bal, err
}

func (s *State) PutLpBalance(owner []byte, bal uint64) error {
	v, err := encodeValue(KindLpBalance, bal)
	if err != nil {
		return err
	}
	return s.Update(LpBalanceKey(owner), v)
}

// SavingsPool and SavingsBalance implement the x18 fixed-point reward
// accounting described in spec §4.6.
type SavingsPool struct {
	TotalDeposits        uint64 `json:"totalDeposits"`
	RewardPerShareX18    string `json:"rewardPerShareX18"` // big.Int decimal string
	TotalRewardsAccrued  uint64 `json:"totalRewardsAccrued"`
	TotalRewardsPaid     uint64 `json:"totalRewardsPaid"`
	PendingRewards       uint64 `json:"pendingRewards"`
}

func (s *State) GetSavingsPool() (SavingsPool, error) {
	var p SavingsPool
	v, ok, err := s.Get(SavingsPoolKey())
	if err != nil || !ok {
		return p, err
	}
	err = decodeValue(v, KindSavingsPool, &p)
	return p, err
}

func (s *State) PutSavingsPool(p SavingsPool) error {
	v, err := encodeValue(KindSavingsPool, p)
	if err != nil {
		return err
	}
	return s.Update(SavingsPoolKey(), v)
}

type SavingsBalance struct {
	DepositBalance    uint64 `json:"depositBalance"`
	RewardDebtX18     string `json:"rewardDebtX18"`
	UnclaimedRewards  uint64 `json:"unclaimedRewards"`
}

func (s *State) GetSavingsBalance(owner []byte) (SavingsBalance, error) {
	var b SavingsBalance
	v, ok, err := s.Get(SavingsBalanceKey(owner))
	if err != nil || !ok {
		return b, err
	}
	err = decodeValue(v, KindSavingsBalance, &b)
	return b, err
}

func (s *State) PutSavingsBalance(owner []byte, b SavingsBalance) error {
	v, err := encodeValue(KindSavingsBalance, b)
	if err != nil {
		return err
	}
	return s.Update(SavingsBalanceKey(owner), v)
}

// HouseState is the protocol-wide aggregate ledger.
type HouseState struct {
	NetPnl                string `json:"netPnl"` // signed big.Int decimal string
	TotalVusdtDebt         uint64 `json:"totalVusdtDebt"`
	TotalBurned            uint64 `json:"totalBurned"`
	AccumulatedFees        uint64 `json:"accumulatedFees"`
	RecoveryPoolVusdt      uint64 `json:"recoveryPoolVusdt"`
	StabilityFeesAccrued   uint64 `json:"stabilityFeesAccrued"`
	TotalIssuance          uint64 `json:"totalIssuance"`
	ProgressiveJackpots    map[string]uint64 `json:"progressiveJackpots"`
}

func (s *State) GetHouseState() (HouseState, error) {
	var h HouseState
	v, ok, err := s.Get(HouseStateKey())
	if err != nil || !ok {
		h.ProgressiveJackpots = map[string]uint64{}
		h.NetPnl = "0"
		return h, err
	}
	err = decodeValue(v, KindHouseState, &h)
	if h.ProgressiveJackpots == nil {
		h.ProgressiveJackpots = map[string]uint64{}
	}
	return h, err
}

func (s *State) PutHouseState(h HouseState) error {
	v, err := encodeValue(KindHouseState, h)
	if err != nil {
		return err
	}
	return s.Update(HouseStateKey(), v)
}

// PolicyState groups the risk/parameter knobs referenced across the economy
// handlers (spec §4.6).
type PolicyState struct {
	StabilityFeeAprBps      uint32 `json:"stabilityFeeAprBps"`
	MaxLtvBpsNew            uint32 `json:"maxLtvBpsNew"`
	LiquidationThresholdBps uint32 `json:"liquidationThresholdBps"`
	LiquidationTargetBps    uint32 `json:"liquidationTargetBps"`
	LiquidationPenaltyBps   uint32 `json:"liquidationPenaltyBps"`
	DebtCeilingBps          uint32 `json:"debtCeilingBps"`
	OracleMaxDeviationBps   uint32 `json:"oracleMaxDeviationBps"`

	AnnualEmissionRateBps uint32 `json:"annualEmissionRateBps"`
	RewardPoolBps         uint32 `json:"rewardPoolBps"`
	TournamentsPerDay     uint32 `json:"tournamentsPerDay"`

	CreditImmediateBps uint32 `json:"creditImmediateBps"`
	CreditVestSecs     int64  `json:"creditVestSecs"`
	CreditExpirySecs   int64  `json:"creditExpirySecs"`

	AmmDailyBuyBpsOfBalance  uint32 `json:"ammDailyBuyBpsOfBalance"`
	AmmDailySellBpsOfBalance uint32 `json:"ammDailySellBpsOfBalance"`
	AmmDailyBpsOfPool        uint32 `json:"ammDailyBpsOfPool"`

	// Zero means "use the protocol default from domain/const.go"; set by
	// AdminSetTournamentCap to override the daily join limits.
	TournamentDailyLimitFree  uint32 `json:"tournamentDailyLimitFree"`
	TournamentDailyLimitTrial uint32 `json:"tournamentDailyLimitTrial"`
}

func (s *State) GetPolicy() (PolicyState, error) {
	var p PolicyState
	v, ok, err := s.Get(PolicyStateKey())
	if err != nil || !ok {
		return p, err
	}
	err = decodeValue(v, KindPolicy, &p)
	return p, err
}

func (s *State) PutPolicy(p PolicyState) error {
	v, err := encodeValue(KindPolicy, p)
	if err != nil {
		return err
	}
	return s.Update(PolicyStateKey(), v)
}

// OracleState is the admin-fed price oracle.
type OracleState struct {
	Source               string `json:"source"`
	PriceNumerator       uint64 `json:"priceNumerator"`
	PriceDenominator     uint64 `json:"priceDenominator"`
	UpdatedAt            int64  `json:"updatedAt"`
	StaleAfterSecs        int64 `json:"staleAfterSecs"`
}

func (s *State) GetOracle() (OracleState, error) {
	var o OracleState
	v, ok, err := s.Get(OracleStateKey())
	if err != nil || !ok {
		return o, err
	}
	err = decodeValue(v, KindOracle, &o)
	return o, err
}

func (s *State) PutOracle(o OracleState) error {
	v, err := encodeValue(KindOracle, o)
	if err != nil {
		return err
	}
	return s.Update(OracleStateKey(), v)
}

// VestingBucket is one vesting allocation. Treasury holds only the admin
// address; the six buckets live in TreasuryVesting.
type VestingBucket struct {
	StartTs      int64  `json:"startTs"`
	DurationSecs int64  `json:"durationSecs"`
	Allocation   uint64 `json:"allocation"`
	Released     uint64 `json:"released"`
}

type Treasury struct {
	AdminPublicHex string `json:"adminPublicHex"`
}

func (s *State) GetTreasury() (Treasury, error) {
	var t Treasury
	v, ok, err := s.Get(TreasuryKey())
	if err != nil || !ok {
		return t, err
	}
	err = decodeValue(v, KindTreasury, &t)
	return t, err
}

func (s *State) PutTreasury(t Treasury) error {
	v, err := encodeValue(KindTreasury, t)
	if err != nil {
		return err
	}
	return s.Update(TreasuryKey(), v)
}

type TreasuryVesting struct {
	Auction   VestingBucket `json:"auction"`
	Liquidity VestingBucket `json:"liquidity"`
	Bonus     VestingBucket `json:"bonus"`
	Player    VestingBucket `json:"player"`
	TreasuryB VestingBucket `json:"treasury"`
	Team      VestingBucket `json:"team"`
}

func (s *State) GetTreasuryVesting() (TreasuryVesting, error) {
	var t TreasuryVesting
	v, ok, err := s.Get(TreasuryVestingKey())
	if err != nil || !ok {
		return t, err
	}
	err = decodeValue(v, KindTreasuryVest, &t)
	return t, err
}

func (s *State) PutTreasuryVesting(t TreasuryVesting) error {
	v, err := encodeValue(KindTreasuryVest, t)
	if err != nil {
		return err
	}
	return s.Update(TreasuryVestingKey(), v)
}

// FreerollCredit is a non-transferable, vesting reward balance (spec §4.6).
type FreerollCredit struct {
	Immediate    uint64 `json:"immediate"` // already-claimable, unclaimed amount
	Locked       uint64 `json:"locked"`
	VestStart    int64  `json:"vestStart"`
	VestEnd      int64  `json:"vestEnd"`
	LastActivity int64  `json:"lastActivity"`
}

func (s *State) GetFreerollCredit(owner []byte) (FreerollCredit, error) {
	var c FreerollCredit
	v, ok, err := s.Get(FreerollCreditKey(owner))
	if err != nil || !ok {
		return c, err
	}
	err = decodeValue(v, KindFreerollCredit, &c)
	return c, err
}

func (s *State) PutFreerollCredit(owner []byte, c FreerollCredit) error {
	v, err := encodeValue(KindFreerollCredit, c)
	if err != nil {
		return err
	}
	return s.Update(FreerollCreditKey(owner), v)
}

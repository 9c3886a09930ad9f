package layer

import (
	"encoding/hex"

	"ocpengine/internal/store"
)

// Typed accessors mirroring internal/store's, but routed through the Layer
// so every handler read/write is buffered and deterministically ordered
// (spec §4.2: "only the Layer may mutate state").

func (l *Layer) GetAccount(public []byte) (store.Account, error) {
	var a store.Account
	v, ok, err := l.Get(store.AccountKey(public))
	if err != nil || !ok {
		return a, err
	}
	err = store.DecodeValue(v, store.KindAccount, &a)
	return a, err
}

func (l *Layer) PutAccount(public []byte, a store.Account) error {
	v, err := store.EncodeValue(store.KindAccount, a)
	if err != nil {
		return err
	}
	l.Insert(store.AccountKey(public), v)
	return nil
}

func (l *Layer) GetCasinoPlayer(public []byte) (store.CasinoPlayer, bool, error) {
	var p store.CasinoPlayer
	v, ok, err := l.Get(store.AccountKeyPlayer(public))
	if err != nil || !ok {
		return p, ok, err
	}
	err = store.DecodeValue(v, store.KindAccount, &p)
	return p, true, err
}

func (l *Layer) PutCasinoPlayer(public []byte, p store.CasinoPlayer) error {
	v, err := store.EncodeValue(store.KindAccount, p)
	if err != nil {
		return err
	}
	l.Insert(store.AccountKeyPlayer(public), v)
	return nil
}

func (l *Layer) GetSession(id uint64) (store.CasinoSession, bool, error) {
	var s store.CasinoSession
	v, ok, err := l.Get(store.SessionKey(id))
	if err != nil || !ok {
		return s, ok, err
	}
	err = store.DecodeValue(v, store.KindSession, &s)
	return s, true, err
}

func (l *Layer) PutSession(s store.CasinoSession) error {
	v, err := store.EncodeValue(store.KindSession, s)
	if err != nil {
		return err
	}
	l.Insert(store.SessionKey(s.ID), v)
	return nil
}

func (l *Layer) DeleteSession(id uint64) {
	l.Delete(store.SessionKey(id))
}

func (l *Layer) GetTournament(id uint64) (store.Tournament, bool, error) {
	var t store.Tournament
	v, ok, err := l.Get(store.TournamentKey(id))
	if err != nil || !ok {
		return t, ok, err
	}
	err = store.DecodeValue(v, store.KindTournament, &t)
	return t, true, err
}

func (l *Layer) PutTournament(t store.Tournament) error {
	v, err := store.EncodeValue(store.KindTournament, t)
	if err != nil {
		return err
	}
	l.Insert(store.TournamentKey(t.ID), v)
	return nil
}

func (l *Layer) GetPlayerRegistry() (store.PlayerRegistry, error) {
	var r store.PlayerRegistry
	v, ok, err := l.Get(store.PlayerRegistryKey())
	if err != nil || !ok {
		return r, err
	}
	err = store.DecodeValue(v, store.KindPlayerRegistry, &r)
	return r, err
}

func (l *Layer) PutPlayerRegistry(r store.PlayerRegistry) error {
	v, err := store.EncodeValue(store.KindPlayerRegistry, r)
	if err != nil {
		return err
	}
	l.Insert(store.PlayerRegistryKey(), v)
	return nil
}

func (l *Layer) GetVault(owner []byte) (store.Vault, bool, error) {
	var v store.Vault
	val, ok, err := l.Get(store.VaultKey(owner))
	if err != nil || !ok {
		return v, ok, err
	}
	err = store.DecodeValue(val, store.KindVault, &v)
	return v, true, err
}

func (l *Layer) PutVault(v store.Vault) error {
	owner, err := hex.DecodeString(v.Owner)
	if err != nil {
		return err
	}
	val, err := store.EncodeValue(store.KindVault, v)
	if err != nil {
		return err
	}
	l.Insert(store.VaultKey(owner), val)
	return nil
}

func (l *Layer) GetAmmPool() (store.AmmPool, error) {
	var p store.AmmPool
	v, ok, err := l.Get(store.AmmPoolKey())
	if err != nil || !ok {
		return p, err
	}
	err = store.DecodeValue(v, store.KindAmmPool, &p)
	return p, err
}

func (l *Layer) PutAmmPool(p store.AmmPool) error {
	v, err := store.EncodeValue(store.KindAmmPool, p)
	if err != nil {
		return err
	}
	l.Insert(store.AmmPoolKey(), v)
	return nil
}

func (l *Layer) GetLpBalance(owner []byte) (uint64, error) {
	v, ok, err := l.Get(store.LpBalanceKey(owner))
	if err != nil || !ok {
		return 0, err
	}
	var bal uint64
	err = store.DecodeValue(v, store.KindLpBalance, &bal)
	return bal, err
}

func (l *Layer) PutLpBalance(owner []byte, bal uint64) error {
	v, err := store.EncodeValue(store.KindLpBalance, bal)
	if err != nil {
		return err
	}
	l.Insert(store.LpBalanceKey(owner), v)
	return nil
}

func (l *Layer) GetSavingsPool() (store.SavingsPool, error) {
	var p store.SavingsPool
	v, ok, err := l.Get(store.SavingsPoolKey())
	if err != nil || !ok {
		return p, err
	}
	err = store.DecodeValue(v, store.KindSavingsPool, &p)
	return p, err
}

func (l *Layer) PutSavingsPool(p store.SavingsPool) error {
	v, err := store.EncodeValue(store.KindSavingsPool, p)
	if err != nil {
		return err
	}
	l.Insert(store.SavingsPoolKey(), v)
	return nil
}

func (l *Layer) GetSavingsBalance(owner []byte) (store.SavingsBalance, error) {
	var b store.SavingsBalance
	v, ok, err := l.Get(store.SavingsBalanceKey(owner))
	if err != nil || !ok {
		return b, err
	}
	err = store.DecodeValue(v, store.KindSavingsBalance, &b)
	return b, err
}

func (l *Layer) PutSavingsBalance(owner []byte, b store.SavingsBalance) error {
	v, err := store.EncodeValue(store.KindSavingsBalance, b)
	if err != nil {
		return err
	}
	l.Insert(store.SavingsBalanceKey(owner), v)
	return nil
}

func (l *Layer) GetHouseState() (store.HouseState, error) {
	var h store.HouseState
	v, ok, err := l.Get(store.HouseStateKey())
	if err != nil || !ok {
		h.ProgressiveJackpots = map[string]uint64{}
		h.NetPnl = "0"
		return h, err
	}
	err = store.DecodeValue(v, store.KindHouseState, &h)
	if h.ProgressiveJackpots == nil {
		h.ProgressiveJackpots = map[string]uint64{}
	}
	return h, err
}

func (l *Layer) PutHouseState(h store.HouseState) error {
	v, err := store.EncodeValue(store.KindHouseState, h)
	if err != nil {
		return err
	}
	l.Insert(store.HouseStateKey(), v)
	return nil
}

func (l *Layer) GetPolicy() (store.PolicyState, error) {
	var p store.PolicyState
	v, ok, err := l.Get(store.PolicyStateKey())
	if err != nil || !ok {
		return p, err
	}
	err = store.DecodeValue(v, store.KindPolicy, &p)
	return p, err
}

func (l *Layer) PutPolicy(p store.PolicyState) error {
	v, err := store.EncodeValue(store.KindPolicy, p)
	if err != nil {
		return err
	}
	l.Insert(store.PolicyStateKey(), v)
	return nil
}

func (l *Layer) GetOracle() (store.OracleState, error) {
	var o store.OracleState
	v, ok, err := l.Get(store.OracleStateKey())
	if err != nil || !ok {
		return o, err
	}
	err = store.DecodeValue(v, store.KindOracle, &o)
	return o, err
}

func (l *Layer) PutOracle(o store.OracleState) error {
	v, err := store.EncodeValue(store.KindOracle, o)
	if err != nil {
		return err
	}
	l.Insert(store.OracleStateKey(), v)
	return nil
}

func (l *Layer) GetTreasury() (store.Treasury, error) {
	var t store.Treasury
	v, ok, err := l.Get(store.TreasuryKey())
	if err != nil || !ok {
		return t, err
	}
	err = store.DecodeValue(v, store.KindTreasury, &t)
	return t, err
}

func (l *Layer) PutTreasury(t store.Treasury) error {
	v, err := store.EncodeValue(store.KindTreasury, t)
	if err != nil {
		return err
	}
	l.Insert(store.TreasuryKey(), v)
	return nil
}

func (l *Layer) GetTreasuryVesting() (store.TreasuryVesting, error) {
	var t store.TreasuryVesting
	v, ok, err := l.Get(store.TreasuryVestingKey())
	if err != nil || !ok {
		return t, err
	}
	err = store.DecodeValue(v, store.KindTreasuryVest, &t)
	return t, err
}

func (l *Layer) PutTreasuryVesting(t store.TreasuryVesting) error {
	v, err := store.EncodeValue(store.KindTreasuryVest, t)
	if err != nil {
		return err
	}
	l.Insert(store.TreasuryVestingKey(), v)
	return nil
}

func (l *Layer) GetFreerollCredit(owner []byte) (store.FreerollCredit, error) {
	var c store.FreerollCredit
	v, ok, err := l.Get(store.FreerollCreditKey(owner))
	if err != nil || !ok {
		return c, err
	}
	err = store.DecodeValue(v, store.KindFreerollCredit, &c)
	return c, err
}

func (l *Layer) PutFreerollCredit(owner []byte, c store.FreerollCredit) error {
	v, err := store.EncodeValue(store.KindFreerollCredit, c)
	if err != nil {
		return err
	}
	l.Insert(store.FreerollCreditKey(owner), v)
	return nil
}

func (l *Layer) GetBattle(id uint64) (store.Battle, bool, error) {
	var b store.Battle
	v, ok, err := l.Get(store.BattleKey(id))
	if err != nil || !ok {
		return b, ok, err
	}
	err = store.DecodeValue(v, store.KindBattle, &b)
	return b, true, err
}

func (l *Layer) PutBattle(b store.Battle) error {
	v, err := store.EncodeValue(store.KindBattle, b)
	if err != nil {
		return err
	}
	l.Insert(store.BattleKey(b.ID), v)
	return nil
}

func (l *Layer) GetLobby() (store.Lobby, error) {
	var lb store.Lobby
	v, ok, err := l.Get(store.LobbyKey())
	if err != nil || !ok {
		lb.NextBattleID = 1
		return lb, err
	}
	err = store.DecodeValue(v, store.KindLobby, &lb)
	if lb.NextBattleID == 0 {
		lb.NextBattleID = 1
	}
	return lb, err
}

func (l *Layer) PutLobby(lb store.Lobby) error {
	v, err := store.EncodeValue(store.KindLobby, lb)
	if err != nil {
		return err
	}
	l.Insert(store.LobbyKey(), v)
	return nil
}

func (l *Layer) HasBridgeNullifier(id []byte) (bool, error) {
	_, ok, err := l.Get(store.BridgeNullifierKey(id))
	return ok, err
}

func (l *Layer) MarkBridgeNullifier(id []byte) error {
	v, err := store.EncodeValue(store.KindBridgeNullif, true)
	if err != nil {
		return err
	}
	l.Insert(store.BridgeNullifierKey(id), v)
	return nil
}

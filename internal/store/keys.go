package store

import "encoding/binary"

// Key is the single typed key space every durable value lives under (spec
// §3). Each constructor below mirrors the teacher's big-endian
// prefix||id encoding (x/poker/types.TableKey) so keys sort lexicographically
// in a natural, stable order for iteration.
type Key []byte

const (
	prefixAccount        byte = 0x01
	prefixSession        byte = 0x02
	prefixTournament     byte = 0x03
	prefixPlayerRegistry byte = 0x04
	prefixVault          byte = 0x05
	prefixAmmPool        byte = 0x06
	prefixLpBalance      byte = 0x07
	prefixSavingsPool    byte = 0x08
	prefixSavingsBalance byte = 0x09
	prefixHouseState     byte = 0x0A
	prefixPolicy         byte = 0x0B
	prefixOracle         byte = 0x0C
	prefixTreasury       byte = 0x0D
	prefixTreasuryVest   byte = 0x0E
	prefixMetadataCommit byte = 0x0F
	prefixBridgeNullif   byte = 0x10
	prefixFreerollCredit byte = 0x11
	prefixBattle         byte = 0x12
	prefixLobby          byte = 0x13
)

func withBytes(prefix byte, id []byte) Key {
	k := make(Key, 1+len(id))
	k[0] = prefix
	copy(k[1:], id)
	return k
}

func withU64(prefix byte, id uint64) Key {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return withBytes(prefix, b)
}

func AccountKey(public []byte) Key    { return withBytes(prefixAccount, public) }
func SessionKey(sessionID uint64) Key { return withU64(prefixSession, sessionID) }
func TournamentKey(tournamentID uint64) Key {
	return withU64(prefixTournament, tournamentID)
}
func PlayerRegistryKey() Key       { return Key{prefixPlayerRegistry} }
func VaultKey(owner []byte) Key    { return withBytes(prefixVault, owner) }
func AmmPoolKey() Key              { return Key{prefixAmmPool} }
func LpBalanceKey(owner []byte) Key { return withBytes(prefixLpBalance, owner) }
func SavingsPoolKey() Key          { return Key{prefixSavingsPool} }
func SavingsBalanceKey(owner []byte) Key {
	return withBytes(prefixSavingsBalance, owner)
}
func HouseStateKey() Key      { return Key{prefixHouseState} }
func PolicyStateKey() Key     { return Key{prefixPolicy} }
func OracleStateKey() Key     { return Key{prefixOracle} }
func TreasuryKey() Key        { return Key{prefixTreasury} }
func TreasuryVestingKey() Key { return Key{prefixTreasuryVest} }
func MetadataCommitKey() Key  { return Key{prefixMetadataCommit} }
func BridgeNullifierKey(id []byte) Key {
	return withBytes(prefixBridgeNullif, id)
}
func FreerollCreditKey(owner []byte) Key {
	return withBytes(prefixFreerollCredit, owner)
}
func BattleKey(battleID uint64) Key { return withU64(prefixBattle, battleID) }
func LobbyKey() Key                 { return Key{prefixLobby} }

func (k Key) String() string { return string(k) }

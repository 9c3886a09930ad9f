package store

// Creature is the minimal deterministic combat profile assigned on Generate.
type Creature struct {
	MaxHealth int32 `json:"maxHealth"`
	Attack    int32 `json:"attack"`
	Defense   int32 `json:"defense"`
}

// BattleSide is one combatant's live state within a Battle.
type BattleSide struct {
	Public       string   `json:"public"`
	Creature     Creature `json:"creature"`
	Health       int32    `json:"health"`
	PendingMove  []byte   `json:"pendingMove,omitempty"` // raw ciphertext for the current round
	MoveUses     map[byte]uint32 `json:"moveUses,omitempty"`
}

// Battle is one paired match in the battle dialect (spec §4.5.3).
type Battle struct {
	ID              uint64     `json:"id"`
	A               BattleSide `json:"a"`
	B                BattleSide `json:"b"`
	Round           uint32     `json:"round"`
	RoundExpiryView uint64     `json:"roundExpiryView"`
	IsOver          bool       `json:"isOver"`
	Outcome         string     `json:"outcome,omitempty"` // PlayerA|PlayerB|Draw
}

func (s *State) GetBattle(id uint64) (Battle, bool, error) {
	var b Battle
	v, ok, err := s.Get(BattleKey(id))
	if err != nil || !ok {
		return b, ok, err
	}
	err = decodeValue(v, KindBattle, &b)
	return b, true, err
}

func (s *State) PutBattle(b Battle) error {
	v, err := encodeValue(KindBattle, b)
	if err != nil {
		return err
	}
	return s.Update(BattleKey(b.ID), v)
}

// Lobby is the matchmaking queue awaiting a full or expired pairing round.
type Lobby struct {
	Entrants  []string `json:"entrants"`
	OpenedAt  int64    `json:"openedAt"`
	ExpiresAtView uint64 `json:"expiresAtView"`
	NextBattleID uint64  `json:"nextBattleId"`
}

func (s *State) GetLobby() (Lobby, error) {
	var l Lobby
	v, ok, err := s.Get(LobbyKey())
	if err != nil || !ok {
		l.NextBattleID = 1
		return l, err
	}
	err = decodeValue(v, KindLobby, &l)
	if l.NextBattleID == 0 {
		l.NextBattleID = 1
	}
	return l, err
}

func (s *State) PutLobby(l Lobby) error {
	v, err := encodeValue(KindLobby, l)
	if err != nil {
		return err
	}
	return s.Update(LobbyKey(), v)
}

func (s *State) HasBridgeNullifier(id []byte) (bool, error) {
	_, ok, err := s.Get(BridgeNullifierKey(id))
	return ok, err
}

func (s *State) MarkBridgeNullifier(id []byte) error {
	v, err := encodeValue(KindBridgeNullif, true)
	if err != nil {
		return err
	}
	return s.Update(BridgeNullifierKey(id), v)
}

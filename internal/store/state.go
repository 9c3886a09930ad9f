// Package store implements the authenticated key/value state store and the
// keyless append-only event log described in spec §4.1, grounded on the
// teacher's Load/Save/AppHash shape (apps/chain/internal/state/state.go)
// generalized from a single JSON blob into a real operation journal backed
// by goleveldb (as used in tolelom-tolchain) with a Merkle Mountain Range
// accumulator (internal/store/mmr) standing in for the spec's authenticated
// accumulator / MMR primitive.
package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"ocpengine/internal/store/mmr"
)

const (
	opUpdate byte = 1
	opDelete byte = 2
)

type opRecord struct {
	Op    byte
	Key   Key
	Value Value
}

// State is the authenticated key/value store. Writes through Update/Delete
// are visible to Get immediately; Sync is what durably journals buffered
// operations and folds them into the accumulator, matching spec §4.1's
// get/update/delete vs. sync split.
type State struct {
	mu sync.Mutex

	live map[string]Value
	db   *leveldb.DB
	acc  *mmr.MMR

	pending         []opRecord
	inactivityFloor int
}

// Open opens (or creates) a State store journaled at dir.
func Open(dir string) (*State, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open leveldb at %s: %w", dir, err)
	}
	s := &State{
		live: map[string]Value{},
		db:   db,
		acc:  mmr.New(),
	}
	if err := s.replay(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: replay journal: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory State store (leveldb's storage.MemStorage),
// used by tests and by internal/simulate which never touches disk.
func OpenMemory() (*State, error) {
	db, err := leveldb.Open(leveldbMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("store: open memory leveldb: %w", err)
	}
	s := &State{live: map[string]Value{}, db: db, acc: mmr.New()}
	return s, nil
}

func (s *State) replay() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		rec, err := decodeOpRecord(iter.Value())
		if err != nil {
			return err
		}
		s.acc.Add(iter.Value())
		s.applyLive(rec)
	}
	return iter.Error()
}

func (s *State) applyLive(rec opRecord) {
	switch rec.Op {
	case opUpdate:
		s.live[string(rec.Key)] = rec.Value
	case opDelete:
		delete(s.live, string(rec.Key))
	}
}

// Get returns the current value for key, reflecting all Update/Delete calls
// made so far regardless of whether Sync has run yet.
func (s *State) Get(key Key) (Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.live[string(key)]
	return v, ok, nil
}

// Update buffers a write, visible immediately via Get and folded into the
// accumulator at the next Sync.
func (s *State) Update(key Key, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[string(key)] = value
	s.pending = append(s.pending, opRecord{Op: opUpdate, Key: append(Key{}, key...), Value: value})
	return nil
}

// Delete buffers a deletion.
func (s *State) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, string(key))
	s.pending = append(s.pending, opRecord{Op: opDelete, Key: append(Key{}, key...)})
	return nil
}

// Sync durably persists buffered operations in order and folds each into
// the accumulator. It returns the contiguous [startOp, endOp) range those
// operations occupy, matching spec §4.1's commit contract.
func (s *State) Sync() (startOp, endOp int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.acc.Size()
	batch := new(leveldb.Batch)
	posKey := make([]byte, 8)
	for _, rec := range s.pending {
		bz := rec.Value.bytes(rec.Op, rec.Key)
		pos := s.acc.Add(bz)
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		batch.Put(append([]byte{}, posKey...), bz)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return start, start, fmt.Errorf("store: sync write batch: %w", err)
	}
	s.pending = s.pending[:0]
	return start, s.acc.Size(), nil
}

// Root returns the current accumulator root over all synced operations.
func (s *State) Root() [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Root()
}

// OpCount returns the number of durably synced operations.
func (s *State) OpCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Size()
}

// HistoricalProof produces an authenticated slice of the operation log
// covering [startOp, endOp), matching spec §4.1.
func (s *State) HistoricalProof(startOp, endOp int) (*mmr.RangeProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if endOp-startOp <= 0 {
		return nil, fmt.Errorf("store: empty or invalid proof range [%d,%d)", startOp, endOp)
	}
	leaves := make([][]byte, 0, endOp-startOp)
	posKey := make([]byte, 8)
	for pos := startOp; pos < endOp; pos++ {
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		bz, err := s.db.Get(posKey, nil)
		if err != nil {
			return nil, fmt.Errorf("store: read op %d: %w", pos, err)
		}
		leaves = append(leaves, bz)
	}
	return s.acc.GenerateRangeProof(startOp, endOp, leaves)
}

// Prune releases journal storage below location and advances the inactivity
// floor. The in-memory accumulator retains its nodes (pruning is a storage
// concern, not an accumulator concern: historical proofs above the floor
// must keep working).
func (s *State) Prune(location int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if location <= s.inactivityFloor {
		return nil
	}
	batch := new(leveldb.Batch)
	posKey := make([]byte, 8)
	for pos := s.inactivityFloor; pos < location; pos++ {
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		batch.Delete(append([]byte{}, posKey...))
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store: prune: %w", err)
	}
	s.inactivityFloor = location
	return nil
}

func (s *State) InactivityFloor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inactivityFloor
}

// GetMetadata returns the last committed block height and op-log start
// recorded by SetMetadata, if any (spec §4.1 get_metadata).
func (s *State) GetMetadata() (CommitMetadata, bool, error) {
	v, ok, err := s.Get(MetadataCommitKey())
	if err != nil || !ok {
		return CommitMetadata{}, ok, err
	}
	var m CommitMetadata
	err = decodeValue(v, KindCommit, &m)
	return m, true, err
}

func (s *State) SetMetadata(m CommitMetadata) error {
	v, err := encodeValue(KindCommit, m)
	if err != nil {
		return err
	}
	return s.Update(MetadataCommitKey(), v)
}

func (s *State) Close() error {
	return s.db.Close()
}

func decodeOpRecord(bz []byte) (opRecord, error) {
	if len(bz) < 1+4 {
		return opRecord{}, fmt.Errorf("store: truncated op record")
	}
	op := bz[0]
	off := 1
	klen := binary.BigEndian.Uint32(bz[off:])
	off += 4
	if off+int(klen) > len(bz) {
		return opRecord{}, fmt.Errorf("store: truncated op key")
	}
	key := Key(append([]byte{}, bz[off:off+int(klen)]...))
	off += int(klen)
	if op == opDelete {
		return opRecord{Op: op, Key: key}, nil
	}
	if off+1+4 > len(bz) {
		return opRecord{}, fmt.Errorf("store: truncated op value header")
	}
	kind := bz[off]
	off++
	vlen := binary.BigEndian.Uint32(bz[off:])
	off += 4
	if off+int(vlen) > len(bz) {
		return opRecord{}, fmt.Errorf("store: truncated op value")
	}
	data := append([]byte{}, bz[off:off+int(vlen)]...)
	return opRecord{Op: op, Key: key, Value: Value{Kind: kind, Data: data}}, nil
}

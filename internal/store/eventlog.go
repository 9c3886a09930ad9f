package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"ocpengine/internal/store/mmr"
)

// EventLog is the keyless append-only structure from spec §4.1: entries are
// opaque serialized events, addressed only by position, with the same
// sync/prune/historical_proof shape as State.
type EventLog struct {
	mu sync.Mutex

	db  *leveldb.DB
	acc *mmr.MMR

	pending         [][]byte
	inactivityFloor int
}

func OpenEventLog(dir string) (*EventLog, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("eventlog: open leveldb at %s: %w", dir, err)
	}
	l := &EventLog{db: db, acc: mmr.New()}
	if err := l.replay(); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: replay: %w", err)
	}
	return l, nil
}

func OpenEventLogMemory() (*EventLog, error) {
	db, err := leveldb.Open(leveldbMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open memory leveldb: %w", err)
	}
	return &EventLog{db: db, acc: mmr.New()}, nil
}

func (l *EventLog) replay() error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		l.acc.Add(append([]byte{}, iter.Value()...))
	}
	return iter.Error()
}

// Append buffers one serialized event, visible in OpCount's pending total
// only once Sync runs.
func (l *EventLog) Append(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, append([]byte{}, data...))
}

// Sync durably persists buffered events and returns their [start, end) range.
func (l *EventLog) Sync() (startOp, endOp int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.acc.Size()
	batch := new(leveldb.Batch)
	posKey := make([]byte, 8)
	for _, data := range l.pending {
		pos := l.acc.Add(data)
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		batch.Put(append([]byte{}, posKey...), data)
	}
	if err := l.db.Write(batch, nil); err != nil {
		return start, start, fmt.Errorf("eventlog: sync write batch: %w", err)
	}
	l.pending = l.pending[:0]
	return start, l.acc.Size(), nil
}

func (l *EventLog) Root() [32]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acc.Root()
}

func (l *EventLog) OpCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acc.Size()
}

func (l *EventLog) HistoricalProof(startOp, endOp int) (*mmr.RangeProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if endOp-startOp <= 0 {
		return nil, fmt.Errorf("eventlog: empty or invalid proof range [%d,%d)", startOp, endOp)
	}
	leaves := make([][]byte, 0, endOp-startOp)
	posKey := make([]byte, 8)
	for pos := startOp; pos < endOp; pos++ {
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		bz, err := l.db.Get(posKey, nil)
		if err != nil {
			return nil, fmt.Errorf("eventlog: read op %d: %w", pos, err)
		}
		leaves = append(leaves, bz)
	}
	return l.acc.GenerateRangeProof(startOp, endOp, leaves)
}

func (l *EventLog) Prune(location int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if location <= l.inactivityFloor {
		return nil
	}
	batch := new(leveldb.Batch)
	posKey := make([]byte, 8)
	for pos := l.inactivityFloor; pos < location; pos++ {
		binary.BigEndian.PutUint64(posKey, uint64(pos))
		batch.Delete(append([]byte{}, posKey...))
	}
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("eventlog: prune: %w", err)
	}
	l.inactivityFloor = location
	return nil
}

func (l *EventLog) InactivityFloor() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inactivityFloor
}

func (l *EventLog) Close() error { return l.db.Close() }

// Package layer implements spec §4.2: the per-block write overlay handlers
// read and write through, buffering changes until the caller commits them to
// the durable store in one atomic, deterministically ordered batch.
package layer

import (
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

// StatusKind distinguishes a buffered update from a buffered delete.
type StatusKind int

const (
	StatusUpdate StatusKind = iota
	StatusDelete
)

// Status is one pending change: either a new value or a deletion.
type Status struct {
	Kind  StatusKind
	Value store.Value
}

// Change is one entry of the ordered commit list a Layer produces.
type Change struct {
	Key    store.Key
	Status Status
}

// Base is the minimal read interface a Layer falls through to. *store.State
// satisfies it; tests can substitute a fake.
type Base interface {
	Get(key store.Key) (store.Value, bool, error)
}

// Layer is the per-block buffered writer. Reads consult pending first, then
// fall through to the base store. Writes are invisible outside the Layer
// until Commit. Insertion order of first-touched keys is preserved in the
// commit list; a key written more than once coalesces to its last value
// (spec §9).
type Layer struct {
	base Base

	order   []string
	seen    map[string]bool
	pending map[string]Status

	// Seed and Cache are populated once per block by the execution engine
	// (spec §4.4) and consulted, never recomputed, during apply.
	Seed  seedlock.Seed
	Cache seedlock.Cache
}

func New(base Base, seed seedlock.Seed, cache seedlock.Cache) *Layer {
	return &Layer{
		base:    base,
		seen:    make(map[string]bool),
		pending: make(map[string]Status),
		Seed:    seed,
		Cache:   cache,
	}
}

func (l *Layer) touch(key store.Key) {
	k := string(key)
	if !l.seen[k] {
		l.seen[k] = true
		l.order = append(l.order, k)
	}
}

// Get reads pending first, then the base store.
func (l *Layer) Get(key store.Key) (store.Value, bool, error) {
	k := string(key)
	if st, ok := l.pending[k]; ok {
		if st.Kind == StatusDelete {
			return store.Value{}, false, nil
		}
		return st.Value, true, nil
	}
	return l.base.Get(key)
}

// Insert buffers a write.
func (l *Layer) Insert(key store.Key, value store.Value) {
	l.touch(key)
	l.pending[string(key)] = Status{Kind: StatusUpdate, Value: value}
}

// Delete buffers a deletion.
func (l *Layer) Delete(key store.Key) {
	l.touch(key)
	l.pending[string(key)] = Status{Kind: StatusDelete}
}

// View is an alias of Get kept for parity with spec §4.2's "get/insert/
// delete/view" surface; handlers that only need to peek without recording
// provenance intent use it for readability.
func (l *Layer) View(key store.Key) (store.Value, bool, error) {
	return l.Get(key)
}

// Commit drains pending writes into the ordered Change list the caller
// applies to durable storage in the same order, then clears pending state so
// the Layer can be reused for the next block.
func (l *Layer) Commit() []Change {
	changes := make([]Change, 0, len(l.order))
	for _, k := range l.order {
		changes = append(changes, Change{Key: store.Key(k), Status: l.pending[k]})
	}
	l.order = nil
	l.seen = make(map[string]bool)
	l.pending = make(map[string]Status)
	return changes
}

// Apply pushes a Layer's committed changes into the durable store, in order.
func Apply(base *store.State, changes []Change) error {
	for _, c := range changes {
		switch c.Status.Kind {
		case StatusUpdate:
			if err := base.Update(c.Key, c.Status.Value); err != nil {
				return err
			}
		case StatusDelete:
			if err := base.Delete(c.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

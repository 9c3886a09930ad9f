// Package mempool holds pending transactions between submission and block
// packing: a global count plus a per-account FIFO keyed by (public, nonce),
// generalized from the teacher's single flat pending pool
// (tolelom-tolchain/core/mempool.go) into the per-account structure the
// block-packing actor needs to replay projected nonces per account.
package mempool

import (
	"encoding/hex"
	"sort"
	"sync"

	"ocpengine/internal/domain"
)

// Reason is why Add rejected a transaction.
type Reason string

const (
	ReasonGlobalCapacity Reason = "GlobalCapacity"
	ReasonBacklogLimit   Reason = "BacklogLimit"
	ReasonDuplicateNonce Reason = "DuplicateNonce"
)

// AddOutcome reports what Add did. Added is false iff Reason is set.
type AddOutcome struct {
	Added   bool
	Trimmed bool
	Reason  Reason
}

type entry struct {
	tx        domain.Transaction
	addedAtMs int64
}

// Mempool is safe for concurrent use; the pipeline actor is its only owner
// in practice (no cross-task access), but Add races against nothing else.
type Mempool struct {
	mu sync.Mutex

	maxTotal   int
	maxBacklog int

	total     int
	order     []*entry            // global FIFO insertion order, across accounts
	byAccount map[string][]*entry // per account, nonce-ascending
}

func New(maxTotal, maxBacklog int) *Mempool {
	return &Mempool{
		maxTotal:   maxTotal,
		maxBacklog: maxBacklog,
		byAccount:  make(map[string][]*entry),
	}
}

func key(public []byte) string { return hex.EncodeToString(public) }

// Add validates and inserts tx. If the account's backlog is already at
// maxBacklog, the highest-nonce entry in that backlog is trimmed to make
// room, but only if tx's nonce is lower than it (FIFO by nonce: a
// higher-nonce arrival never displaces a lower one).
func (m *Mempool) Add(tx domain.Transaction, nowMs int64) AddOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(tx.Public)
	acct := m.byAccount[k]
	for _, e := range acct {
		if e.tx.Nonce == tx.Nonce {
			return AddOutcome{Reason: ReasonDuplicateNonce}
		}
	}

	trimmed := false
	if len(acct) >= m.maxBacklog {
		worstIdx := 0
		for i, e := range acct {
			if e.tx.Nonce > acct[worstIdx].tx.Nonce {
				worstIdx = i
			}
		}
		if tx.Nonce >= acct[worstIdx].tx.Nonce {
			return AddOutcome{Reason: ReasonBacklogLimit}
		}
		evicted := acct[worstIdx]
		acct = append(acct[:worstIdx], acct[worstIdx+1:]...)
		m.removeFromOrder(evicted)
		m.total--
		trimmed = true
	}

	if m.total >= m.maxTotal {
		return AddOutcome{Reason: ReasonGlobalCapacity}
	}

	e := &entry{tx: tx, addedAtMs: nowMs}
	idx := sort.Search(len(acct), func(i int) bool { return acct[i].tx.Nonce >= tx.Nonce })
	acct = append(acct, nil)
	copy(acct[idx+1:], acct[idx:])
	acct[idx] = e
	m.byAccount[k] = acct
	m.order = append(m.order, e)
	m.total++

	return AddOutcome{Added: true, Trimmed: trimmed}
}

func (m *Mempool) removeFromOrder(target *entry) {
	for i, e := range m.order {
		if e == target {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// PeekBatch returns up to k candidates in global FIFO order without
// removing them.
func (m *Mempool) PeekBatch(k int) []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if k > len(m.order) {
		k = len(m.order)
	}
	out := make([]domain.Transaction, k)
	for i := 0; i < k; i++ {
		out[i] = m.order[i].tx
	}
	return out
}

// Retain drops every entry for public with nonce < nextNonce, once the
// engine has told the caller which nonces a block actually consumed.
func (m *Mempool) Retain(public []byte, nextNonce uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(public)
	acct := m.byAccount[k]
	kept := acct[:0]
	for _, e := range acct {
		if e.tx.Nonce < nextNonce {
			m.removeFromOrder(e)
			m.total--
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(m.byAccount, k)
		return
	}
	m.byAccount[k] = kept
}

// OldestAgeMs returns now - (the oldest pending entry's insertion time), or
// false if the mempool is empty.
func (m *Mempool) OldestAgeMs(nowMs int64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return 0, false
	}
	age := nowMs - m.order[0].addedAtMs
	if age < 0 {
		age = 0
	}
	return uint64(age), true
}

// Stats returns the total pending count and the number of distinct accounts
// with at least one pending entry.
func (m *Mempool) Stats() (total int, accounts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, len(m.byAccount)
}

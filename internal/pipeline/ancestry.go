package pipeline

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AncestryCache resolves a block's chain of ancestors back to the last
// committed height, bounded by an LRU so a long-running node doesn't retain
// every historical block in memory (spec §4.9 Propose: "resolve ancestry
// back to the last committed height using a bounded LRU cache"). The mutex
// around the LRU means a panic mid-resolution leaves the cache merely
// stale, never corrupted — callers that observe an error should treat the
// entry as a cache miss and re-fetch rather than trust a half-written value.
type AncestryCache struct {
	mu    sync.Mutex
	cache *lru.Cache[[32]byte, Block]
}

func NewAncestryCache(entries int) (*AncestryCache, error) {
	c, err := lru.New[[32]byte, Block](entries)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ancestry cache: %w", err)
	}
	return &AncestryCache{cache: c}, nil
}

func (a *AncestryCache) Get(hash [32]byte) (Block, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Get(hash)
}

func (a *AncestryCache) Add(b Block) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.Add(b.Hash(), b)
}

// Chain walks parent links from tip back to (and including) the first block
// at or below committedHeight. If any block on the way is missing from the
// cache it returns nil, false. The returned slice is ordered oldest-to-newest.
func (a *AncestryCache) Chain(tip [32]byte, committedHeight uint64) ([]Block, bool) {
	var chain []Block
	hash := tip
	for {
		b, ok := a.Get(hash)
		if !ok {
			return nil, false
		}
		chain = append(chain, b)
		if b.Height <= committedHeight {
			break
		}
		hash = b.ParentHash
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}

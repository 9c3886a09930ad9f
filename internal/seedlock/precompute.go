package seedlock

import (
	"encoding/hex"
	"sync"

	"golang.org/x/sync/errgroup"

	"ocpengine/internal/ocpcrypto"
)

// SeedFetcher resolves the revealed seed for a view, as the pipeline actor's
// seeder component would (spec §4.9 Seeded message). A seed that has not
// been revealed yet (ok == false) cannot be verified or used to decrypt.
type SeedFetcher func(view uint64) (Seed, bool)

// Extract verifies every distinct seed task and decrypts every distinct
// decrypt task whose seed verified, per spec §4.4: "Failed verifications do
// not decrypt." currentView/currentSeed are trusted without recheck; every
// other referenced view's seed is fetched and verified. Work fans out across
// a bounded goroutine pool (errgroup), matching the "execution_concurrency"
// configuration knob (spec §6).
func Extract(
	namespace string,
	masterPublic []byte,
	currentView uint64,
	currentSeed Seed,
	tasks []Task,
	fetch SeedFetcher,
	concurrency int,
) (Cache, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	distinct := dedupe(tasks)
	cache := make(Cache, len(distinct))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, t := range distinct {
		t := t
		g.Go(func() error {
			switch t.Kind {
			case TaskSeed:
				verified := seedVerified(namespace, masterPublic, currentView, currentSeed, t.View, fetch)
				mu.Lock()
				cache[t] = TaskResult{SeedVerified: verified}
				mu.Unlock()
			case TaskDecrypt:
				verified := seedVerified(namespace, masterPublic, currentView, currentSeed, t.View, fetch)
				move := byte(0)
				if verified {
					sig := revealedSignature(currentView, currentSeed, t.View, fetch)
					ct, err := hex.DecodeString(t.CiphertextHex)
					if err == nil && len(ct) == 32 {
						if m, derr := ocpcrypto.OpenMove(t.View, sig, ct); derr == nil {
							move = m
						}
					}
				}
				mu.Lock()
				cache[t] = TaskResult{SeedVerified: verified, Move: move}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cache, nil
}

func seedVerified(namespace string, masterPublic []byte, currentView uint64, currentSeed Seed, targetView uint64, fetch SeedFetcher) bool {
	if targetView == currentView {
		return true // active view's seed is trusted without recheck
	}
	seed, ok := fetch(targetView)
	if !ok {
		return false
	}
	return seed.Verify(namespace, masterPublic) == nil
}

func revealedSignature(currentView uint64, currentSeed Seed, targetView uint64, fetch SeedFetcher) []byte {
	if targetView == currentView {
		return currentSeed.Signature
	}
	seed, _ := fetch(targetView)
	return seed.Signature
}

func dedupe(tasks []Task) []Task {
	seen := make(map[Task]struct{}, len(tasks))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package lock provides per-key mutual exclusion. The order workflow uses it
// to serialise the stock check+decrement window of concurrent checkouts that
// touch the same product, since the backend store has no conditional update.
package lock

import (
	"sort"
	"sync"
)

type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for a single key.
func (k *Keyed) Lock(key string) { k.get(key).Lock() }

// Unlock releases the mutex for a single key.
func (k *Keyed) Unlock(key string) { k.get(key).Unlock() }

// LockKeys acquires the mutexes for every key in a deterministic order so two
// checkouts over overlapping product sets cannot deadlock. The returned
// function releases them all. Duplicate keys are locked once.
func (k *Keyed) LockKeys(keys []string) (release func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			uniq = append(uniq, key)
		}
	}
	sort.Strings(uniq)

	for _, key := range uniq {
		k.Lock(key)
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			k.Unlock(uniq[i])
		}
	}
}

// Package blackboard implements the process-wide key/value store that module
// copies use to share state after election. Values are opaque: producer and
// consumer agree out-of-band on the type stored under a key, and a mismatch
// surfaces at the call site, not inside the board.
package blackboard

import (
	"sort"
	"sync"
)

// Well-known keys. Every module copy resolves the same Board instance, so
// these names are the only coupling between producers and consumers.
const (
	// KeyVersion holds the winning version string after election.
	KeyVersion = "unison.version"

	// KeyStartupCallbacks holds a []func() of deferred startup callbacks.
	// Mutating the slice requires holding GetOrCreateLock(KeyStartupCallbacks).
	KeyStartupCallbacks = "unison.startup-callbacks"
)

// Board is a thread-safe key/value store with per-key-namespace locks.
//
// The board itself only guarantees atomicity of a single Put or Get. Composite
// sequences (read a collection, mutate it, write it back) are atomic only if
// the caller holds the key's lock for the whole sequence; the board cannot
// enforce that contract.
type Board struct {
	mu      sync.RWMutex
	entries map[string]interface{}

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates an empty Board.
func New() *Board {
	return &Board{
		entries: make(map[string]interface{}),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Put stores value under key, creating the entry on first write.
func (b *Board) Put(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = value
}

// Get retrieves the value stored under key.
func (b *Board) Get(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.entries[key]
	return value, ok
}

// GetAs retrieves the value stored under key as type T. It reports false both
// when the key is absent and when the stored value is not a T, so a broken
// type contract reads as "absent" rather than panicking.
func GetAs[T any](b *Board, key string) (T, bool) {
	value, ok := b.Get(key)
	if !ok {
		var zero T
		return zero, false
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}

// GetOrCreateLock returns the mutex associated with a key namespace, creating
// it on first request. Repeated calls with the same key return the same mutex.
// Locks are per-namespace so unrelated producers never serialize against each
// other.
func (b *Board) GetOrCreateLock(key string) *sync.Mutex {
	b.lockMu.Lock()
	defer b.lockMu.Unlock()

	lock, ok := b.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[key] = lock
	}
	return lock
}

// Keys returns all present keys in sorted order.
func (b *Board) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

// Has checks whether key has a value.
func (b *Board) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.entries[key]
	return ok
}

// Len returns the number of entries.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries)
}

// Package intern provides a process-wide string interner.
//
// Handles are small integers; resolving one is O(1) and the returned string
// stays valid for the lifetime of the process. The table never frees storage,
// so long-running sessions accumulate distinct strings but never invalidate
// a handle a caller is holding.
package intern

import (
	"strings"
	"sync"
)

// IStr is an opaque handle for an interned string.
// The zero value is the handle for the empty string.
type IStr uint32

const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	index map[string]IStr
}

// Interner maps strings to stable handles and back.
type Interner struct {
	shards [shardCount]*shard

	// values holds every interned string at its assigned slot. Growth only
	// appends and never overwrites a slot, so a handle keeps resolving to
	// the same string while other goroutines append concurrently.
	mu     sync.RWMutex
	values []string
}

// New creates an empty interner, pre-seeded with the empty string handle.
func New() *Interner {
	in := &Interner{
		values: make([]string, 0, 1024),
	}
	for i := range in.shards {
		in.shards[i] = &shard{index: make(map[string]IStr)}
	}
	in.values = append(in.values, "")
	return in
}

func shardFor(s string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return int(h % shardCount)
}

// EmptyIStr returns the well-known handle for the empty string.
func EmptyIStr() IStr { return IStr(0) }

// Intern returns the handle for s, allocating a new one if s has not been
// seen before. Intern(x) == Intern(y) iff x == y byte-for-byte.
func (in *Interner) Intern(s string) IStr {
	if s == "" {
		return EmptyIStr()
	}

	sh := in.shards[shardFor(s)]

	sh.mu.RLock()
	if h, ok := sh.index[s]; ok {
		sh.mu.RUnlock()
		return h
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if h, ok := sh.index[s]; ok {
		return h
	}

	owned := strings.Clone(s)

	in.mu.Lock()
	h := IStr(len(in.values))
	in.values = append(in.values, owned)
	in.mu.Unlock()

	sh.index[owned] = h
	return h
}

// Resolve returns the text behind h. It is total for any handle this
// interner has issued; an out-of-range handle resolves to "".
func (in *Interner) Resolve(h IStr) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(h) >= len(in.values) {
		return ""
	}
	return in.values[h]
}

// Len reports how many distinct strings (including the empty string) have
// been interned so far. Intended for telemetry, not for correctness checks.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.values)
}

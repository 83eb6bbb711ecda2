// Package cacheguard serializes concurrent work on the same cached artifact.
//
// A Guard hands out one mutex per key, with reference-counted lifetime: the
// per-key row exists only while someone holds or waits for it, so the table
// does not grow with the number of distinct keys ever seen.
package cacheguard

import "sync"

// Guard is a table of per-key mutexes. The zero value is not usable; create
// with New.
type Guard struct {
	mu    sync.Mutex
	table map[string]*row
}

type row struct {
	keyMu    sync.Mutex
	refCount int
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{table: make(map[string]*row)}
}

// Lock blocks until the caller exclusively holds the key, and returns the
// Entry that releases it. Distinct keys do not contend.
func (g *Guard) Lock(key string) *Entry {
	g.mu.Lock()
	r := g.table[key]
	if r == nil {
		r = &row{}
		g.table[key] = r
	}
	// The reference is taken before the table lock is dropped, so the row
	// cannot be removed while we wait for it.
	r.refCount++
	g.mu.Unlock()

	r.keyMu.Lock()
	return &Entry{guard: g, key: key, row: r}
}

// Entry is one held per-key lock.
type Entry struct {
	guard *Guard
	key   string
	row   *row
}

// Unlock releases the key and removes its table row once nobody holds or
// waits for it. Unlock must be called exactly once.
func (e *Entry) Unlock() {
	e.row.keyMu.Unlock()

	e.guard.mu.Lock()
	defer e.guard.mu.Unlock()
	e.row.refCount--
	if e.row.refCount == 0 {
		delete(e.guard.table, e.key)
	}
}

package cacheguard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockIsExclusivePerKey(t *testing.T) {
	g := New()
	const goroutines = 32

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := g.Lock("program-a")
			defer entry.Unlock()
			// A data race here would trip the race detector; the final count
			// checks mutual exclusion even without it.
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, goroutines, counter)
}

func TestDistinctKeysDoNotContend(t *testing.T) {
	g := New()
	a := g.Lock("program-a")
	defer a.Unlock()

	done := make(chan struct{})
	go func() {
		b := g.Lock("program-b")
		b.Unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("an unrelated key blocked behind a held one")
	}
}

func TestRowsAreRemovedWhenIdle(t *testing.T) {
	g := New()

	entry := g.Lock("program-a")
	g.mu.Lock()
	require.Len(t, g.table, 1)
	g.mu.Unlock()

	entry.Unlock()
	g.mu.Lock()
	require.Empty(t, g.table, "idle rows must not accumulate")
	g.mu.Unlock()

	// A waiter keeps the row alive past the first Unlock.
	first := g.Lock("program-a")
	acquired := make(chan *Entry)
	go func() { acquired <- g.Lock("program-a") }()

	// Give the waiter time to take its reference.
	time.Sleep(50 * time.Millisecond)
	first.Unlock()
	second := <-acquired
	second.Unlock()

	g.mu.Lock()
	require.Empty(t, g.table)
	g.mu.Unlock()
}

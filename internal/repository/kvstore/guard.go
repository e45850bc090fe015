// Package kvstore implements the domain repositories on top of a kv.Store.
// Every document is read whole and written back whole, so writers are
// serialized per repository; nothing guards against a second process sharing
// the same store.
package kvstore

import "sync"

type guard struct {
	mu   *sync.Mutex
	held bool
}

func newGuard() guard {
	return guard{mu: &sync.Mutex{}}
}

// run calls fn with the lock held. Nested calls from inside fn reuse the
// lock instead of deadlocking.
func (g guard) run(fn func(guard) error) error {
	if g.held {
		return fn(g)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(guard{mu: g.mu, held: true})
}

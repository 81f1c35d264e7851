package leave

import "sync"

// =============================================================================
// KEYED LOCKS - Per-employee serialization
// =============================================================================

// keyedLocks serializes balance mutations per employee. Two concurrent
// decisions for the same employee must not interleave their
// read-modify-write of Used/Remaining; decisions for different
// employees proceed in parallel.
//
// Locks are never released back to the map. The key space is the
// employee population, which is small and stable, so this is fine.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[EmployeeID]*sync.Mutex)}
}

// Lock acquires the employee's mutex and returns its unlock function.
func (k *keyedLocks) Lock(id EmployeeID) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

package hypervisor

import "sync"

// Reserved lock names. The hypervisor CLI is not safe for overlapping
// invocations, so every command runs under one of these or under a
// per-machine lock keyed by the machine's identifier.
const (
	// LockGeneric serializes target-independent queries.
	LockGeneric = "generic"

	// LockSessionUpdate guards a full registry reconciliation pass.
	LockSessionUpdate = "session-update"
)

// LockTable is a table of exclusive locks keyed by name. Locks are created
// on first use and never discarded; the key space is small (a handful of
// reserved names plus one per live machine).
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the named lock and returns its release function. Callers
// must release on every exit path:
//
//	defer locks.Lock(hypervisor.LockGeneric)()
func (t *LockTable) Lock(name string) func() {
	t.mu.Lock()
	m, ok := t.locks[name]
	if !ok {
		m = &sync.Mutex{}
		t.locks[name] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}

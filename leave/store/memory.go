// Package store provides in-memory implementations of the leave
// persistence contracts, for tests and development.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - leave.Store implementation
// =============================================================================

type balanceKey struct {
	EmployeeID leave.EmployeeID
	Year       int
}

// Memory is an in-memory leave.Store. Transactions are serialized and
// implemented with snapshot/restore, which keeps the atomicity
// semantics of the production store without a database.
type Memory struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	balances map[balanceKey]leave.Balance
	requests map[leave.RequestID]leave.Request
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[balanceKey]leave.Balance),
		requests: make(map[leave.RequestID]leave.Request),
	}
}

func (m *Memory) FindBalance(_ context.Context, id leave.EmployeeID, year int) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.balances[balanceKey{EmployeeID: id, Year: year}]
	if !ok {
		return nil, nil
	}
	out := b
	return &out, nil
}

func (m *Memory) SaveBalance(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := balanceKey{EmployeeID: b.EmployeeID, Year: b.Year}
	if existing, ok := m.balances[k]; ok {
		if existing.Version != b.Version {
			return fmt.Errorf("balance %s/%d version %d: %w",
				b.EmployeeID, b.Year, b.Version, leave.ErrConflict)
		}
	}
	b.Version++
	m.balances[k] = *b
	return nil
}

func (m *Memory) DeleteBalances(_ context.Context, id leave.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.balances {
		if k.EmployeeID == id {
			delete(m.balances, k)
		}
	}
	return nil
}

func (m *Memory) FindRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	out := r
	return &out, nil
}

func (m *Memory) SaveRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[r.ID] = *r
	return nil
}

func (m *Memory) ListRequests(_ context.Context, id leave.EmployeeID, statuses ...leave.Status) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []leave.Request
	for _, r := range m.requests {
		if r.EmployeeID != id {
			continue
		}
		if len(statuses) > 0 && !statusIn(r.Status, statuses) {
			continue
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// WithTx runs fn atomically against the store. On error the pre-tx
// snapshot is restored, so partial writes never become visible.
// Transactions are serialized; this store is not for production load.
func (m *Memory) WithTx(_ context.Context, fn func(leave.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	balances := make(map[balanceKey]leave.Balance, len(m.balances))
	for k, v := range m.balances {
		balances[k] = v
	}
	requests := make(map[leave.RequestID]leave.Request, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.balances = balances
		m.requests = requests
		m.mu.Unlock()
		return err
	}
	return nil
}

func statusIn(s leave.Status, statuses []leave.Status) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// =============================================================================
// MEMORY DIRECTORY - leave.EmployeeDirectory implementation
// =============================================================================

// MemoryDirectory is an in-memory identity collaborator.
type MemoryDirectory struct {
	mu        sync.RWMutex
	employees map[leave.EmployeeID]leave.Employee
}

func NewMemoryDirectory(employees ...leave.Employee) *MemoryDirectory {
	d := &MemoryDirectory{employees: make(map[leave.EmployeeID]leave.Employee)}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// Add registers an employee. Test setup helper.
func (d *MemoryDirectory) Add(e leave.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[e.ID] = e
}

func (d *MemoryDirectory) Exists(_ context.Context, id leave.EmployeeID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.employees[id]
	return ok, nil
}

func (d *MemoryDirectory) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]leave.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

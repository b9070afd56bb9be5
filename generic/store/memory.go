// Package store provides in-memory IntervalStore implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps subjects and intervals in maps. It enforces the same
// uniqueness rules as the SQLite indexes so ledger tests catch bad write
// ordering.
type Memory struct {
	mu        sync.Mutex
	subjects  map[generic.SubjectID]bool
	intervals map[generic.IntervalID]generic.Interval
}

func NewMemory() *Memory {
	return &Memory{
		subjects:  make(map[generic.SubjectID]bool),
		intervals: make(map[generic.IntervalID]generic.Interval),
	}
}

// AddSubject registers an owner so ledger operations on it are accepted.
func (m *Memory) AddSubject(id generic.SubjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[id] = true
}

func (m *Memory) SubjectExists(_ context.Context, id generic.SubjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subjects[id], nil
}

func (m *Memory) ListIntervals(_ context.Context, id generic.SubjectID) ([]generic.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(id), nil
}

func (m *Memory) GetInterval(_ context.Context, id generic.IntervalID) (*generic.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id), nil
}

func (m *Memory) InsertInterval(_ context.Context, iv generic.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(iv)
}

func (m *Memory) UpdateInterval(_ context.Context, iv generic.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(iv)
}

func (m *Memory) DeleteInterval(_ context.Context, id generic.IntervalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.intervals, id)
	return nil
}

func (m *Memory) listLocked(id generic.SubjectID) []generic.Interval {
	var result []generic.Interval
	for _, iv := range m.intervals {
		if iv.SubjectID == id {
			result = append(result, copyInterval(iv))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.After(result[j].Start) })
	return result
}

func (m *Memory) getLocked(id generic.IntervalID) *generic.Interval {
	iv, ok := m.intervals[id]
	if !ok {
		return nil
	}
	c := copyInterval(iv)
	return &c
}

func (m *Memory) insertLocked(iv generic.Interval) error {
	if _, ok := m.intervals[iv.ID]; ok {
		return fmt.Errorf("interval %s already exists", iv.ID)
	}
	if err := m.checkUniqueLocked(iv); err != nil {
		return err
	}
	m.intervals[iv.ID] = copyInterval(iv)
	return nil
}

func (m *Memory) updateLocked(iv generic.Interval) error {
	existing, ok := m.intervals[iv.ID]
	if !ok {
		return &generic.NotFoundError{Kind: "interval", ID: string(iv.ID)}
	}
	iv.SubjectID = existing.SubjectID
	iv.CreatedAt = existing.CreatedAt
	if err := m.checkUniqueLocked(iv); err != nil {
		return err
	}
	m.intervals[iv.ID] = copyInterval(iv)
	return nil
}

// checkUniqueLocked mirrors the SQLite unique indexes.
func (m *Memory) checkUniqueLocked(iv generic.Interval) error {
	for _, other := range m.intervals {
		if other.ID == iv.ID || other.SubjectID != iv.SubjectID {
			continue
		}
		if other.Start.Equal(iv.Start) {
			return &generic.DuplicateStartError{SubjectID: iv.SubjectID, Start: iv.Start}
		}
		if other.IsCurrent() && iv.IsCurrent() {
			return &generic.ConflictError{Message: fmt.Sprintf("%s already has an open interval", iv.SubjectID)}
		}
	}
	return nil
}

func copyInterval(iv generic.Interval) generic.Interval {
	if iv.End != nil {
		iv.End = iv.End.Ptr()
	}
	return iv
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithIntervalTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The lock is held for the whole function, so transactions are serialised.
func (m *Memory) WithIntervalTx(_ context.Context, fn func(generic.IntervalStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[generic.IntervalID]generic.Interval, len(m.intervals))
	for k, v := range m.intervals {
		snapshot[k] = copyInterval(v)
	}

	if err := fn(&txView{parent: m}); err != nil {
		m.intervals = snapshot
		return err
	}
	return nil
}

// txView runs against the parent's maps without re-acquiring its lock.
type txView struct {
	parent *Memory
}

func (tv *txView) SubjectExists(_ context.Context, id generic.SubjectID) (bool, error) {
	return tv.parent.subjects[id], nil
}

func (tv *txView) ListIntervals(_ context.Context, id generic.SubjectID) ([]generic.Interval, error) {
	return tv.parent.listLocked(id), nil
}

func (tv *txView) GetInterval(_ context.Context, id generic.IntervalID) (*generic.Interval, error) {
	return tv.parent.getLocked(id), nil
}

func (tv *txView) InsertInterval(_ context.Context, iv generic.Interval) error {
	return tv.parent.insertLocked(iv)
}

func (tv *txView) UpdateInterval(_ context.Context, iv generic.Interval) error {
	return tv.parent.updateLocked(iv)
}

func (tv *txView) DeleteInterval(_ context.Context, id generic.IntervalID) error {
	delete(tv.parent.intervals, id)
	return nil
}

var _ generic.IntervalTxStore = (*Memory)(nil)

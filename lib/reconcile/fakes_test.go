// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// agentAt builds an agent whose heartbeat is age before epoch.
func agentAt(id string, age time.Duration) Agent {
	return Agent{ID: AgentID(id), Host: id + ".compute", LastHeartbeat: epoch.Add(-age)}
}

// memoryStore is an in-memory Reader and Writer. Transactions stage
// changes on a copy and publish them on Commit.
type memoryStore struct {
	mu          sync.Mutex
	agents      []Agent
	resources   []Resource
	assignments []Assignment
	parents     []Parent
	children    []Child

	// readErr, if set, is returned by every List call.
	readErr error

	// beginFailAfter makes Begin fail once this many transactions
	// have been opened. Negative disables.
	beginFailAfter int
	begins         int

	// failResources makes DeleteAssignment fail for these resources.
	failResources map[ResourceID]bool

	// failParents makes DeleteChildrenOfParent fail for these parents.
	failParents map[ParentID]bool

	commits   int
	rollbacks int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{beginFailAfter: -1}
}

func (s *memoryStore) ListAgents(ctx context.Context) ([]Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.agents), s.readErr
}

func (s *memoryStore) ListResources(ctx context.Context) ([]Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.resources), s.readErr
}

func (s *memoryStore) ListAssignments(ctx context.Context) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.assignments), s.readErr
}

func (s *memoryStore) ListParents(ctx context.Context) ([]Parent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.parents), s.readErr
}

func (s *memoryStore) ListChildren(ctx context.Context) ([]Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.children), s.readErr
}

func (s *memoryStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginFailAfter >= 0 && s.begins >= s.beginFailAfter {
		return nil, errors.New("connection refused")
	}
	s.begins++
	return &memoryTx{
		store:       s,
		assignments: slices.Clone(s.assignments),
		children:    slices.Clone(s.children),
	}, nil
}

type memoryTx struct {
	store       *memoryStore
	assignments []Assignment
	children    []Child
	done        bool
}

func (tx *memoryTx) DeleteAssignment(ctx context.Context, agent AgentID, resource ResourceID) (int64, error) {
	if tx.store.failResources[resource] {
		return 0, fmt.Errorf("lock wait timeout on %s", resource)
	}
	for i, assignment := range tx.assignments {
		if assignment.Agent == agent && assignment.Resource == resource {
			tx.assignments = slices.Delete(tx.assignments, i, i+1)
			return 1, nil
		}
	}
	return 0, nil
}

func (tx *memoryTx) DeleteChildrenOfParent(ctx context.Context, parent ParentID) (int64, error) {
	if tx.store.failParents[parent] {
		return 0, fmt.Errorf("deadlock deleting children of %s", parent)
	}
	before := len(tx.children)
	tx.children = slices.DeleteFunc(tx.children, func(child Child) bool {
		return child.Parent == parent
	})
	return int64(before - len(tx.children)), nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.done = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.assignments = tx.assignments
	tx.store.children = tx.children
	tx.store.commits++
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.done = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.rollbacks++
	return nil
}

// mapInspector answers from a fixed host map. Hosts in failures
// return that error; hosts in blocking wait for ctx to end.
type mapInspector struct {
	keys     map[string][]ResourceKey
	failures map[string]error
	blocking map[string]bool

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
	mu        sync.Mutex
	contacted []string
	holdFor   time.Duration
}

func (i *mapInspector) ListLiveResourceKeys(ctx context.Context, host string) ([]ResourceKey, error) {
	i.calls.Add(1)
	current := i.active.Add(1)
	defer i.active.Add(-1)
	for {
		peak := i.maxActive.Load()
		if current <= peak || i.maxActive.CompareAndSwap(peak, current) {
			break
		}
	}
	i.mu.Lock()
	i.contacted = append(i.contacted, host)
	i.mu.Unlock()

	if i.holdFor > 0 {
		time.Sleep(i.holdFor)
	}
	if i.blocking[host] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := i.failures[host]; err != nil {
		return nil, err
	}
	return slices.Clone(i.keys[host]), nil
}

// recordingRecorder captures committed groups.
type recordingRecorder struct {
	groups []string
	rows   []int64
	err    error
}

func (r *recordingRecorder) Record(kind PlanKind, group RemovalGroup, rows int64) error {
	r.groups = append(r.groups, group.Key(kind))
	r.rows = append(r.rows, rows)
	return r.err
}

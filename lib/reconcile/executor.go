// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Writer opens transactions against the store.
type Writer interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one store transaction. Delete methods return the number of
// rows actually removed, which is zero when a concurrent writer
// already removed them.
type Tx interface {
	// DeleteAssignment removes at most one binding of agent to
	// resource.
	DeleteAssignment(ctx context.Context, agent AgentID, resource ResourceID) (int64, error)

	// DeleteChildrenOfParent removes every child owned by parent.
	DeleteChildrenOfParent(ctx context.Context, parent ParentID) (int64, error)

	Commit() error
	Rollback() error
}

// Recorder receives every committed group. The run journal implements
// it. A Recorder error is logged and does not fail the group, whose
// transaction has already committed.
type Recorder interface {
	Record(kind PlanKind, group RemovalGroup, rows int64) error
}

// ExecutionResult tallies what an Executor actually removed.
type ExecutionResult struct {
	// Removed counts rows actually deleted in committed groups.
	Removed int64 `json:"removed"`

	// PerAgent counts removed assignment rows per agent.
	PerAgent map[AgentID]int64 `json:"per_agent,omitempty"`

	// PerParent counts removed children per orphaned parent.
	PerParent map[ParentID]int64 `json:"per_parent,omitempty"`

	// Committed and Failed list group keys in plan order.
	Committed []string `json:"committed"`
	Failed    []string `json:"failed"`
}

// Executor applies removal plans through a Writer.
type Executor struct {
	Writer Writer

	// Recorder, if set, receives every committed group.
	Recorder Recorder

	// GroupTimeout bounds each group's transaction. Zero means no
	// bound beyond the caller's context.
	GroupTimeout time.Duration

	Logger *slog.Logger
}

// Apply executes plan one group per transaction, in plan order.
//
// If a delete inside a group fails, the group is rolled back, its key
// is added to Failed with a *StoreWriteError, and the next group runs.
// If a transaction cannot be opened at all, Apply stops and returns a
// *StoreConnectionError; groups committed before that point stay
// committed and are reported in the result. The returned error joins
// every group failure.
func (e *Executor) Apply(ctx context.Context, plan RemovalPlan) (ExecutionResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	result := ExecutionResult{
		PerAgent:  make(map[AgentID]int64),
		PerParent: make(map[ParentID]int64),
		Committed: []string{},
		Failed:    []string{},
	}
	var errs []error

	for _, group := range plan.Groups {
		if len(group.Removals) == 0 {
			continue
		}
		key := group.Key(plan.Kind)

		rows, perAgent, err := e.applyGroup(ctx, plan.Kind, group)
		if err != nil {
			var connectionErr *StoreConnectionError
			if errors.As(err, &connectionErr) {
				logger.Error("store unavailable, aborting plan",
					"group", key,
					"error", err,
				)
				errs = append(errs, err)
				return result, errors.Join(errs...)
			}
			logger.Error("removal group rolled back",
				"group", key,
				"error", err,
			)
			result.Failed = append(result.Failed, key)
			errs = append(errs, &StoreWriteError{Group: key, Err: err})
			continue
		}

		result.Committed = append(result.Committed, key)
		result.Removed += rows
		for agent, count := range perAgent {
			result.PerAgent[agent] += count
		}
		if plan.Kind == PlanOrphans {
			result.PerParent[group.Parent] += rows
		}
		logger.Info("removal group committed",
			"group", key,
			"planned", len(group.Removals),
			"removed", rows,
		)

		if e.Recorder != nil {
			if err := e.Recorder.Record(plan.Kind, group, rows); err != nil {
				logger.Error("recording committed group failed",
					"group", key,
					"error", err,
				)
			}
		}
	}

	logger.Info("plan applied",
		"kind", plan.Kind,
		"removed", result.Removed,
		"committed", len(result.Committed),
		"failed", len(result.Failed),
	)
	return result, errors.Join(errs...)
}

// applyGroup runs one group inside a transaction. Errors other than
// *StoreConnectionError leave the transaction rolled back.
func (e *Executor) applyGroup(ctx context.Context, kind PlanKind, group RemovalGroup) (int64, map[AgentID]int64, error) {
	if e.GroupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.GroupTimeout)
		defer cancel()
	}

	tx, err := e.Writer.Begin(ctx)
	if err != nil {
		var connectionErr *StoreConnectionError
		if errors.As(err, &connectionErr) {
			return 0, nil, err
		}
		return 0, nil, &StoreConnectionError{Op: "begin transaction", Err: err}
	}

	var rows int64
	perAgent := make(map[AgentID]int64)

	switch kind {
	case PlanAssignments:
		for _, removal := range group.Removals {
			removed, err := tx.DeleteAssignment(ctx, removal.Agent, removal.Resource)
			if err != nil {
				return 0, nil, rollback(tx, fmt.Errorf("deleting binding of agent %s to %s: %w", removal.Agent, removal.Resource, err))
			}
			rows += removed
			if removed > 0 {
				perAgent[removal.Agent] += removed
			}
		}
	case PlanOrphans:
		removed, err := tx.DeleteChildrenOfParent(ctx, group.Parent)
		if err != nil {
			return 0, nil, rollback(tx, fmt.Errorf("deleting children of %s: %w", group.Parent, err))
		}
		rows = removed
	default:
		return 0, nil, rollback(tx, fmt.Errorf("unknown plan kind %q", kind))
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, rollback(tx, fmt.Errorf("committing: %w", err))
	}
	return rows, perAgent, nil
}

func rollback(tx Tx, cause error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("%w (rollback also failed: %v)", cause, err)
	}
	return cause
}

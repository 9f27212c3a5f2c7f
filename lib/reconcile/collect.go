// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Inspector lists the resource keys actually live on a host. The SSH
// implementation lives in lib/inspect; tests use in-memory fakes.
type Inspector interface {
	ListLiveResourceKeys(ctx context.Context, host string) ([]ResourceKey, error)
}

// InspectionStatus records what happened when collecting ground truth
// for one agent.
type InspectionStatus string

const (
	// StatusCollected means the host answered and Keys is its live set.
	StatusCollected InspectionStatus = "collected"

	// StatusUnreachable means the host could not be inspected. Keys is
	// empty and Err holds a *HostUnreachableError.
	StatusUnreachable InspectionStatus = "unreachable"

	// StatusNotInspected means the agent is dead and was skipped.
	StatusNotInspected InspectionStatus = "not-inspected"
)

// AgentGroundTruth is the observed state of one agent's host.
type AgentGroundTruth struct {
	Agent  AgentID          `json:"agent"`
	Host   string           `json:"host"`
	Status InspectionStatus `json:"status"`
	Keys   []ResourceKey    `json:"keys"`
	Err    error            `json:"-"`
}

// GroundTruth holds one entry per snapshot agent, in snapshot order,
// regardless of the order inspections completed.
type GroundTruth struct {
	Agents []AgentGroundTruth `json:"agents"`
}

// Lookup returns the entry for agent.
func (g GroundTruth) Lookup(agent AgentID) (AgentGroundTruth, bool) {
	for _, entry := range g.Agents {
		if entry.Agent == agent {
			return entry, true
		}
	}
	return AgentGroundTruth{}, false
}

// Unreachable returns the entries whose host could not be inspected.
func (g GroundTruth) Unreachable() []AgentGroundTruth {
	var unreachable []AgentGroundTruth
	for _, entry := range g.Agents {
		if entry.Status == StatusUnreachable {
			unreachable = append(unreachable, entry)
		}
	}
	return unreachable
}

// CollectOptions bounds ground-truth collection.
type CollectOptions struct {
	// Timeout bounds each host inspection. Zero means no per-host
	// bound beyond the caller's context.
	Timeout time.Duration

	// Concurrency caps simultaneous inspections. Zero or negative
	// means one at a time.
	Concurrency int

	Logger *slog.Logger
}

// CollectGroundTruth inspects the host of every alive agent, up to
// options.Concurrency at a time. Dead agents are not contacted. A
// failed or timed-out inspection marks only that agent unreachable.
// The returned error is non-nil only when ctx itself is done.
func CollectGroundTruth(ctx context.Context, inspector Inspector, agents []Agent, liveness Liveness, options CollectOptions) (GroundTruth, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]AgentGroundTruth, len(agents))
	group := &errgroup.Group{}
	group.SetLimit(max(options.Concurrency, 1))

	for position, agent := range agents {
		results[position] = AgentGroundTruth{
			Agent:  agent.ID,
			Host:   agent.Host,
			Status: StatusNotInspected,
			Keys:   []ResourceKey{},
		}
		if !liveness.Alive(agent.ID) {
			continue
		}
		group.Go(func() error {
			results[position] = inspectAgent(ctx, inspector, agent, options.Timeout, logger)
			return nil
		})
	}
	group.Wait()

	if err := ctx.Err(); err != nil {
		return GroundTruth{}, err
	}
	return GroundTruth{Agents: results}, nil
}

func inspectAgent(ctx context.Context, inspector Inspector, agent Agent, timeout time.Duration, logger *slog.Logger) AgentGroundTruth {
	entry := AgentGroundTruth{Agent: agent.ID, Host: agent.Host, Keys: []ResourceKey{}}

	inspectCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		inspectCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	keys, err := inspector.ListLiveResourceKeys(inspectCtx, agent.Host)
	if err == nil {
		err = inspectCtx.Err()
	}
	if err != nil {
		entry.Status = StatusUnreachable
		entry.Err = &HostUnreachableError{Agent: agent.ID, Host: agent.Host, Err: err}
		logger.Warn("agent host unreachable",
			"agent", agent.ID,
			"host", agent.Host,
			"error", err,
		)
		return entry
	}

	entry.Status = StatusCollected
	if keys != nil {
		entry.Keys = keys
	}
	logger.Debug("collected ground truth",
		"agent", agent.ID,
		"host", agent.Host,
		"keys", len(keys),
	)
	return entry
}

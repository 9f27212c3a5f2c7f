// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import "time"

// DefaultStalenessThreshold matches Neutron's default agent_down_time.
const DefaultStalenessThreshold = 75 * time.Second

// Alive reports whether a heartbeat at lastHeartbeat is fresh at now.
// The boundary is inclusive: an agent whose heartbeat is exactly
// threshold old is still alive. A heartbeat in the future (clock skew
// between the agent and this host) counts as fresh.
func Alive(lastHeartbeat, now time.Time, threshold time.Duration) bool {
	return now.Sub(lastHeartbeat) <= threshold
}

// Liveness maps agents to their alive status for one pass.
type Liveness map[AgentID]bool

// Alive reports the agent's status. Agents missing from the map are
// dead: a binding to an agent that is disabled, deleted, or of another
// topic is the first thing load shedding should discard.
func (l Liveness) Alive(agent AgentID) bool {
	return l[agent]
}

// Counts returns the number of alive and dead classified agents.
func (l Liveness) Counts() (alive, dead int) {
	for _, isAlive := range l {
		if isAlive {
			alive++
		} else {
			dead++
		}
	}
	return alive, dead
}

// ClassifyAgents evaluates every agent against a single now, so the
// whole pass agrees on who is alive. An agent with a zero heartbeat
// fails with InvalidRecordError.
func ClassifyAgents(agents []Agent, now time.Time, threshold time.Duration) (Liveness, error) {
	liveness := make(Liveness, len(agents))
	for _, agent := range agents {
		if agent.LastHeartbeat.IsZero() {
			return nil, &InvalidRecordError{
				Kind:   "agent",
				ID:     string(agent.ID),
				Reason: "no heartbeat timestamp",
			}
		}
		liveness[agent.ID] = Alive(agent.LastHeartbeat, now, threshold)
	}
	return liveness, nil
}

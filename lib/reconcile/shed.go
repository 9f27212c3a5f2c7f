// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"math/rand/v2"
	"slices"
)

// DefaultMaxAssigneesPerResource matches Neutron's default
// dhcp_agents_per_network.
const DefaultMaxAssigneesPerResource = 2

// PlanShedding computes the removals that bring every resource in
// index down to at most limit assignees.
//
// For a resource with L assignees, D of them dead and A alive, and
// excess E = L - limit > 0, the plan removes min(E, D) dead assignees
// and then E - min(E, D) alive ones. Within each class the victims are
// drawn uniformly without replacement from random. Resources with
// L <= limit get no group. Assignees missing from liveness are dead.
//
// The plan is a pure function of its inputs and the state of random:
// the same snapshot and seed always produce the same plan.
func PlanShedding(index *Index[ResourceID, AgentID], liveness Liveness, limit int, random *rand.Rand) RemovalPlan {
	limit = max(limit, 0)
	plan := RemovalPlan{Kind: PlanAssignments, Cap: limit}

	for _, resource := range index.Keys() {
		assignees := index.Forward(resource)
		excess := len(assignees) - limit
		if excess <= 0 {
			continue
		}

		var dead, alive []AgentID
		for _, agent := range assignees {
			if liveness.Alive(agent) {
				alive = append(alive, agent)
			} else {
				dead = append(dead, agent)
			}
		}

		removeDead := min(excess, len(dead))
		removeAlive := min(excess-removeDead, len(alive))

		group := RemovalGroup{Resource: resource}
		for _, agent := range sample(random, dead, removeDead) {
			group.Removals = append(group.Removals, Removal{
				Reason:   ReasonExcessDead,
				Agent:    agent,
				Resource: resource,
			})
		}
		for _, agent := range sample(random, alive, removeAlive) {
			group.Removals = append(group.Removals, Removal{
				Reason:   ReasonExcessAlive,
				Agent:    agent,
				Resource: resource,
			})
		}
		plan.Groups = append(plan.Groups, group)
	}
	return plan
}

// sample draws count elements uniformly without replacement using a
// partial Fisher-Yates shuffle over a copy of population. When count
// covers the whole population no randomness is consumed.
func sample[T any](random *rand.Rand, population []T, count int) []T {
	if count <= 0 {
		return nil
	}
	if count >= len(population) {
		return slices.Clone(population)
	}
	pool := slices.Clone(population)
	for i := range count {
		j := i + random.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}

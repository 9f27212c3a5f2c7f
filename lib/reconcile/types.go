// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"fmt"
	"time"
)

// AgentID identifies a DHCP agent row.
type AgentID string

// ResourceID identifies a network. Networks are the resources agents
// are assigned to.
type ResourceID string

// ParentID identifies an owner (a project) in the identity store.
type ParentID string

// ChildID identifies an owned record (a security group).
type ChildID string

// ResourceKey is the form a resource takes when observed on a host:
// the network ID with the namespace prefix stripped. A key normally
// equals a ResourceID, but ground truth may contain keys for networks
// the database no longer knows.
type ResourceKey string

// Agent is an eligible (enabled, topic-matching) DHCP agent.
type Agent struct {
	ID            AgentID   `json:"id"`
	Host          string    `json:"host"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Resource is an enabled network.
type Resource struct {
	ID   ResourceID `json:"id"`
	Name string     `json:"name"`
}

// Assignment binds an agent to a resource. The store may contain the
// same pair more than once.
type Assignment struct {
	Agent    AgentID    `json:"agent"`
	Resource ResourceID `json:"resource"`
}

// Parent is a project.
type Parent struct {
	ID   ParentID `json:"id"`
	Name string   `json:"name"`
}

// Child is a security group owned by Parent.
type Child struct {
	ID     ChildID  `json:"id"`
	Parent ParentID `json:"parent"`
	Name   string   `json:"name"`
}

// Reason explains why a removal was planned.
type Reason string

const (
	// ReasonExcessDead marks an assignment to a dead agent removed to
	// bring a resource down to the cap.
	ReasonExcessDead Reason = "excess-dead"

	// ReasonExcessAlive marks an assignment to an alive agent removed
	// after every dead assignee of the resource was already removed.
	ReasonExcessAlive Reason = "excess-alive"

	// ReasonOrphaned marks a child whose parent no longer exists.
	ReasonOrphaned Reason = "orphaned"
)

// PlanKind selects how an Executor applies a plan's groups.
type PlanKind string

const (
	// PlanAssignments groups hold one Removal per binding to delete.
	PlanAssignments PlanKind = "assignments"

	// PlanOrphans groups delete every child of one parent in bulk.
	PlanOrphans PlanKind = "orphans"
)

// Removal is one planned deletion. Assignment removals set Agent and
// Resource; orphan removals set Parent and Child.
type Removal struct {
	Reason   Reason     `json:"reason"`
	Agent    AgentID    `json:"agent,omitempty"`
	Resource ResourceID `json:"resource,omitempty"`
	Parent   ParentID   `json:"parent,omitempty"`
	Child    ChildID    `json:"child,omitempty"`
}

// RemovalGroup is the unit of atomicity: an Executor applies each
// group in its own transaction. Shedding groups are keyed by
// Resource, orphan groups by Parent.
type RemovalGroup struct {
	Resource ResourceID `json:"resource,omitempty"`
	Parent   ParentID   `json:"parent,omitempty"`
	Removals []Removal  `json:"removals"`
}

// Key names the group in logs, errors, and execution results. The
// plan kind picks the label, so an orphan group whose parent ID is
// empty is still reported as a parent.
func (g RemovalGroup) Key(kind PlanKind) string {
	if kind == PlanOrphans {
		return fmt.Sprintf("parent/%s", g.Parent)
	}
	return fmt.Sprintf("resource/%s", g.Resource)
}

// RemovalPlan is an ordered list of removal groups. Groups follow the
// first-seen order of their resource or parent in the snapshot.
type RemovalPlan struct {
	Kind   PlanKind       `json:"kind"`
	Cap    int            `json:"cap,omitempty"`
	Groups []RemovalGroup `json:"groups"`
}

// Len returns the number of planned removals across all groups.
func (p RemovalPlan) Len() int {
	count := 0
	for _, group := range p.Groups {
		count += len(group.Removals)
	}
	return count
}

// Empty reports whether the plan removes nothing.
func (p RemovalPlan) Empty() bool {
	return p.Len() == 0
}

// CountByReason tallies planned removals per reason.
func (p RemovalPlan) CountByReason() map[Reason]int {
	counts := make(map[Reason]int)
	for _, group := range p.Groups {
		for _, removal := range group.Removals {
			counts[removal.Reason]++
		}
	}
	return counts
}

// CountByAgent tallies planned assignment removals per agent, in the
// order agents first appear in the plan.
func (p RemovalPlan) CountByAgent() ([]AgentID, map[AgentID]int) {
	var order []AgentID
	counts := make(map[AgentID]int)
	for _, group := range p.Groups {
		for _, removal := range group.Removals {
			if removal.Agent == "" {
				continue
			}
			if _, seen := counts[removal.Agent]; !seen {
				order = append(order, removal.Agent)
			}
			counts[removal.Agent]++
		}
	}
	return order, counts
}

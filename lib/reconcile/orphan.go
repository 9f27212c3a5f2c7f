// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

// OrphanReport partitions children by whether their parent exists.
// Every child lands in exactly one of Owned or Orphans.
type OrphanReport struct {
	// Parents holds the known parents by ID.
	Parents map[ParentID]Parent `json:"-"`

	// OwnedParents lists every known parent in snapshot order,
	// including parents that own no children.
	OwnedParents []ParentID           `json:"owned_parents"`
	Owned        map[ParentID][]Child `json:"owned"`

	// OrphanParents lists vanished parent IDs in the order their
	// first child was seen.
	OrphanParents []ParentID           `json:"orphan_parents"`
	Orphans       map[ParentID][]Child `json:"orphans"`

	OwnedCount  int `json:"owned_count"`
	OrphanCount int `json:"orphan_count"`
}

// Total returns the number of classified children.
func (r OrphanReport) Total() int {
	return r.OwnedCount + r.OrphanCount
}

// ClassifyOrphans classifies every child against the parent set.
// Child lists preserve input order.
func ClassifyOrphans(children []Child, parents []Parent) OrphanReport {
	report := OrphanReport{
		Parents: make(map[ParentID]Parent, len(parents)),
		Owned:   make(map[ParentID][]Child, len(parents)),
		Orphans: make(map[ParentID][]Child),
	}
	for _, parent := range parents {
		if _, seen := report.Parents[parent.ID]; seen {
			continue
		}
		report.Parents[parent.ID] = parent
		report.OwnedParents = append(report.OwnedParents, parent.ID)
		report.Owned[parent.ID] = []Child{}
	}

	for _, child := range children {
		if _, exists := report.Parents[child.Parent]; exists {
			report.Owned[child.Parent] = append(report.Owned[child.Parent], child)
			report.OwnedCount++
			continue
		}
		if _, seen := report.Orphans[child.Parent]; !seen {
			report.OrphanParents = append(report.OrphanParents, child.Parent)
		}
		report.Orphans[child.Parent] = append(report.Orphans[child.Parent], child)
		report.OrphanCount++
	}
	return report
}

// PlanOrphanRemoval turns every orphaned parent into one removal
// group. Executing a group deletes all children of that parent in
// one statement; the per-child removals describe what that covers.
func PlanOrphanRemoval(report OrphanReport) RemovalPlan {
	plan := RemovalPlan{Kind: PlanOrphans}
	for _, parent := range report.OrphanParents {
		group := RemovalGroup{Parent: parent}
		for _, child := range report.Orphans[parent] {
			group.Removals = append(group.Removals, Removal{
				Reason: ReasonOrphaned,
				Parent: parent,
				Child:  child.ID,
			})
		}
		plan.Groups = append(plan.Groups, group)
	}
	return plan
}

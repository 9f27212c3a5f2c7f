// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

// DiscrepancyEntry is one resource present on only one side of the
// comparison. Known is false when the key names no enabled resource
// in the snapshot; Name is empty in that case. Both directions use the
// same representation.
type DiscrepancyEntry struct {
	Key   ResourceKey `json:"key"`
	Name  string      `json:"name,omitempty"`
	Known bool        `json:"known"`
}

// AgentDiscrepancy lists the mismatches for one agent.
type AgentDiscrepancy struct {
	Agent  AgentID          `json:"agent"`
	Host   string           `json:"host"`
	Status InspectionStatus `json:"status"`

	// AuthoritativeOnly holds keys bound in the store but absent on
	// the host.
	AuthoritativeOnly []DiscrepancyEntry `json:"authoritative_only"`

	// GroundTruthOnly holds keys live on the host with no binding.
	GroundTruthOnly []DiscrepancyEntry `json:"ground_truth_only"`
}

// Count returns the number of mismatches for the agent.
func (d AgentDiscrepancy) Count() int {
	return len(d.AuthoritativeOnly) + len(d.GroundTruthOnly)
}

// DiscrepancyReport lists agents with at least one mismatch, in
// snapshot order. Total is the sum of every listed agent's Count.
type DiscrepancyReport struct {
	Agents []AgentDiscrepancy `json:"agents"`
	Total  int                `json:"total"`
}

// DiffInput carries the two views being compared.
type DiffInput struct {
	// Agents fixes the report order.
	Agents []Agent

	// Authoritative maps each agent to the keys the store binds to it.
	Authoritative map[AgentID][]ResourceKey

	GroundTruth GroundTruth

	// Resources resolves keys to names.
	Resources map[ResourceID]Resource
}

// Diff compares authoritative bindings with ground truth per agent
// using set semantics: duplicates on either side count once, and each
// direction is listed in the order keys first appear on its side.
//
// An agent that was not inspected or was unreachable has an empty
// ground-truth set, so every binding it holds is reported as
// authoritative-only. Agents with no mismatch are omitted.
func Diff(input DiffInput) DiscrepancyReport {
	report := DiscrepancyReport{Agents: []AgentDiscrepancy{}}

	for _, agent := range input.Agents {
		entry := AgentDiscrepancy{
			Agent:             agent.ID,
			Host:              agent.Host,
			Status:            StatusNotInspected,
			AuthoritativeOnly: []DiscrepancyEntry{},
			GroundTruthOnly:   []DiscrepancyEntry{},
		}

		var observed []ResourceKey
		if truth, found := input.GroundTruth.Lookup(agent.ID); found {
			entry.Status = truth.Status
			observed = truth.Keys
		}
		authoritative := input.Authoritative[agent.ID]

		observedSet := keySet(observed)
		authoritativeSet := keySet(authoritative)

		for _, key := range distinct(authoritative) {
			if _, present := observedSet[key]; !present {
				entry.AuthoritativeOnly = append(entry.AuthoritativeOnly, describeKey(key, input.Resources))
			}
		}
		for _, key := range distinct(observed) {
			if _, present := authoritativeSet[key]; !present {
				entry.GroundTruthOnly = append(entry.GroundTruthOnly, describeKey(key, input.Resources))
			}
		}

		if count := entry.Count(); count > 0 {
			report.Agents = append(report.Agents, entry)
			report.Total += count
		}
	}
	return report
}

func describeKey(key ResourceKey, resources map[ResourceID]Resource) DiscrepancyEntry {
	resource, known := resources[ResourceID(key)]
	if !known {
		return DiscrepancyEntry{Key: key}
	}
	return DiscrepancyEntry{Key: key, Name: resource.Name, Known: true}
}

func keySet(keys []ResourceKey) map[ResourceKey]struct{} {
	set := make(map[ResourceKey]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}

func distinct(keys []ResourceKey) []ResourceKey {
	seen := make(map[ResourceKey]struct{}, len(keys))
	unique := make([]ResourceKey, 0, len(keys))
	for _, key := range keys {
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	return unique
}

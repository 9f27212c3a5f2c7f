// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"fmt"
	"io"
	"strings"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// agentSummary is one agent in brief and detail output.
type agentSummary struct {
	ID       reconcile.AgentID `json:"id"                   desc:"agent UUID"`
	Host     string            `json:"host"                 desc:"agent host"`
	Alive    bool              `json:"alive"                desc:"heartbeat within agent_down_time"`
	Eligible bool              `json:"eligible"             desc:"enabled agent of the DHCP topic"`
	Networks int               `json:"networks"             desc:"bindings in the database"`
	Status   string            `json:"inspection,omitempty" desc:"namespace inspection status"`
	Live     *int              `json:"namespaces,omitempty" desc:"qdhcp namespaces on the host"`
}

// summarizeAgents lists eligible agents in store order, then any
// agent that holds bindings without being eligible.
func summarizeAgents(snapshot *reconcile.Snapshot, truth *reconcile.GroundTruth) []agentSummary {
	var summaries []agentSummary
	seen := make(map[reconcile.AgentID]bool)
	add := func(id reconcile.AgentID) {
		if seen[id] {
			return
		}
		seen[id] = true
		agent, eligible := snapshot.AgentsByID[id]
		summary := agentSummary{
			ID:       id,
			Host:     agent.Host,
			Alive:    snapshot.Liveness.Alive(id),
			Eligible: eligible,
			Networks: len(snapshot.Index.Reverse(id)),
		}
		if truth != nil {
			if entry, ok := truth.Lookup(id); ok {
				summary.Status = string(entry.Status)
				if entry.Status == reconcile.StatusCollected {
					count := len(entry.Keys)
					summary.Live = &count
				}
			}
		}
		summaries = append(summaries, summary)
	}
	for _, agent := range snapshot.Agents {
		add(agent.ID)
	}
	for _, id := range snapshot.Index.ReverseKeys() {
		add(id)
	}
	return summaries
}

func hostLabel(host string) string {
	if host == "" {
		return "unknown host"
	}
	return host
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func aliveLabel(alive bool) string {
	if alive {
		return "alive"
	}
	return "dead"
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

type detailParams struct {
	pass.Flags
	cli.JSONOutput
	Inspect bool `json:"-" flag:"inspect" desc:"also list qdhcp namespaces on each alive agent's host over SSH"`
}

// networkDetail is one enabled network and the agents bound to it.
type networkDetail struct {
	ID     reconcile.ResourceID `json:"id"     desc:"network UUID"`
	Name   string               `json:"name"   desc:"network name"`
	Agents []reconcile.AgentID  `json:"agents" desc:"bound DHCP agents, sorted"`
}

// networkRef names a network seen from an agent.
type networkRef struct {
	ID    reconcile.ResourceKey `json:"id"    desc:"network UUID"`
	Name  string                `json:"name"  desc:"network name, empty when not an enabled network"`
	Known bool                  `json:"known" desc:"the UUID is an enabled network"`
}

// agentNetworks lists the networks one agent hosts.
type agentNetworks struct {
	Agent    reconcile.AgentID `json:"agent"    desc:"agent UUID"`
	Host     string            `json:"host"     desc:"agent host"`
	Networks []networkRef      `json:"networks" desc:"hosted networks"`
}

type detailResult struct {
	Agents        []agentSummary  `json:"agents"               desc:"DHCP agents with liveness"`
	Networks      []networkDetail `json:"networks"             desc:"enabled networks with their agents"`
	AgentNetworks []agentNetworks `json:"agent_networks"       desc:"networks per agent from the database"`
	Namespaces    []agentNetworks `json:"namespaces,omitempty" desc:"networks per agent from qdhcp namespaces"`
}

func detailCommand() *cli.Command {
	var params detailParams

	return &cli.Command{
		Name:    "detail",
		Summary: "List agents, networks, and their bindings",
		Description: `Print every DHCP agent with its liveness, every enabled network, the
agents bound to each network, and the networks bound to each agent.

With --inspect, also print the networks whose qdhcp namespace exists
on each alive agent's host.`,
		Usage:  "neutron-reconcile dhcp-agent detail [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Dump bindings as JSON",
				Command:     "neutron-reconcile dhcp-agent detail --json",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runDetail(ctx, &params, os.Stdout, logger, pass.Options{})
		},
	}
}

func runDetail(ctx context.Context, params *detailParams, out io.Writer, logger *slog.Logger, options pass.Options) (err error) {
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	options.Command = "dhcp-agent/detail"
	options.Inspect = params.Inspect
	run, err := pass.Open(cfg, options, logger)
	if err != nil {
		return err
	}
	defer func() { err = run.Finish(err) }()

	snapshot, err := run.Engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	run.Metrics.ObserveSnapshot(snapshot)

	var truth *reconcile.GroundTruth
	if params.Inspect {
		collected, err := run.Engine.CollectGroundTruth(ctx, snapshot)
		if err != nil {
			return err
		}
		truth = &collected
	}

	result := buildDetail(snapshot, truth)
	if done, err := params.EmitJSON(out, result); done {
		return err
	}
	return writeDetail(out, result)
}

func buildDetail(snapshot *reconcile.Snapshot, truth *reconcile.GroundTruth) detailResult {
	result := detailResult{
		Agents:        summarizeAgents(snapshot, truth),
		Networks:      []networkDetail{},
		AgentNetworks: []agentNetworks{},
	}
	for _, resource := range snapshot.Resources {
		agents := snapshot.Index.Forward(resource.ID)
		slices.Sort(agents)
		result.Networks = append(result.Networks, networkDetail{
			ID:     resource.ID,
			Name:   resource.Name,
			Agents: agents,
		})
	}
	authoritative := snapshot.Authoritative()
	for _, agent := range result.Agents {
		result.AgentNetworks = append(result.AgentNetworks, agentNetworks{
			Agent:    agent.ID,
			Host:     agent.Host,
			Networks: describe(authoritative[agent.ID], snapshot.ResourcesByID),
		})
	}
	if truth != nil {
		result.Namespaces = []agentNetworks{}
		for _, entry := range truth.Agents {
			if entry.Status != reconcile.StatusCollected {
				continue
			}
			result.Namespaces = append(result.Namespaces, agentNetworks{
				Agent:    entry.Agent,
				Host:     entry.Host,
				Networks: describe(entry.Keys, snapshot.ResourcesByID),
			})
		}
	}
	return result
}

func describe(keys []reconcile.ResourceKey, resources map[reconcile.ResourceID]reconcile.Resource) []networkRef {
	refs := make([]networkRef, len(keys))
	for i, key := range keys {
		resource, known := resources[reconcile.ResourceID(key)]
		refs[i] = networkRef{ID: key, Name: resource.Name, Known: known}
	}
	return refs
}

func writeDetail(out io.Writer, result detailResult) error {
	heading(out, "From the Neutron database")
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "DHCP AGENT UUID\tAGENT HOST\tALIVE\n")
	for _, agent := range result.Agents {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", agent.ID, hostLabel(agent.Host), aliveLabel(agent.Alive))
	}
	fmt.Fprintf(writer, "\nNETWORK UUID\tNETWORK NAME\tDHCP AGENTS\n")
	for _, network := range result.Networks {
		fmt.Fprintf(writer, "%s\t%s\t%v\n", network.ID, network.Name, network.Agents)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	writeAgentNetworks(out, result.AgentNetworks)

	if result.Namespaces == nil {
		return nil
	}
	heading(out, "From IP network namespaces")
	writeAgentNetworks(out, result.Namespaces)
	return nil
}

func writeAgentNetworks(out io.Writer, agents []agentNetworks) {
	for _, agent := range agents {
		fmt.Fprintf(out, "\nDHCP agent %s in %s hosts %d networks:\n", agent.Agent, hostLabel(agent.Host), len(agent.Networks))
		for _, network := range agent.Networks {
			if network.Known {
				fmt.Fprintf(out, "  %s  %s\n", network.ID, network.Name)
			} else {
				fmt.Fprintf(out, "  %s  (not an enabled network)\n", network.ID)
			}
		}
	}
}

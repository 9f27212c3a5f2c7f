// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

type briefParams struct {
	pass.Flags
	cli.JSONOutput
	Inspect bool `json:"-" flag:"inspect" desc:"also count qdhcp namespaces on each alive agent's host over SSH"`
}

// degreeCount is one histogram bucket.
type degreeCount struct {
	Agents   int `json:"agents"   desc:"DHCP agents per network"`
	Networks int `json:"networks" desc:"networks with that many agents"`
}

type briefResult struct {
	Networks    int            `json:"networks"     desc:"enabled networks"`
	Bindings    int            `json:"bindings"     desc:"binding rows for enabled networks"`
	AliveAgents int            `json:"alive_agents" desc:"eligible agents with a fresh heartbeat"`
	DeadAgents  int            `json:"dead_agents"  desc:"eligible agents with a stale heartbeat"`
	Histogram   []degreeCount  `json:"histogram"    desc:"networks by number of DHCP agents"`
	Agents      []agentSummary `json:"agents"       desc:"per-agent binding counts"`
	Inspected   bool           `json:"inspected"    desc:"namespace counts were collected"`
}

func briefCommand() *cli.Command {
	var params briefParams

	return &cli.Command{
		Name:    "brief",
		Summary: "Summarize networks per DHCP agent",
		Description: `Print the number of enabled networks, a histogram of networks by
number of DHCP agents, and the number of networks each agent hosts.

With --inspect, also print how many qdhcp namespaces exist on each
alive agent's host.`,
		Usage: "neutron-reconcile dhcp-agent brief [flags]",
		Examples: []cli.Example{
			{
				Description: "Summarize bindings from the database",
				Command:     "neutron-reconcile dhcp-agent brief",
			},
			{
				Description: "Include namespace counts from every host",
				Command:     "neutron-reconcile dhcp-agent brief --inspect",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runBrief(ctx, &params, os.Stdout, logger, pass.Options{})
		},
	}
}

func runBrief(ctx context.Context, params *briefParams, out io.Writer, logger *slog.Logger, options pass.Options) (err error) {
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	options.Command = "dhcp-agent/brief"
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

	result := buildBrief(snapshot, truth)
	if done, err := params.EmitJSON(out, result); done {
		return err
	}
	return writeBrief(out, result)
}

func buildBrief(snapshot *reconcile.Snapshot, truth *reconcile.GroundTruth) briefResult {
	alive, dead := snapshot.Liveness.Counts()
	result := briefResult{
		Networks:    len(snapshot.Resources),
		Bindings:    snapshot.Index.Pairs(),
		AliveAgents: alive,
		DeadAgents:  dead,
		Histogram:   []degreeCount{},
		Agents:      summarizeAgents(snapshot, truth),
		Inspected:   truth != nil,
	}
	histogram := snapshot.Index.Histogram()
	for _, degree := range reconcile.Degrees(histogram) {
		result.Histogram = append(result.Histogram, degreeCount{Agents: degree, Networks: histogram[degree]})
	}
	return result
}

func writeBrief(out io.Writer, result briefResult) error {
	heading(out, "From the Neutron database")
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Total number of networks\t%d\n", result.Networks)
	for _, bucket := range result.Histogram {
		fmt.Fprintf(writer, "  Number of networks with %d DHCP agents\t%d\n", bucket.Agents, bucket.Networks)
	}
	fmt.Fprintf(writer, "DHCP agents alive / dead\t%d / %d\n", result.AliveAgents, result.DeadAgents)
	if err := writer.Flush(); err != nil {
		return err
	}
	for _, agent := range result.Agents {
		fmt.Fprintf(out, "DHCP agent in %s hosts %d networks\n", hostLabel(agent.Host), agent.Networks)
	}

	if !result.Inspected {
		return nil
	}
	heading(out, "From IP network namespaces")
	for _, agent := range result.Agents {
		switch {
		case agent.Live != nil:
			fmt.Fprintf(out, "DHCP agent in %s hosts %d networks\n", hostLabel(agent.Host), *agent.Live)
		case agent.Status == string(reconcile.StatusUnreachable):
			fmt.Fprintf(out, "DHCP agent in %s is unreachable\n", hostLabel(agent.Host))
		}
	}
	return nil
}

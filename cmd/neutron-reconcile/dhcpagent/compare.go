// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

type compareParams struct {
	pass.Flags
	cli.JSONOutput
}

func compareCommand() *cli.Command {
	var params compareParams

	return &cli.Command{
		Name:    "compare",
		Summary: "Compare bindings with qdhcp namespaces on agent hosts",
		Description: `Log in to every alive DHCP agent's host, list its qdhcp namespaces,
and report per agent the networks bound in the database without a
namespace and the namespaces without a binding.

Dead agents are not contacted, so all their bindings are reported as
missing namespaces. Hosts that cannot be reached are reported the same
way and logged.

Exits 1 when any discrepancy is found, 0 otherwise.`,
		Usage:  "neutron-reconcile dhcp-agent compare [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Report discrepancies",
				Command:     "neutron-reconcile dhcp-agent compare",
			},
			{
				Description: "Check from a script",
				Command:     "neutron-reconcile dhcp-agent compare --json > report.json || page-oncall",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runCompare(ctx, &params, os.Stdout, logger, pass.Options{})
		},
	}
}

func runCompare(ctx context.Context, params *compareParams, out io.Writer, logger *slog.Logger, options pass.Options) (err error) {
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	options.Command = "dhcp-agent/compare"
	options.Inspect = true
	run, err := pass.Open(cfg, options, logger)
	if err != nil {
		return err
	}
	defer func() { err = run.Finish(err) }()

	outcome, err := run.Engine.Compare(ctx)
	if err != nil {
		return err
	}
	run.Metrics.ObserveSnapshot(outcome.Snapshot)
	run.Metrics.ObserveComparison(outcome.GroundTruth, outcome.Report)

	done, err := params.EmitJSON(out, outcome)
	if !done {
		writeReport(out, outcome)
	} else if err != nil {
		return err
	}
	if outcome.Report.Total > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func writeReport(out io.Writer, outcome reconcile.CompareOutcome) {
	for _, agent := range outcome.Report.Agents {
		fmt.Fprintf(out, "DHCP agent in %s (%s):\n", hostLabel(agent.Host), agent.Status)
		for _, entry := range agent.AuthoritativeOnly {
			if entry.Known {
				fmt.Fprintf(out, "  %s %s is in the database but has no namespace\n", entry.Key, entry.Name)
			} else {
				fmt.Fprintf(out, "  %s is in the database but not an enabled network\n", entry.Key)
			}
		}
		for _, entry := range agent.GroundTruthOnly {
			if entry.Known {
				fmt.Fprintf(out, "  %s %s has a namespace but no binding\n", entry.Key, entry.Name)
			} else {
				fmt.Fprintf(out, "  %s has a namespace but is not an enabled network\n", entry.Key)
			}
		}
	}
	if unreachable := outcome.GroundTruth.Unreachable(); len(unreachable) > 0 {
		fmt.Fprintf(out, "Could not inspect %d hosts\n", len(unreachable))
	}
	if outcome.Report.Total == 0 {
		fmt.Fprintln(out, "No discrepancies between the database and IP network namespaces")
		return
	}
	fmt.Fprintf(out, "Found %d discrepancies between the database and IP network namespaces\n", outcome.Report.Total)
}

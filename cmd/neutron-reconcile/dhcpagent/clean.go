// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

type cleanParams struct {
	pass.Flags
	cli.JSONOutput
	DryRun            bool   `json:"dry_run"            flag:"dry-run"            desc:"print the plan and its fingerprint without deleting anything"`
	Seed              uint64 `json:"seed"               flag:"seed"               desc:"seed for choosing which alive agents lose a network (0 picks one)"`
	Cap               int    `json:"cap"                flag:"cap"                desc:"override agents.dhcp_agents_per_network"`
	ExpectFingerprint string `json:"expect_fingerprint" flag:"expect-fingerprint" desc:"refuse to delete unless the plan matches this dry-run fingerprint"`
}

// agentTally is the number of bindings removed from one agent.
type agentTally struct {
	Agent    reconcile.AgentID `json:"agent"    desc:"agent UUID"`
	Host     string            `json:"host"     desc:"agent host"`
	Networks int64             `json:"networks" desc:"bindings removed or planned"`
}

type cleanResult struct {
	RunID       string                    `json:"run_id"      desc:"identifier of this pass"`
	Seed        uint64                    `json:"seed"        desc:"sampling seed"`
	DryRun      bool                      `json:"dry_run"     desc:"nothing was deleted"`
	Fingerprint string                    `json:"fingerprint" desc:"BLAKE3 digest of the plan"`
	Plan        reconcile.RemovalPlan     `json:"plan"        desc:"planned removals grouped by network"`
	Executed    bool                      `json:"executed"    desc:"the plan was applied"`
	Result      reconcile.ExecutionResult `json:"result"      desc:"rows removed and group outcomes"`
	Agents      []agentTally              `json:"agents"      desc:"removals per agent"`
	Seconds     float64                   `json:"seconds"     desc:"pass duration"`
}

func cleanCommand() *cli.Command {
	var params cleanParams

	return &cli.Command{
		Name:    "clean",
		Summary: "Shed bindings beyond dhcp_agents_per_network",
		Description: `For every enabled network with more DHCP agents than the cap, remove
bindings until the cap holds: dead agents first, then alive agents
chosen uniformly at random. Each network is removed in its own
transaction, so one failure does not undo the others.

Run with --dry-run first. It prints the plan, the seed, and a
fingerprint. Passing the same --seed and --expect-fingerprint makes
the real run refuse to delete anything if the database changed in
between.

Restart neutron-dhcp-agent on the affected hosts afterwards so that
stale namespaces are torn down.`,
		Usage:  "neutron-reconcile dhcp-agent clean [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Preview the plan",
				Command:     "neutron-reconcile dhcp-agent clean --dry-run --seed 42",
			},
			{
				Description: "Apply exactly the previewed plan",
				Command:     "neutron-reconcile dhcp-agent clean --seed 42 --expect-fingerprint 3f9a...",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runClean(ctx, &params, os.Stdout, logger, pass.Options{})
		},
	}
}

func runClean(ctx context.Context, params *cleanParams, out io.Writer, logger *slog.Logger, options pass.Options) (err error) {
	if params.Cap < 0 {
		return cli.Validation("--cap must be positive, got %d", params.Cap)
	}
	if params.ExpectFingerprint != "" && params.Seed == 0 {
		return cli.Validation("--expect-fingerprint needs the --seed of the dry run it came from")
	}
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	options.Command = "dhcp-agent/clean"
	options.Writable = !params.DryRun
	options.Seed = params.Seed
	options.Cap = params.Cap
	run, err := pass.Open(cfg, options, logger)
	if err != nil {
		return err
	}
	defer func() { err = run.Finish(err) }()

	outcome, shedErr := run.Engine.Shed(ctx, reconcile.ShedOptions{
		DryRun:            params.DryRun,
		ExpectFingerprint: params.ExpectFingerprint,
	})
	if outcome.Snapshot == nil {
		return shedErr
	}
	run.Metrics.ObserveSnapshot(outcome.Snapshot)
	run.Metrics.ObservePlan(outcome.Plan)
	if outcome.Executed {
		run.Metrics.ObserveExecution(outcome.Result)
	}
	if errors.Is(shedErr, reconcile.ErrFingerprintMismatch) {
		return cli.Conflict("plan fingerprint is %s, expected %s; rerun with --dry-run: %w",
			outcome.Fingerprint, params.ExpectFingerprint, shedErr)
	}

	result := cleanResult{
		RunID:       run.RunID,
		Seed:        run.Seed,
		DryRun:      params.DryRun,
		Fingerprint: outcome.Fingerprint,
		Plan:        outcome.Plan,
		Executed:    outcome.Executed,
		Result:      outcome.Result,
		Agents:      tally(outcome),
		Seconds:     run.Elapsed().Seconds(),
	}
	if done, err := params.EmitJSON(out, result); done {
		return errors.Join(shedErr, err)
	}
	writeClean(out, result)
	return shedErr
}

// tally counts removals per agent: planned ones on a dry run,
// committed ones otherwise.
func tally(outcome reconcile.ShedOutcome) []agentTally {
	tallies := []agentTally{}
	order, planned := outcome.Plan.CountByAgent()
	for _, agent := range order {
		count := int64(planned[agent])
		if outcome.Executed {
			count = outcome.Result.PerAgent[agent]
			if count == 0 {
				continue
			}
		}
		tallies = append(tallies, agentTally{
			Agent:    agent,
			Host:     outcome.Snapshot.AgentsByID[agent].Host,
			Networks: count,
		})
	}
	return tallies
}

func writeClean(out io.Writer, result cleanResult) {
	if result.DryRun {
		for _, group := range result.Plan.Groups {
			fmt.Fprintf(out, "Network %s:\n", group.Resource)
			for _, removal := range group.Removals {
				fmt.Fprintf(out, "  remove DHCP agent %s (%s)\n", removal.Agent, removal.Reason)
			}
		}
		for _, agent := range result.Agents {
			fmt.Fprintf(out, "Would remove %d networks for DHCP agent in %s\n", agent.Networks, hostLabel(agent.Host))
		}
		fmt.Fprintf(out, "Planned %d network-to-agent binding removals (cap %d)\n", result.Plan.Len(), result.Plan.Cap)
		fmt.Fprintf(out, "Seed %d, fingerprint %s\n", result.Seed, result.Fingerprint)
		if result.Plan.Len() > 0 {
			fmt.Fprintf(out, "Apply with: neutron-reconcile dhcp-agent clean --seed %d --expect-fingerprint %s\n",
				result.Seed, result.Fingerprint)
		}
		return
	}

	for _, agent := range result.Agents {
		fmt.Fprintf(out, "Removed %d networks for DHCP agent in %s\n", agent.Networks, hostLabel(agent.Host))
	}
	for _, group := range result.Result.Failed {
		fmt.Fprintf(out, "Failed to remove bindings of %s\n", group)
	}
	fmt.Fprintf(out, "Removed %d network-to-agent bindings in %.3f seconds\n", result.Result.Removed, result.Seconds)
	if result.Result.Removed > 0 {
		fmt.Fprintln(out, "Restart neutron-dhcp-agent on the hosts above to remove their stale namespaces")
	}
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package secgroup

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
	DryRun bool `json:"dry_run" flag:"dry-run" desc:"list what would be removed without deleting anything"`
}

// projectTally is the number of security groups removed for one
// deleted project.
type projectTally struct {
	Project reconcile.ParentID `json:"project" desc:"deleted project UUID"`
	Groups  int64              `json:"groups"  desc:"security groups removed or planned"`
}

type cleanResult struct {
	RunID    string                    `json:"run_id"   desc:"identifier of this pass"`
	DryRun   bool                      `json:"dry_run"  desc:"nothing was deleted"`
	Plan     reconcile.RemovalPlan     `json:"plan"     desc:"orphans grouped by deleted project"`
	Executed bool                      `json:"executed" desc:"the plan was applied"`
	Result   reconcile.ExecutionResult `json:"result"   desc:"rows removed and group outcomes"`
	Projects []projectTally            `json:"projects" desc:"removals per deleted project"`
	Seconds  float64                   `json:"seconds"  desc:"pass duration"`
}

func cleanCommand() *cli.Command {
	var params cleanParams

	return &cli.Command{
		Name:    "clean",
		Summary: "Remove security groups of deleted projects",
		Description: `Delete every security group whose project no longer exists. Each
deleted project's groups are removed in one transaction with a single
bulk delete; a failure rolls back only that project.`,
		Usage:  "neutron-reconcile security-group clean [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "List what would be removed",
				Command:     "neutron-reconcile security-group clean --dry-run",
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
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	options.Command = "security-group/clean"
	options.Writable = !params.DryRun
	run, err := pass.Open(cfg, options, logger)
	if err != nil {
		return err
	}
	defer func() { err = run.Finish(err) }()

	outcome, cleanErr := run.Engine.CleanOrphans(ctx, params.DryRun)
	if outcome.Report.Parents == nil {
		return cleanErr
	}
	run.Metrics.ObserveOrphans(outcome.Report)
	run.Metrics.ObservePlan(outcome.Plan)
	if outcome.Executed {
		run.Metrics.ObserveExecution(outcome.Result)
	}

	result := cleanResult{
		RunID:    run.RunID,
		DryRun:   params.DryRun,
		Plan:     outcome.Plan,
		Executed: outcome.Executed,
		Result:   outcome.Result,
		Projects: tally(outcome),
		Seconds:  run.Elapsed().Seconds(),
	}
	if done, err := params.EmitJSON(out, result); done {
		return errors.Join(cleanErr, err)
	}
	writeClean(out, result)
	return cleanErr
}

func tally(outcome reconcile.OrphanOutcome) []projectTally {
	tallies := []projectTally{}
	for _, parent := range outcome.Report.OrphanParents {
		count := int64(len(outcome.Report.Orphans[parent]))
		if outcome.Executed {
			count = outcome.Result.PerParent[parent]
			if count == 0 {
				continue
			}
		}
		tallies = append(tallies, projectTally{Project: parent, Groups: count})
	}
	return tallies
}

func writeClean(out io.Writer, result cleanResult) {
	verb := "Removed"
	if result.DryRun {
		verb = "Would remove"
	}
	for _, project := range result.Projects {
		fmt.Fprintf(out, "%s %d security groups of deleted project %s\n", verb, project.Groups, project.Project)
	}
	for _, group := range result.Result.Failed {
		fmt.Fprintf(out, "Failed to remove security groups of %s\n", group)
	}
	if result.DryRun {
		fmt.Fprintf(out, "Planned removal of %d security groups\n", result.Plan.Len())
		return
	}
	fmt.Fprintf(out, "Removed %d security groups in %.3f seconds\n", result.Result.Removed, result.Seconds)
}

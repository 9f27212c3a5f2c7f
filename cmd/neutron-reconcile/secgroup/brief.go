// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package secgroup

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
}

type briefResult struct {
	Groups          int `json:"groups"           desc:"security groups"`
	ActiveProjects  int `json:"active_projects"  desc:"projects in the identity database"`
	OwnedGroups     int `json:"owned_groups"     desc:"security groups of active projects"`
	DeletedProjects int `json:"deleted_projects" desc:"vanished projects that still own security groups"`
	OrphanedGroups  int `json:"orphaned_groups"  desc:"security groups of deleted projects"`
}

func briefCommand() *cli.Command {
	var params briefParams

	return &cli.Command{
		Name:        "brief",
		Summary:     "Count security groups of active and deleted projects",
		Description: "Print the number of security groups owned by active projects and by projects that no longer exist.",
		Usage:       "neutron-reconcile security-group brief [flags]",
		Params:      func() any { return &params },
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
	options.Command = "security-group/brief"
	run, err := pass.Open(cfg, options, logger)
	if err != nil {
		return err
	}
	defer func() { err = run.Finish(err) }()

	outcome, err := run.Engine.Orphans(ctx)
	if err != nil {
		return err
	}
	run.Metrics.ObserveOrphans(outcome.Report)

	result := buildBrief(outcome.Report)
	if done, err := params.EmitJSON(out, result); done {
		return err
	}
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "Total number of security groups\t%d\n", result.Groups)
	fmt.Fprintf(writer, "Number of security groups in %03d active projects\t%d\n", result.ActiveProjects, result.OwnedGroups)
	fmt.Fprintf(writer, "Number of security groups in %03d deleted projects\t%d\n", result.DeletedProjects, result.OrphanedGroups)
	return writer.Flush()
}

func buildBrief(report reconcile.OrphanReport) briefResult {
	return briefResult{
		Groups:          report.Total(),
		ActiveProjects:  len(report.OwnedParents),
		OwnedGroups:     report.OwnedCount,
		DeletedProjects: len(report.OrphanParents),
		OrphanedGroups:  report.OrphanCount,
	}
}

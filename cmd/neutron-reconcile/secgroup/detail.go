// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package secgroup

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

type detailParams struct {
	pass.Flags
	cli.JSONOutput
}

// projectGroups is one project with the names of its security groups.
type projectGroups struct {
	Project reconcile.ParentID `json:"project" desc:"project UUID"`
	Name    string             `json:"name"    desc:"project name, empty for deleted projects"`
	Groups  []string           `json:"groups"  desc:"security group names"`
}

type detailResult struct {
	Active  []projectGroups `json:"active"  desc:"active projects sorted by name"`
	Deleted []projectGroups `json:"deleted" desc:"deleted projects in the order their groups were found"`
}

func detailCommand() *cli.Command {
	var params detailParams

	return &cli.Command{
		Name:    "detail",
		Summary: "List security groups per active and deleted project",
		Description: `List every active project with the names of its security groups,
sorted by project name, then every deleted project that still owns
security groups.`,
		Usage:  "neutron-reconcile security-group detail [flags]",
		Params: func() any { return &params },
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
	options.Command = "security-group/detail"
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

	result := buildDetail(outcome.Report)
	if done, err := params.EmitJSON(out, result); done {
		return err
	}
	return writeDetail(out, result)
}

func buildDetail(report reconcile.OrphanReport) detailResult {
	result := detailResult{Active: []projectGroups{}, Deleted: []projectGroups{}}
	for _, parent := range report.OwnedParents {
		result.Active = append(result.Active, projectGroups{
			Project: parent,
			Name:    report.Parents[parent].Name,
			Groups:  groupNames(report.Owned[parent]),
		})
	}
	slices.SortStableFunc(result.Active, func(a, b projectGroups) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for _, parent := range report.OrphanParents {
		result.Deleted = append(result.Deleted, projectGroups{
			Project: parent,
			Groups:  groupNames(report.Orphans[parent]),
		})
	}
	return result
}

func groupNames(children []reconcile.Child) []string {
	names := make([]string, len(children))
	for i, child := range children {
		names[i] = child.Name
	}
	return names
}

func writeDetail(out io.Writer, result detailResult) error {
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "ACTIVE PROJECT\tSECURITY GROUPS\n")
	for _, project := range result.Active {
		fmt.Fprintf(writer, "%s\t%s\n", project.Name, strings.Join(project.Groups, ", "))
	}
	fmt.Fprintf(writer, "\nDELETED PROJECT\tSECURITY GROUPS\n")
	for _, project := range result.Deleted {
		fmt.Fprintf(writer, "%s\t%s\n", project.Project, strings.Join(project.Groups, ", "))
	}
	return writer.Flush()
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package secgroup

import "github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"

// Command returns the "security-group" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "security-group",
		Summary: "Report and remove security groups of deleted projects",
		Description: `Commands for the securitygroups table, which backs
'neutron security-group-list'.

A security group is orphaned when its tenant_id names no project in the
identity database (identity_database.path, or the Neutron database when
unset). Deleting a project in Keystone does not delete its security
groups, so they accumulate.`,
		Subcommands: []*cli.Command{
			briefCommand(),
			detailCommand(),
			cleanCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Count orphaned security groups",
				Command:     "neutron-reconcile security-group brief",
			},
			{
				Description: "Remove them",
				Command:     "neutron-reconcile security-group clean",
			},
		},
	}
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete neutron-reconcile command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/dhcpagent"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/initdb"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/journalcmd"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/secgroup"
	"github.com/yeungp/OpenStack-tools/lib/version"
)

// Root builds and returns the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "neutron-reconcile",
		Description: `neutron-reconcile: keep a Neutron database consistent with reality.

Sheds network-to-DHCP-agent bindings beyond dhcp_agents_per_network,
compares bindings with the qdhcp namespaces on each agent host, and
removes security groups of deleted projects.

Every command reads its config from --config or
$NEUTRON_RECONCILE_CONFIG.`,
		Subcommands: []*cli.Command{
			dhcpagent.Command(),
			secgroup.Command(),
			journalcmd.Command(),
			initdb.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Fprintf(os.Stdout, "neutron-reconcile %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Summarize DHCP agent load",
				Command:     "neutron-reconcile dhcp-agent brief",
			},
			{
				Description: "Preview and apply load shedding",
				Command:     "neutron-reconcile dhcp-agent clean --dry-run --seed 42",
			},
			{
				Description: "Find discrepancies with the namespaces on each host",
				Command:     "neutron-reconcile dhcp-agent compare",
			},
			{
				Description: "Count security groups of deleted projects",
				Command:     "neutron-reconcile security-group brief",
			},
		},
	}
}

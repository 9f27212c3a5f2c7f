// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import "github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"

// Command returns the "dhcp-agent" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "dhcp-agent",
		Summary: "Inspect and shed network-to-DHCP-agent bindings",
		Description: `Commands for the networkdhcpagentbindings table, which backs
'neutron dhcp-agent-list-hosting-net'.

An agent is alive when its last heartbeat is at most agents.agent_down_time
seconds old. Bindings to dead agents are shed first; a network keeps at
most agents.dhcp_agents_per_network bindings.

Query commands (brief, detail, compare) open the database read-only.
compare and --inspect log in to every alive agent's host over SSH and
list its qdhcp namespaces.`,
		Subcommands: []*cli.Command{
			briefCommand(),
			detailCommand(),
			compareCommand(),
			cleanCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize bindings",
				Command:     "neutron-reconcile dhcp-agent brief",
			},
			{
				Description: "Compare bindings with the namespaces on each host",
				Command:     "neutron-reconcile dhcp-agent compare",
			},
			{
				Description: "Preview load shedding",
				Command:     "neutron-reconcile dhcp-agent clean --dry-run",
			},
		},
	}
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package dhcpagent implements the "dhcp-agent" command group: reports
// on network-to-DHCP-agent bindings, comparison against the qdhcp
// namespaces present on agent hosts, and load shedding of bindings
// beyond dhcp_agents_per_network.
package dhcpagent

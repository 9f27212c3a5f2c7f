// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package neutrondb

// Schema creates the Neutron tables the store reads and writes.
// Column names follow Neutron's so a dump of a real deployment loads
// without translation. networkdhcpagentbindings deliberately has no
// primary key: the store must tolerate duplicated bindings.
const Schema = `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	agent_type TEXT NOT NULL DEFAULT 'DHCP agent',
	topic TEXT NOT NULL,
	host TEXT NOT NULL,
	admin_state_up INTEGER NOT NULL DEFAULT 1,
	heartbeat_timestamp TEXT
);

CREATE TABLE IF NOT EXISTS networks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	admin_state_up INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS networkdhcpagentbindings (
	network_id TEXT NOT NULL,
	dhcp_agent_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS networkdhcpagentbindings_pair
	ON networkdhcpagentbindings (network_id, dhcp_agent_id);

CREATE TABLE IF NOT EXISTS securitygroups (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS securitygroups_tenant
	ON securitygroups (tenant_id);
`

// IdentitySchema creates the Keystone project table.
const IdentitySchema = `
CREATE TABLE IF NOT EXISTS project (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);
`

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package neutrondb reads and writes the subset of the Neutron and
// Keystone schemas that reconciliation needs, on SQLite through
// lib/sqlitepool.
//
// A Store implements reconcile.Reader and reconcile.Writer. It reads:
//
//   - agents: enabled agents whose topic matches Config.AgentTopic
//     ("dhcp_agent" by default), with their heartbeat_timestamp;
//   - networks: enabled networks;
//   - networkdhcpagentbindings: every binding, duplicates included;
//   - securitygroups: every security group with its owning tenant_id;
//   - project (identity database): every project.
//
// The identity tables may live in a separate database file
// (Config.IdentityPath). When it is empty, project is read from the
// main database.
//
// Rows come back in rowid order, which is insertion order, so passes
// over an unchanged database are reproducible.
//
// Writes happen only inside transactions from Begin, which issues
// BEGIN IMMEDIATE so the write lock is held for the whole removal
// group. DeleteAssignment removes at most one row per call, so a
// duplicated binding needs one planned removal per copy.
//
// Heartbeats are stored the way Neutron stores DATETIME columns,
// "YYYY-MM-DD HH:MM:SS[.ffffff]" in UTC. RFC 3339 values are accepted
// too.
package neutrondb

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile decides which DHCP agent to network bindings and
// which security groups to delete from a Neutron database, and reports
// where the database disagrees with the namespaces actually present on
// each agent host.
//
// A pass reads an immutable Snapshot through a Reader, classifies each
// agent as alive or dead from its heartbeat, and builds an Index
// between networks (resources) and agents. From the snapshot the
// package derives:
//
//   - a load-shedding RemovalPlan (PlanShedding) that trims every
//     resource to at most MaxAssigneesPerResource agents, removing
//     dead assignees first and sampling uniformly among equals;
//   - an orphan RemovalPlan (PlanOrphanRemoval) that removes children
//     whose parent no longer exists;
//   - a DiscrepancyReport (Diff) comparing the authoritative bindings
//     with ground truth collected from alive agents over an Inspector.
//
// Plans are data. Nothing is written until an Executor applies a plan
// through a Writer, one transaction per RemovalGroup. A failed group
// is rolled back and reported while later groups still run; failing
// to open a transaction aborts the whole plan.
//
// Planning consumes randomness only through an injected *rand.Rand,
// and reads time only through an injected clock.Clock, so a seeded
// pass is reproducible. Fingerprint hashes a plan so a reviewed
// dry-run can be pinned before the real run.
package reconcile

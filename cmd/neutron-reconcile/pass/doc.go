// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package pass wires one neutron-reconcile run: it loads the config,
// opens the Neutron store, and builds a [reconcile.Engine] with the
// SSH inspector, removal journal, and metrics the run asks for.
//
// Commands embed [Flags] in their params, call [Flags.LoadConfig] and
// [Open], and end with [Pass.Finish], which records pass metrics,
// writes the textfile, releases every resource, and maps the run's
// error onto a categorized [cli.ToolError].
package pass

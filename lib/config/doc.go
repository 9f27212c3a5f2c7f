// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for
// neutron-reconcile.
//
// Configuration is loaded from a single file specified by either the
// NEUTRON_RECONCILE_CONFIG environment variable (via [Load]) or a
// --config flag (via [LoadFile]). There are no fallbacks and no
// automatic file search. A cleanup pass deletes rows from the Neutron
// database, so the file that pointed it there must be explicit.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production always verifies SSH host
// keys, whatever the file says.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${NEUTRON_DATABASE}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Database, IdentityDatabase,
//     Agents, Inspection, Output
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config

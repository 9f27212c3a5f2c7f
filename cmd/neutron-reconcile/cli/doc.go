// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for neutron-reconcile.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a params struct whose
// tagged fields become flags (see [BindFlags]), and a Run function.
// Commands are assembled into a tree in the commands package and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, logger construction, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// Errors returned by commands are either a [ToolError], which carries
// a category (validation, not_found, conflict, transient, internal),
// or an [ExitError], which asks main to exit with a code without
// printing anything more.
package cli

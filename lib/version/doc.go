// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for
// neutron-reconcile.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// For example:
//
//	go build -ldflags "-X github.com/yeungp/OpenStack-tools/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When GitCommit is not injected, the VCS stamp the go command embeds
// in the binary is used instead.
//
//   - [Info] -- "0.1.0-dev (abc1234, 2026-02-10T...)" for "version"
//   - [Full] -- Info plus Go version and GOOS/GOARCH
//   - [Short] -- just the version number
//   - [Commit] -- just the git SHA
package version

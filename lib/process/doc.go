// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error handler for
// neutron-reconcile. It covers the one raw I/O pattern that exists
// outside the structured logger: reporting a fatal error to stderr
// after the command tree has returned.
package process

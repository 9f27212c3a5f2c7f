// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix domain
// sockets (the ssh-agent socket in the inspect tests). Socket paths
// are limited to 108 bytes, which deeply nested t.TempDir() paths can
// exceed.
//
// [RequireReceive] reads from a channel with a timeout so tests that
// wait on a server goroutine fail instead of hanging.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable source of the current time.
//
// Liveness classification, run journals, and pass timing all read the
// wall clock. They accept a Clock instead of calling time.Now so tests
// can pin "now" to a fixed instant and move it explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine, _ := reconcile.New(reconcile.Options{Clock: c, ...})
//	c.Advance(90 * time.Second) // every agent heartbeat is now 90s older
//
// Production code injects Real().
package clock

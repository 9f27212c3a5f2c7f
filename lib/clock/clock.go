// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the wall clock. Production code injects Real();
// tests inject Fake() and control time with Advance and Set.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Since returns the time elapsed since start as measured by c.
func Since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}

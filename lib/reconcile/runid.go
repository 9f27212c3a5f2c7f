// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import "github.com/google/uuid"

// NewRunID returns a random identifier for one pass. It tags the
// pass's log lines, journal records, and metrics.
func NewRunID() string {
	return uuid.NewString()
}

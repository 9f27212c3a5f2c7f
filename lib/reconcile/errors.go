// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"errors"
	"fmt"
)

// ErrFingerprintMismatch is returned when a caller pins a plan
// fingerprint and the freshly computed plan hashes differently.
var ErrFingerprintMismatch = errors.New("removal plan fingerprint does not match")

// InvalidRecordError reports a store record that cannot be
// interpreted, such as an agent with no heartbeat. It aborts the pass.
type InvalidRecordError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s record %q: %s", e.Kind, e.ID, e.Reason)
}

// HostUnreachableError reports that ground truth could not be
// collected from an agent host. It is recorded per agent and never
// aborts the pass.
type HostUnreachableError struct {
	Agent AgentID
	Host  string
	Err   error
}

func (e *HostUnreachableError) Error() string {
	return fmt.Sprintf("host %s (agent %s) unreachable: %v", e.Host, e.Agent, e.Err)
}

func (e *HostUnreachableError) Unwrap() error { return e.Err }

// StoreConnectionError reports that the store could not be reached or
// a transaction could not be opened. It aborts the pass.
type StoreConnectionError struct {
	Op  string
	Err error
}

func (e *StoreConnectionError) Error() string {
	return fmt.Sprintf("store connection failed during %s: %v", e.Op, e.Err)
}

func (e *StoreConnectionError) Unwrap() error { return e.Err }

// StoreWriteError reports that one removal group failed and was
// rolled back. Execution continues with the next group.
type StoreWriteError struct {
	Group string
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("removal group %s rolled back: %v", e.Group, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

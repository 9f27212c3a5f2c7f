// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal keeps an append-only record of committed removal
// groups, so an operator can see afterwards exactly which bindings and
// security groups a cleanup run deleted.
//
// The journal file is a CBOR sequence (RFC 8742) of Record values.
// When the path ends in ".zst" each run appends one zstd frame; the
// reader decodes concatenated frames transparently. Records are
// flushed after every group so a crash loses at most the group in
// flight.
//
// A Writer implements reconcile.Recorder:
//
//	writer, err := journal.Open("/var/log/neutron-reconcile.cbor.zst", runID, clock.Real())
//	...
//	engine, err := reconcile.New(reconcile.Options{Recorder: writer, ...})
//	...
//	writer.Close()
package journal

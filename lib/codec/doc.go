// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the tool's CBOR encoding configuration.
//
// JSON is used for everything a human or script reads (--json command
// output). CBOR is used where bytes must be stable or compact: the
// removal-plan fingerprint is computed over the CBOR encoding of a
// plan, and the run journal is a CBOR sequence of records.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same plan always produces identical bytes, and therefore an identical
// fingerprint, on every machine.
//
// Types that appear in both --json output and CBOR carry only `json`
// tags; fxamacker/cbor reads them as a fallback when `cbor` tags are
// absent. Types that exist only on disk (journal records) carry `cbor`
// tags.
package codec

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/yeungp/OpenStack-tools/lib/codec"
)

// Fingerprint returns the hex BLAKE3 digest of the plan's
// deterministic CBOR encoding. Two plans have the same fingerprint
// exactly when they remove the same rows for the same reasons in the
// same order.
func Fingerprint(plan RemovalPlan) (string, error) {
	data, err := codec.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("encoding removal plan: %w", err)
	}
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}

// CheckFingerprint returns ErrFingerprintMismatch when expected is
// non-empty and differs from the plan's fingerprint.
func CheckFingerprint(plan RemovalPlan, expected string) (string, error) {
	actual, err := Fingerprint(plan)
	if err != nil {
		return "", err
	}
	if expected != "" && expected != actual {
		return actual, fmt.Errorf("%w: expected %s, computed %s", ErrFingerprintMismatch, expected, actual)
	}
	return actual, nil
}

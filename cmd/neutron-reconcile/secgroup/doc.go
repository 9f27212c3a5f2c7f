// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package secgroup implements the "security-group" command group:
// reports of security groups by owning project and removal of the
// groups whose project no longer exists in the identity database.
package secgroup

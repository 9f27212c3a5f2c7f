// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Neutron-reconcile inspects and repairs a Neutron database: it sheds
// excess network-to-DHCP-agent bindings, compares bindings with the
// qdhcp namespaces on agent hosts, and removes security groups whose
// project was deleted.
package main

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package inspect collects ground truth from DHCP agent hosts.
//
// An SSHInspector connects to a host, runs "ip netns", and turns every
// namespace named with the DHCP prefix ("qdhcp-" by default) into a
// resource key by stripping the prefix. The remaining text is the
// network ID the namespace serves.
//
// Authentication uses private key files, a running ssh-agent, or both.
// Host keys are verified against a known_hosts file when
// StrictHostKeyChecking is set; otherwise any host key is accepted.
// The production environment refuses to run without strict checking
// (see lib/config).
//
// Each call opens its own connection and closes it before returning.
// The context bounds the whole exchange: dial, handshake, and command.
package inspect

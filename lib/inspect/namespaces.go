// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// DefaultNamespacePrefix is the prefix Neutron gives DHCP namespaces.
const DefaultNamespacePrefix = "qdhcp-"

// ParseNamespaces extracts resource keys from "ip netns" output. Each
// line starts with a namespace name, optionally followed by an
// "(id: N)" annotation. Lines whose name lacks prefix are ignored.
// Keys keep output order and duplicates.
func ParseNamespaces(output []byte, prefix string) []reconcile.ResourceKey {
	keys := []reconcile.ResourceKey{}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		key, found := strings.CutPrefix(fields[0], prefix)
		if !found || key == "" {
			continue
		}
		keys = append(keys, reconcile.ResourceKey(key))
	}
	return keys
}

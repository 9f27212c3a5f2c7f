// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package neutrondb

import (
	"fmt"
	"strings"
	"time"
)

// HeartbeatLayout is the layout Neutron writes heartbeat_timestamp in.
const HeartbeatLayout = "2006-01-02 15:04:05"

var heartbeatLayouts = []string{
	HeartbeatLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseHeartbeat parses a heartbeat_timestamp value as UTC. An empty
// value yields the zero time.
func ParseHeartbeat(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range heartbeatLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatHeartbeat renders t the way Neutron stores it.
func FormatHeartbeat(t time.Time) string {
	return t.UTC().Format(HeartbeatLayout)
}

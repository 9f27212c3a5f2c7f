// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package passmetrics turns the outcome of a reconciliation pass into
// Prometheus gauges and writes them in the node_exporter textfile
// format.
//
// The tool runs from cron, not as a daemon, so there is no scrape
// endpoint. Each command fills a private registry and, when
// output.metrics_file is configured, writes it atomically with
// prometheus.WriteToTextfile for the node_exporter textfile collector
// to pick up.
//
// All metric names carry the neutron_reconcile_ prefix.
package passmetrics

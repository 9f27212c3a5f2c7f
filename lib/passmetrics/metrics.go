// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package passmetrics

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

const namespace = "neutron_reconcile"

// Metrics holds the gauges for one process.
type Metrics struct {
	registry *prometheus.Registry

	agents           *prometheus.GaugeVec
	resources        prometheus.Gauge
	assignments      prometheus.Gauge
	assigneeDegree   *prometheus.GaugeVec
	plannedRemovals  *prometheus.GaugeVec
	removedRows      prometheus.Gauge
	failedGroups     prometheus.Gauge
	orphans          prometheus.Gauge
	ownedChildren    prometheus.Gauge
	discrepancies    *prometheus.GaugeVec
	inspections      *prometheus.GaugeVec
	passDuration     *prometheus.GaugeVec
	passSuccess      *prometheus.GaugeVec
	lastSuccessfulAt *prometheus.GaugeVec
}

// New registers every gauge on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		agents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agents",
			Help:      "Eligible DHCP agents by liveness.",
		}, []string{"liveness"}),
		resources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "networks",
			Help:      "Enabled networks in the snapshot.",
		}),
		assignments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bindings",
			Help:      "Network to DHCP agent bindings in the snapshot.",
		}),
		assigneeDegree: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "networks_by_agent_count",
			Help:      "Networks grouped by how many DHCP agents serve them.",
		}, []string{"agents"}),
		plannedRemovals: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "planned_removals",
			Help:      "Removals in the last computed plan by reason.",
		}, []string{"reason"}),
		removedRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "removed_rows",
			Help:      "Rows actually deleted by the last executed plan.",
		}),
		failedGroups: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_groups",
			Help:      "Removal groups rolled back in the last executed plan.",
		}),
		orphans: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_security_groups",
			Help:      "Security groups whose project no longer exists.",
		}),
		ownedChildren: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "owned_security_groups",
			Help:      "Security groups whose project exists.",
		}),
		discrepancies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discrepancies",
			Help:      "Bindings that disagree with host namespaces, by direction.",
		}, []string{"direction"}),
		inspections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inspections",
			Help:      "Agent hosts by ground-truth collection status.",
		}, []string{"status"}),
		passDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of the last pass.",
		}, []string{"command"}),
		passSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_success",
			Help:      "1 if the last pass completed without error.",
		}, []string{"command"}),
		lastSuccessfulAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful pass finished.",
		}, []string{"command"}),
	}
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveSnapshot records agent liveness and binding counts.
func (m *Metrics) ObserveSnapshot(snapshot *reconcile.Snapshot) {
	alive, dead := snapshot.Liveness.Counts()
	m.agents.WithLabelValues("alive").Set(float64(alive))
	m.agents.WithLabelValues("dead").Set(float64(dead))
	m.resources.Set(float64(len(snapshot.Resources)))
	m.assignments.Set(float64(len(snapshot.Assignments)))
	m.assigneeDegree.Reset()
	for degree, count := range snapshot.Index.Histogram() {
		m.assigneeDegree.WithLabelValues(strconv.Itoa(degree)).Set(float64(count))
	}
}

// ObservePlan records planned removals by reason.
func (m *Metrics) ObservePlan(plan reconcile.RemovalPlan) {
	counts := plan.CountByReason()
	for _, reason := range []reconcile.Reason{
		reconcile.ReasonExcessDead,
		reconcile.ReasonExcessAlive,
		reconcile.ReasonOrphaned,
	} {
		m.plannedRemovals.WithLabelValues(string(reason)).Set(float64(counts[reason]))
	}
}

// ObserveExecution records what an executed plan removed.
func (m *Metrics) ObserveExecution(result reconcile.ExecutionResult) {
	m.removedRows.Set(float64(result.Removed))
	m.failedGroups.Set(float64(len(result.Failed)))
}

// ObserveOrphans records the orphan classification.
func (m *Metrics) ObserveOrphans(report reconcile.OrphanReport) {
	m.orphans.Set(float64(report.OrphanCount))
	m.ownedChildren.Set(float64(report.OwnedCount))
}

// ObserveComparison records discrepancies and inspection outcomes.
func (m *Metrics) ObserveComparison(truth reconcile.GroundTruth, report reconcile.DiscrepancyReport) {
	statuses := map[reconcile.InspectionStatus]int{
		reconcile.StatusCollected:    0,
		reconcile.StatusUnreachable:  0,
		reconcile.StatusNotInspected: 0,
	}
	for _, entry := range truth.Agents {
		statuses[entry.Status]++
	}
	for status, count := range statuses {
		m.inspections.WithLabelValues(string(status)).Set(float64(count))
	}

	var authoritativeOnly, groundTruthOnly int
	for _, entry := range report.Agents {
		authoritativeOnly += len(entry.AuthoritativeOnly)
		groundTruthOnly += len(entry.GroundTruthOnly)
	}
	m.discrepancies.WithLabelValues("database_only").Set(float64(authoritativeOnly))
	m.discrepancies.WithLabelValues("host_only").Set(float64(groundTruthOnly))
}

// ObservePass records a command's duration and outcome. finished is
// the time the pass ended.
func (m *Metrics) ObservePass(command string, duration time.Duration, err error, finished time.Time) {
	m.passDuration.WithLabelValues(command).Set(duration.Seconds())
	if err != nil {
		m.passSuccess.WithLabelValues(command).Set(0)
		return
	}
	m.passSuccess.WithLabelValues(command).Set(1)
	m.lastSuccessfulAt.WithLabelValues(command).Set(float64(finished.Unix()))
}

// WriteTextfile writes every gauge to path in the text exposition
// format, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("passmetrics: writing %s: %w", path, err)
	}
	return nil
}

// TextfilePath derives the textfile for command from the configured
// base path: the command label, with separators replaced by '-', goes
// before the extension, so every command owns its file.
//
//	TextfilePath("/var/lib/node_exporter/neutron_reconcile.prom", "dhcp-agent/clean")
//	  == "/var/lib/node_exporter/neutron_reconcile.dhcp-agent-clean.prom"
func TextfilePath(base, command string) string {
	label := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ':
			return '-'
		}
		return r
	}, command)
	if label == "" {
		return base
	}
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension) + "." + label + extension
}

// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package passtest builds throwaway Neutron databases and config
// files for command tests.
package passtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
	"github.com/yeungp/OpenStack-tools/lib/passmetrics"
)

// Epoch is the wall-clock time command tests run at.
var Epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// Env is a database plus a config file that points at it.
type Env struct {
	ConfigPath   string
	DatabasePath string
	JournalPath  string
	MetricsPath  string
}

// MetricsFile returns the textfile a pass of command writes under the
// configured metrics base path.
func (e Env) MetricsFile(command string) string {
	return passmetrics.TextfilePath(e.MetricsPath, command)
}

// Heartbeat formats a heartbeat age before Epoch the way Neutron
// stores it.
func Heartbeat(age time.Duration) string {
	return neutrondb.FormatHeartbeat(Epoch.Add(-age))
}

// New creates and loads a database and writes a config with the
// journal and metrics outputs enabled. extraYAML is appended to the
// config verbatim.
func New(t *testing.T, fixture neutrondb.Fixture, extraYAML string) Env {
	t.Helper()
	directory := t.TempDir()
	env := Env{
		ConfigPath:   filepath.Join(directory, "neutron-reconcile.yaml"),
		DatabasePath: filepath.Join(directory, "neutron.sqlite"),
		JournalPath:  filepath.Join(directory, "journal.cbor"),
		MetricsPath:  filepath.Join(directory, "neutron_reconcile.prom"),
	}

	store, err := neutrondb.Open(neutrondb.Config{Path: env.DatabasePath})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	if err := store.Load(ctx, &fixture); err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing database: %v", err)
	}

	config := fmt.Sprintf(`environment: development
database:
  path: %s
  query_timeout: 10s
output:
  journal: %s
  metrics_file: %s
%s`, env.DatabasePath, env.JournalPath, env.MetricsPath, extraYAML)
	if err := os.WriteFile(env.ConfigPath, []byte(config), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return env
}

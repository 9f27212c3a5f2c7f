// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package initdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
)

const fixtureYAML = `agents:
  - id: agent-1
    host: network-1
    heartbeat: "2026-05-01 11:59:50"
networks:
  - id: net-1
    name: private
bindings:
  - network: net-1
    agent: agent-1
security_groups:
  - id: sg-1
    tenant: p-gone
    name: default
projects:
  - id: p-web
    name: web
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writeConfig(t *testing.T, directory, environment string) (configPath, databasePath, identityPath string) {
	t.Helper()
	databasePath = filepath.Join(directory, "neutron.sqlite")
	identityPath = filepath.Join(directory, "keystone.sqlite")
	configPath = filepath.Join(directory, "neutron-reconcile.yaml")
	writeFile(t, configPath, fmt.Sprintf(`environment: %s
database:
  path: %s
identity_database:
  path: %s
`, environment, databasePath, identityPath))
	return configPath, databasePath, identityPath
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestInitWithFixture(t *testing.T) {
	directory := t.TempDir()
	configPath, databasePath, identityPath := writeConfig(t, directory, "development")
	fixturePath := filepath.Join(directory, "fixture.yaml")
	writeFile(t, fixturePath, fixtureYAML)

	params := &initParams{
		Flags:      pass.Flags{ConfigPath: configPath},
		JSONOutput: cli.JSONOutput{OutputJSON: true},
		Fixture:    fixturePath,
	}
	var out bytes.Buffer
	if err := run(context.Background(), params, &out, discard()); err != nil {
		t.Fatalf("init-db: %v", err)
	}
	var result initResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if result.Agents != 1 || result.Bindings != 1 || result.Projects != 1 {
		t.Errorf("result = %+v", result)
	}

	store, err := neutrondb.Open(neutrondb.Config{Path: databasePath, IdentityPath: identityPath, ReadOnly: true})
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	assignments, err := store.ListAssignments(ctx)
	if err != nil || len(assignments) != 1 {
		t.Errorf("assignments = %v, %v", assignments, err)
	}
	parents, err := store.ListParents(ctx)
	if err != nil || len(parents) != 1 || parents[0].Name != "web" {
		t.Errorf("parents = %v, %v", parents, err)
	}
}

func TestInitWithoutFixture(t *testing.T) {
	configPath, databasePath, _ := writeConfig(t, t.TempDir(), "staging")
	var out bytes.Buffer
	if err := run(context.Background(), &initParams{Flags: pass.Flags{ConfigPath: configPath}}, &out, discard()); err != nil {
		t.Fatalf("init-db: %v", err)
	}
	if !strings.Contains(out.String(), "Initialized "+databasePath) {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "Loaded") {
		t.Errorf("fixture summary printed without --fixture: %q", out.String())
	}
}

func TestInitRefusesProduction(t *testing.T) {
	configPath, databasePath, _ := writeConfig(t, t.TempDir(), "production")
	var out bytes.Buffer
	err := run(context.Background(), &initParams{Flags: pass.Flags{ConfigPath: configPath}}, &out, discard())
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if _, err := os.Stat(databasePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("database created in production: %v", err)
	}
}

func TestInitMissingFixture(t *testing.T) {
	directory := t.TempDir()
	configPath, _, _ := writeConfig(t, directory, "development")
	params := &initParams{Flags: pass.Flags{ConfigPath: configPath}, Fixture: filepath.Join(directory, "absent.yaml")}
	var out bytes.Buffer
	err := run(context.Background(), params, &out, discard())
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
		t.Fatalf("error = %v, want not_found", err)
	}
}

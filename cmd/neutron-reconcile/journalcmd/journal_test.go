// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package journalcmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass/passtest"
	"github.com/yeungp/OpenStack-tools/lib/clock"
	"github.com/yeungp/OpenStack-tools/lib/journal"
	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

func writeJournal(t *testing.T, path string) {
	t.Helper()
	for _, runID := range []string{"run-a", "run-b"} {
		writer, err := journal.Open(path, runID, clock.Fake(passtest.Epoch))
		if err != nil {
			t.Fatalf("opening journal: %v", err)
		}
		group := reconcile.RemovalGroup{
			Resource: "net-1",
			Removals: []reconcile.Removal{{Reason: reconcile.ReasonExcessDead, Agent: "agent-3", Resource: "net-1"}},
		}
		if err := writer.Record(reconcile.PlanAssignments, group, 1); err != nil {
			t.Fatalf("recording: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("closing journal: %v", err)
		}
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestShowText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor")
	writeJournal(t, path)

	var out bytes.Buffer
	if err := runShow(&showParams{File: path}, &out, discard()); err != nil {
		t.Fatalf("show: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "run-a") || !strings.Contains(lines[1], "resource/net-1") {
		t.Errorf("first record line = %q", lines[1])
	}
	if !strings.Contains(lines[1], passtest.Epoch.Format(time.RFC3339)) {
		t.Errorf("first record line lacks commit time: %q", lines[1])
	}
}

func TestShowJSONFiltersRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor.zst")
	writeJournal(t, path)

	params := &showParams{File: path, RunID: "run-b", JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runShow(params, &out, discard()); err != nil {
		t.Fatalf("show: %v", err)
	}
	var entries []entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out.String())
	}
	if len(entries) != 1 || entries[0].RunID != "run-b" || entries[0].Rows != 1 {
		t.Fatalf("entries = %+v, want the single run-b record", entries)
	}
	if len(entries[0].Removals) != 1 || entries[0].Removals[0].Agent != "agent-3" {
		t.Errorf("removals = %+v", entries[0].Removals)
	}
}

func TestShowDiagnose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor")
	writeJournal(t, path)

	var out bytes.Buffer
	if err := runShow(&showParams{File: path, Diagnose: true}, &out, discard()); err != nil {
		t.Fatalf("show: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `"run_id": "run-a"`) {
		t.Errorf("diagnostic line = %q", lines[0])
	}
}

func TestShowUsesConfiguredJournal(t *testing.T) {
	env := passtest.New(t, neutrondb.Fixture{}, "")
	writeJournal(t, env.JournalPath)

	params := &showParams{Flags: pass.Flags{ConfigPath: env.ConfigPath}, JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runShow(params, &out, discard()); err != nil {
		t.Fatalf("show: %v", err)
	}
	var entries []entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestShowErrors(t *testing.T) {
	var out bytes.Buffer
	err := runShow(&showParams{File: filepath.Join(t.TempDir(), "absent.cbor")}, &out, discard())
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
		t.Errorf("missing journal error = %v, want not_found", err)
	}

	err = runShow(&showParams{File: "x", Diagnose: true, JSONOutput: cli.JSONOutput{OutputJSON: true}}, &out, discard())
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
		t.Errorf("--diagnose --json error = %v, want validation", err)
	}
}

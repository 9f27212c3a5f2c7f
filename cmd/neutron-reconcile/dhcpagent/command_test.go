// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package dhcpagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
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

// fakeInspector answers from a per-host table. Hosts missing from the
// table are unreachable.
type fakeInspector map[string][]reconcile.ResourceKey

func (f fakeInspector) ListLiveResourceKeys(_ context.Context, host string) ([]reconcile.ResourceKey, error) {
	keys, ok := f[host]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return keys, nil
}

// overloaded has four agents, one dead, and two networks above the
// default cap of two: net-1 carries the dead agent and net-4 carries
// three alive ones.
func overloaded() neutrondb.Fixture {
	fresh := passtest.Heartbeat(10 * time.Second)
	return neutrondb.Fixture{
		Agents: []neutrondb.AgentRow{
			{ID: "agent-1", Host: "network-1", Heartbeat: fresh},
			{ID: "agent-2", Host: "network-2", Heartbeat: fresh},
			{ID: "agent-3", Host: "network-3", Heartbeat: passtest.Heartbeat(time.Hour)},
			{ID: "agent-4", Host: "network-4", Heartbeat: fresh},
		},
		Networks: []neutrondb.NetworkRow{
			{ID: "net-1", Name: "private"},
			{ID: "net-2", Name: "public"},
			{ID: "net-3", Name: "storage"},
			{ID: "net-4", Name: "tenant-a"},
		},
		Bindings: []neutrondb.BindingRow{
			{Network: "net-1", Agent: "agent-1"},
			{Network: "net-1", Agent: "agent-2"},
			{Network: "net-1", Agent: "agent-3"},
			{Network: "net-2", Agent: "agent-1"},
			{Network: "net-2", Agent: "agent-2"},
			{Network: "net-3", Agent: "agent-1"},
			{Network: "net-4", Agent: "agent-1"},
			{Network: "net-4", Agent: "agent-2"},
			{Network: "net-4", Agent: "agent-4"},
		},
	}
}

func testOptions(inspector reconcile.Inspector) pass.Options {
	return pass.Options{Clock: clock.Fake(passtest.Epoch), Inspector: inspector}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func flags(env passtest.Env) pass.Flags {
	return pass.Flags{ConfigPath: env.ConfigPath}
}

func requireCategory(t *testing.T, err error, want cli.ErrorCategory) {
	t.Helper()
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v, want a ToolError", err)
	}
	if toolErr.Category != want {
		t.Fatalf("category = %q, want %q (error: %v)", toolErr.Category, want, err)
	}
}

func bindingCount(t *testing.T, env passtest.Env) int {
	t.Helper()
	params := &briefParams{Flags: flags(env), JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runBrief(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("brief: %v", err)
	}
	var result briefResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding brief: %v", err)
	}
	return result.Bindings
}

func TestBriefText(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	var out bytes.Buffer
	if err := runBrief(context.Background(), &briefParams{Flags: flags(env)}, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("brief: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Total number of networks",
		"Number of networks with 1 DHCP agents",
		"Number of networks with 3 DHCP agents",
		"DHCP agent in network-1 hosts 4 networks",
		"DHCP agent in network-3 hosts 1 networks",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "From IP network namespaces") {
		t.Errorf("namespace section printed without --inspect:\n%s", text)
	}
}

func TestBriefJSON(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	params := &briefParams{Flags: flags(env), JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runBrief(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("brief: %v", err)
	}
	var result briefResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out.String())
	}
	if result.Networks != 4 || result.Bindings != 9 {
		t.Errorf("networks, bindings = %d, %d, want 4, 9", result.Networks, result.Bindings)
	}
	if result.AliveAgents != 3 || result.DeadAgents != 1 {
		t.Errorf("alive, dead = %d, %d, want 3, 1", result.AliveAgents, result.DeadAgents)
	}
	want := []degreeCount{{Agents: 1, Networks: 1}, {Agents: 2, Networks: 1}, {Agents: 3, Networks: 2}}
	if len(result.Histogram) != len(want) {
		t.Fatalf("histogram = %+v, want %+v", result.Histogram, want)
	}
	for i := range want {
		if result.Histogram[i] != want[i] {
			t.Errorf("histogram[%d] = %+v, want %+v", i, result.Histogram[i], want[i])
		}
	}
	if result.Inspected {
		t.Error("Inspected = true without --inspect")
	}
}

func TestBriefInspect(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	inspector := fakeInspector{
		"network-1": {"net-1", "net-2"},
		"network-2": {"net-1"},
	}
	params := &briefParams{Flags: flags(env), JSONOutput: cli.JSONOutput{OutputJSON: true}, Inspect: true}
	var out bytes.Buffer
	if err := runBrief(context.Background(), params, &out, discard(), testOptions(inspector)); err != nil {
		t.Fatalf("brief: %v", err)
	}
	var result briefResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	statuses := make(map[reconcile.AgentID]agentSummary)
	for _, agent := range result.Agents {
		statuses[agent.ID] = agent
	}
	if agent := statuses["agent-1"]; agent.Live == nil || *agent.Live != 2 {
		t.Errorf("agent-1 namespaces = %v, want 2", agent.Live)
	}
	if agent := statuses["agent-3"]; agent.Status != string(reconcile.StatusNotInspected) {
		t.Errorf("dead agent-3 status = %q, want %q", agent.Status, reconcile.StatusNotInspected)
	}
	if agent := statuses["agent-4"]; agent.Status != string(reconcile.StatusUnreachable) || agent.Live != nil {
		t.Errorf("agent-4 = %+v, want unreachable without a count", agent)
	}
}

func TestDetailJSON(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	params := &detailParams{Flags: flags(env), JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runDetail(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("detail: %v", err)
	}
	var result detailResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(result.Networks) != 4 {
		t.Fatalf("networks = %d, want 4", len(result.Networks))
	}
	first := result.Networks[0]
	if first.ID != "net-1" || first.Name != "private" {
		t.Errorf("first network = %+v, want net-1 private", first)
	}
	if got := first.Agents; len(got) != 3 || got[0] != "agent-1" || got[2] != "agent-3" {
		t.Errorf("net-1 agents = %v, want agent-1..agent-3 sorted", got)
	}
	if len(result.Namespaces) != 0 {
		t.Errorf("namespaces present without --inspect: %+v", result.Namespaces)
	}
}

func TestDetailText(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	var out bytes.Buffer
	if err := runDetail(context.Background(), &detailParams{Flags: flags(env)}, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("detail: %v", err)
	}
	text := out.String()
	for _, want := range []string{"DHCP AGENT UUID", "NETWORK UUID", "tenant-a", "DHCP agent agent-3 in network-3 hosts 1 networks"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestCompareReportsDiscrepancies(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	inspector := fakeInspector{
		"network-1": {"net-1", "net-2", "net-3", "net-4"},
		"network-2": {"net-1", "net-2", "net-4", "net-9"},
		"network-4": {"net-4"},
	}
	var out bytes.Buffer
	err := runCompare(context.Background(), &compareParams{Flags: flags(env)}, &out, discard(), testOptions(inspector))
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("compare error = %v, want exit code 1", err)
	}
	text := out.String()
	for _, want := range []string{
		"net-9 has a namespace but is not an enabled network",
		"net-1 private is in the database but has no namespace",
		"Found 2 discrepancies",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestCompareClean(t *testing.T) {
	fixture := overloaded()
	fixture.Bindings = fixture.Bindings[3:6]
	env := passtest.New(t, fixture, "")
	inspector := fakeInspector{
		"network-1": {"net-2", "net-3"},
		"network-2": {"net-2"},
		"network-4": {},
	}
	params := &compareParams{Flags: flags(env), JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var out bytes.Buffer
	if err := runCompare(context.Background(), params, &out, discard(), testOptions(inspector)); err != nil {
		t.Fatalf("compare: %v", err)
	}
	var outcome reconcile.CompareOutcome
	if err := json.Unmarshal(out.Bytes(), &outcome); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if outcome.Report.Total != 0 {
		t.Errorf("total = %d, want 0: %+v", outcome.Report.Total, outcome.Report)
	}
	if len(outcome.GroundTruth.Agents) != 4 {
		t.Errorf("ground truth entries = %d, want 4", len(outcome.GroundTruth.Agents))
	}
}

func dryRun(t *testing.T, env passtest.Env, seed uint64) cleanResult {
	t.Helper()
	params := &cleanParams{
		Flags:      flags(env),
		JSONOutput: cli.JSONOutput{OutputJSON: true},
		DryRun:     true,
		Seed:       seed,
	}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	var result cleanResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	return result
}

func TestCleanDryRunIsReproducible(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	first := dryRun(t, env, 7)
	second := dryRun(t, env, 7)

	if first.Fingerprint == "" || first.Fingerprint != second.Fingerprint {
		t.Errorf("fingerprints %q and %q differ for the same seed", first.Fingerprint, second.Fingerprint)
	}
	if first.Seed != 7 || !first.DryRun || first.Executed {
		t.Errorf("result = seed %d dry_run %v executed %v", first.Seed, first.DryRun, first.Executed)
	}
	if first.Plan.Len() != 2 {
		t.Fatalf("planned removals = %d, want 2: %+v", first.Plan.Len(), first.Plan)
	}
	reasons := first.Plan.CountByReason()
	if reasons[reconcile.ReasonExcessDead] != 1 || reasons[reconcile.ReasonExcessAlive] != 1 {
		t.Errorf("reasons = %v, want one excess-dead and one excess-alive", reasons)
	}
	if dead := first.Plan.Groups[0].Removals[0]; dead.Resource != "net-1" || dead.Agent != "agent-3" {
		t.Errorf("first removal = %+v, want agent-3 from net-1", dead)
	}
	if got := bindingCount(t, env); got != 9 {
		t.Errorf("bindings after dry run = %d, want 9", got)
	}
	if _, err := os.Stat(env.JournalPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created a journal: %v", err)
	}
}

func TestCleanDryRunText(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	params := &cleanParams{Flags: flags(env), DryRun: true, Seed: 11}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"remove DHCP agent agent-3 (excess-dead)",
		"Would remove 1 networks for DHCP agent in network-3",
		"Planned 2 network-to-agent binding removals (cap 2)",
		"--seed 11 --expect-fingerprint",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestCleanExecutesMatchingFingerprint(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	preview := dryRun(t, env, 7)

	params := &cleanParams{
		Flags:             flags(env),
		JSONOutput:        cli.JSONOutput{OutputJSON: true},
		Seed:              7,
		ExpectFingerprint: preview.Fingerprint,
	}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("clean: %v", err)
	}
	var result cleanResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !result.Executed || result.Result.Removed != 2 {
		t.Fatalf("executed %v removed %d, want true 2", result.Executed, result.Result.Removed)
	}
	if len(result.Result.Failed) != 0 {
		t.Errorf("failed groups = %v", result.Result.Failed)
	}
	requireRemovedRows(t, env)
	if got := bindingCount(t, env); got != 7 {
		t.Errorf("bindings after clean = %d, want 7", got)
	}

	records, err := journal.Read(env.JournalPath)
	if err != nil {
		t.Fatalf("reading journal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("journal records = %d, want 2", len(records))
	}
	if records[0].RunID != result.RunID || records[0].Group != "resource/net-1" {
		t.Errorf("first record = %+v, want run %s group resource/net-1", records[0], result.RunID)
	}

	// The brief pass behind bindingCount wrote its own textfile.
	if _, err := os.Stat(env.MetricsFile("dhcp-agent/brief")); err != nil {
		t.Errorf("brief metrics textfile: %v", err)
	}
	requireRemovedRows(t, env)

	again := dryRun(t, env, 7)
	if !again.Plan.Empty() {
		t.Errorf("plan after clean = %+v, want empty", again.Plan)
	}
}

// requireRemovedRows checks the clean pass's textfile reports two
// removed rows.
func requireRemovedRows(t *testing.T, env passtest.Env) {
	t.Helper()
	metrics, err := os.ReadFile(env.MetricsFile("dhcp-agent/clean"))
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "neutron_reconcile_removed_rows 2") {
		t.Errorf("metrics missing removed_rows 2:\n%s", metrics)
	}
}

func TestCleanRejectsStaleFingerprint(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	params := &cleanParams{Flags: flags(env), Seed: 7, ExpectFingerprint: "0000"}
	var out bytes.Buffer
	err := runClean(context.Background(), params, &out, discard(), testOptions(nil))
	requireCategory(t, err, cli.CategoryConflict)
	if !errors.Is(err, reconcile.ErrFingerprintMismatch) {
		t.Errorf("error does not wrap ErrFingerprintMismatch: %v", err)
	}
	if got := bindingCount(t, env); got != 9 {
		t.Errorf("bindings after rejected clean = %d, want 9", got)
	}
}

func TestCleanCapOverride(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	params := &cleanParams{
		Flags:      flags(env),
		JSONOutput: cli.JSONOutput{OutputJSON: true},
		DryRun:     true,
		Seed:       3,
		Cap:        1,
	}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions(nil)); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	var result cleanResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	// net-1 drops 2, net-2 drops 1, net-4 drops 2.
	if result.Plan.Cap != 1 || result.Plan.Len() != 5 {
		t.Errorf("cap %d removals %d, want 1 and 5", result.Plan.Cap, result.Plan.Len())
	}
}

func TestCleanValidation(t *testing.T) {
	env := passtest.New(t, overloaded(), "")
	tests := []struct {
		name   string
		params cleanParams
	}{
		{"fingerprint without seed", cleanParams{Flags: flags(env), ExpectFingerprint: "abc"}},
		{"negative cap", cleanParams{Flags: flags(env), Cap: -1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runClean(context.Background(), &test.params, &out, discard(), testOptions(nil))
			requireCategory(t, err, cli.CategoryValidation)
		})
	}
}

func TestMissingConfigIsNotFound(t *testing.T) {
	params := &briefParams{Flags: pass.Flags{ConfigPath: t.TempDir() + "/absent.yaml"}}
	var out bytes.Buffer
	err := runBrief(context.Background(), params, &out, discard(), testOptions(nil))
	requireCategory(t, err, cli.CategoryNotFound)
}

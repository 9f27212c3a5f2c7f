// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package secgroup

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass/passtest"
	"github.com/yeungp/OpenStack-tools/lib/clock"
	"github.com/yeungp/OpenStack-tools/lib/journal"
	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
)

// tenants has two active projects, one without security groups, and
// two deleted projects owning three groups between them.
func tenants() neutrondb.Fixture {
	return neutrondb.Fixture{
		Projects: []neutrondb.ProjectRow{
			{ID: "p-web", Name: "web"},
			{ID: "p-admin", Name: "admin"},
		},
		SecurityGroups: []neutrondb.SecurityGroupRow{
			{ID: "sg-1", Tenant: "p-web", Name: "default"},
			{ID: "sg-2", Tenant: "p-gone", Name: "default"},
			{ID: "sg-3", Tenant: "p-web", Name: "http"},
			{ID: "sg-4", Tenant: "p-gone", Name: "ssh"},
			{ID: "sg-5", Tenant: "p-lost", Name: "default"},
		},
	}
}

func testOptions() pass.Options {
	return pass.Options{Clock: clock.Fake(passtest.Epoch)}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func brief(t *testing.T, env passtest.Env) briefResult {
	t.Helper()
	params := &briefParams{
		Flags:      pass.Flags{ConfigPath: env.ConfigPath},
		JSONOutput: cli.JSONOutput{OutputJSON: true},
	}
	var out bytes.Buffer
	if err := runBrief(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("brief: %v", err)
	}
	var result briefResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out.String())
	}
	return result
}

func TestBrief(t *testing.T) {
	env := passtest.New(t, tenants(), "")
	want := briefResult{Groups: 5, ActiveProjects: 2, OwnedGroups: 2, DeletedProjects: 2, OrphanedGroups: 3}
	if got := brief(t, env); got != want {
		t.Errorf("brief = %+v, want %+v", got, want)
	}
}

func TestBriefText(t *testing.T) {
	env := passtest.New(t, tenants(), "")
	var out bytes.Buffer
	params := &briefParams{Flags: pass.Flags{ConfigPath: env.ConfigPath}}
	if err := runBrief(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("brief: %v", err)
	}
	for _, want := range []string{
		"Total number of security groups",
		"Number of security groups in 002 active projects",
		"Number of security groups in 002 deleted projects",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDetail(t *testing.T) {
	env := passtest.New(t, tenants(), "")
	params := &detailParams{
		Flags:      pass.Flags{ConfigPath: env.ConfigPath},
		JSONOutput: cli.JSONOutput{OutputJSON: true},
	}
	var out bytes.Buffer
	if err := runDetail(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("detail: %v", err)
	}
	var result detailResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if len(result.Active) != 2 || result.Active[0].Name != "admin" || result.Active[1].Name != "web" {
		t.Fatalf("active = %+v, want admin then web", result.Active)
	}
	if len(result.Active[0].Groups) != 0 {
		t.Errorf("admin groups = %v, want none", result.Active[0].Groups)
	}
	if got := strings.Join(result.Active[1].Groups, ","); got != "default,http" {
		t.Errorf("web groups = %q, want default,http", got)
	}
	if len(result.Deleted) != 2 || result.Deleted[0].Project != "p-gone" || result.Deleted[1].Project != "p-lost" {
		t.Fatalf("deleted = %+v, want p-gone then p-lost", result.Deleted)
	}
	if got := strings.Join(result.Deleted[0].Groups, ","); got != "default,ssh" {
		t.Errorf("p-gone groups = %q, want default,ssh", got)
	}
}

func TestCleanDryRun(t *testing.T) {
	env := passtest.New(t, tenants(), "")
	params := &cleanParams{Flags: pass.Flags{ConfigPath: env.ConfigPath}, DryRun: true}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	for _, want := range []string{
		"Would remove 2 security groups of deleted project p-gone",
		"Would remove 1 security groups of deleted project p-lost",
		"Planned removal of 3 security groups",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if got := brief(t, env).OrphanedGroups; got != 3 {
		t.Errorf("orphaned groups after dry run = %d, want 3", got)
	}
}

func TestClean(t *testing.T) {
	env := passtest.New(t, tenants(), "")
	params := &cleanParams{
		Flags:      pass.Flags{ConfigPath: env.ConfigPath},
		JSONOutput: cli.JSONOutput{OutputJSON: true},
	}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("clean: %v", err)
	}
	var result cleanResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !result.Executed || result.Result.Removed != 3 {
		t.Fatalf("executed %v removed %d, want true 3", result.Executed, result.Result.Removed)
	}
	if len(result.Projects) != 2 || result.Projects[0].Groups != 2 {
		t.Errorf("projects = %+v", result.Projects)
	}

	after := brief(t, env)
	if after.OrphanedGroups != 0 || after.OwnedGroups != 2 {
		t.Errorf("after clean = %+v, want 0 orphaned and 2 owned", after)
	}

	records, err := journal.Read(env.JournalPath)
	if err != nil {
		t.Fatalf("reading journal: %v", err)
	}
	if len(records) != 2 || records[1].Group != "parent/p-lost" || records[1].Rows != 1 {
		t.Errorf("journal = %+v", records)
	}
}

func TestCleanNothingToDo(t *testing.T) {
	fixture := tenants()
	fixture.SecurityGroups = fixture.SecurityGroups[:1]
	env := passtest.New(t, fixture, "")
	params := &cleanParams{Flags: pass.Flags{ConfigPath: env.ConfigPath}}
	var out bytes.Buffer
	if err := runClean(context.Background(), params, &out, discard(), testOptions()); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !strings.Contains(out.String(), "Removed 0 security groups") {
		t.Errorf("output = %q", out.String())
	}
}

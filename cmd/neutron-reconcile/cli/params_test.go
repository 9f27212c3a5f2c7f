// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Config   string        `flag:"config,c" desc:"config path"`
		DryRun   bool          `flag:"dry-run,n" desc:"plan only"`
		Cap      int           `flag:"cap" desc:"agents per network"`
		Offset   int64         `flag:"offset" desc:"byte offset"`
		Seed     uint64        `flag:"seed" desc:"random seed"`
		Timeout  time.Duration `flag:"timeout" desc:"query timeout"`
		Hosts    []string      `flag:"hosts" desc:"host list"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"-c", "/etc/neutron-reconcile.yaml",
		"-n",
		"--cap", "3",
		"--offset", "1099511627776",
		"--seed", "18446744073709551615",
		"--timeout", "30s",
		"--hosts", "compute-1,compute-2",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Config != "/etc/neutron-reconcile.yaml" {
		t.Errorf("Config = %q", p.Config)
	}
	if !p.DryRun {
		t.Error("DryRun = false, want true")
	}
	if p.Cap != 3 {
		t.Errorf("Cap = %d, want 3", p.Cap)
	}
	if p.Offset != 1099511627776 {
		t.Errorf("Offset = %d", p.Offset)
	}
	if p.Seed != 18446744073709551615 {
		t.Errorf("Seed = %d, want max uint64", p.Seed)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", p.Timeout)
	}
	if len(p.Hosts) != 2 || p.Hosts[1] != "compute-2" {
		t.Errorf("Hosts = %v", p.Hosts)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Level   string        `flag:"log-level" default:"info"`
		Cap     int           `flag:"cap" default:"2"`
		Seed    uint64        `flag:"seed" default:"7"`
		Timeout time.Duration `flag:"timeout" default:"10s"`
		Inspect bool          `flag:"inspect" default:"true"`
		Hosts   []string      `flag:"hosts" default:"a,b"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Level != "info" || p.Cap != 2 || p.Seed != 7 || p.Timeout != 10*time.Second || !p.Inspect {
		t.Errorf("defaults not applied: %+v", p)
	}
	if len(p.Hosts) != 2 {
		t.Errorf("Hosts = %v, want [a b]", p.Hosts)
	}
}

func TestBindFlags_EmbeddedStructs(t *testing.T) {
	type common struct {
		Config string `flag:"config"`
	}
	type params struct {
		common
		JSONOutput
		DryRun bool `flag:"dry-run"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--config", "x.yaml", "--json", "--dry-run"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Config != "x.yaml" || !p.OutputJSON || !p.DryRun {
		t.Errorf("params = %+v", p)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	var notPointer struct{}
	if err := BindFlags(notPointer, flagSet); err == nil {
		t.Error("expected error for non-pointer params")
	}

	type unsupported struct {
		Ratio complex128 `flag:"ratio"`
	}
	err := BindFlags(&unsupported{}, flagSet)
	if err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("BindFlags = %v, want unsupported type error", err)
	}

	type badDefault struct {
		Cap int `flag:"cap" default:"two"`
	}
	if err := BindFlags(&badDefault{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("expected error for unparseable default")
	}
}

func TestFlagsFromParams_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic on invalid params")
		}
	}()
	FlagsFromParams("test", 42)
}

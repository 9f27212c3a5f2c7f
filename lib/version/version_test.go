// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, settings []debug.BuildSetting, ok bool) {
	t.Helper()
	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, ok
	}
	t.Cleanup(func() { readBuildInfo = original })
}

func setVars(t *testing.T, commit, dirty, buildTime string) {
	t.Helper()
	savedCommit, savedDirty, savedTime := GitCommit, GitDirty, BuildTime
	GitCommit, GitDirty, BuildTime = commit, dirty, buildTime
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = savedCommit, savedDirty, savedTime })
}

func TestInfoFromLDFlags(t *testing.T) {
	setVars(t, "abc1234", "true", "2026-05-01T12:00:00Z")
	stubBuildInfo(t, []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}}, true)

	want := Version + " (abc1234-dirty, 2026-05-01T12:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if got := Commit(); got != "abc1234" {
		t.Errorf("Commit() = %q, want abc1234", got)
	}
}

func TestInfoFromBuildInfo(t *testing.T) {
	setVars(t, "unknown", "false", "unknown")
	stubBuildInfo(t, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-04-30T08:00:00Z"},
	}, true)

	want := Version + " (0123456789ab-dirty, 2026-04-30T08:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoWithoutBuildInfo(t *testing.T) {
	setVars(t, "unknown", "false", "unknown")
	stubBuildInfo(t, nil, false)

	want := Version + " (unknown, unknown)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() = %q does not start with Info()", full)
	}
	if !strings.Contains(full, runtime.Version()) || !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q lacks Go version or platform", full)
	}
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}

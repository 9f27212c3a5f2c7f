// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(75 * time.Second)
	want := epoch.Add(75 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSet(t *testing.T) {
	clock := Fake(epoch)
	target := epoch.Add(-time.Hour)
	clock.Set(target)
	if got := clock.Now(); !got.Equal(target) {
		t.Fatalf("Now() after Set = %v, want %v", got, target)
	}
}

func TestSince(t *testing.T) {
	clock := Fake(epoch)
	start := clock.Now()
	clock.Advance(1500 * time.Millisecond)
	if got := Since(clock, start); got != 1500*time.Millisecond {
		t.Fatalf("Since = %v, want 1.5s", got)
	}
}

func TestFakeClockConcurrentReads(t *testing.T) {
	clock := Fake(epoch)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = clock.Now()
			}
		}()
	}
	for range 100 {
		clock.Advance(time.Millisecond)
	}
	wg.Wait()
	if got, want := clock.Now(), epoch.Add(100*time.Millisecond); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestRealClockMovesForward(t *testing.T) {
	clock := Real()
	first := clock.Now()
	if first.IsZero() {
		t.Fatal("Real().Now() returned the zero time")
	}
	if Since(clock, first) < 0 {
		t.Fatal("Since on the real clock went backward")
	}
}

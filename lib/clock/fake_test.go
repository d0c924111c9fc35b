// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	t.Parallel()

	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(4 * time.Second)
	select {
	case <-channel:
		t.Fatal("fired before deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(5 * time.Second)) {
			t.Errorf("fired at %v", fired)
		}
	default:
		t.Fatal("did not fire at deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	t.Parallel()

	clock := Fake(epoch)
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestWaitForWaiters(t *testing.T) {
	t.Parallel()

	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-clock.After(time.Minute)
		close(done)
	}()

	clock.WaitForWaiters(1)
	if pending := clock.PendingDurations(); len(pending) != 1 || pending[0] != time.Minute {
		t.Fatalf("pending = %v", pending)
	}
	clock.Advance(time.Minute)
	<-done
}

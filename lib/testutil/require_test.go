// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// recorder captures Fatalf instead of stopping the test. Fatalf
// panics so the helper's own control flow ends the way it would under
// testing.T.
type recorder struct {
	message string
}

type fatal struct{}

func (*recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	panic(fatal{})
}

func capture(run func(*recorder)) (message string) {
	r := &recorder{}
	defer func() {
		if recovered := recover(); recovered != nil {
			if _, ok := recovered.(fatal); !ok {
				panic(recovered)
			}
		}
		message = r.message
	}()
	run(r)
	return ""
}

func TestRequireReceive(t *testing.T) {
	t.Parallel()

	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("got %d, want 7", got)
	}

	closed := make(chan int)
	close(closed)
	message := capture(func(r *recorder) { RequireReceive(r, closed, time.Second, "sync %d", 2) })
	if message != "channel closed without sending a value: sync 2" {
		t.Errorf("closed channel message = %q", message)
	}

	message = capture(func(r *recorder) { RequireReceive(r, make(chan int), time.Millisecond) })
	if message == "" {
		t.Error("expected a timeout failure")
	}
}

func TestRequireClosed(t *testing.T) {
	t.Parallel()

	ready := make(chan struct{})
	close(ready)
	RequireClosed(t, ready, time.Second, "ready")

	message := capture(func(r *recorder) { RequireClosed(r, make(chan struct{}), time.Millisecond, "never") })
	if message == "" {
		t.Error("expected a timeout failure")
	}
}

package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)
	fired := 0
	c.AfterFunc(time.Second, func() { fired++ })

	c.Advance(999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired=%d want 1", fired)
	}
	c.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("fired twice: %d", fired)
	}
	if got := c.Now(); !got.Equal(start.Add(time.Hour + time.Second)) {
		t.Fatalf("Now=%v", got)
	}
}

func TestFakeStopCancels(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	if c.Pending() != 1 {
		t.Fatalf("Pending=%d want 1", c.Pending())
	}
	if !tm.Stop() {
		t.Fatalf("Stop returned false for pending timer")
	}
	if tm.Stop() {
		t.Fatalf("second Stop returned true")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if c.Pending() != 0 {
		t.Fatalf("Pending=%d want 0", c.Pending())
	}
}

func TestFakeCallbackMaySchedule(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []string
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() {
		order = append(order, "a")
		c.AfterFunc(time.Second, func() { order = append(order, "c") })
	})

	c.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order=%v", order)
	}
	c.Advance(time.Second)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("order=%v", order)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	done := make(chan struct{})
	go func() {
		c.WaitForTimers(1)
		close(done)
	}()
	c.AfterFunc(time.Second, func() {})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitForTimers did not return")
	}
}

package sched

import "testing"

func TestNewIdleTaskIsLowestPriority(t *testing.T) {
	idle := newIdleTask(nil, 0x2000)

	if idle.Class != Idle {
		t.Fatal("expected idle task's class to be Idle")
	}
	if idle.Prio != idlePriority {
		t.Fatalf("expected idle priority %d; got %d", idlePriority, idle.Prio)
	}
	if idle.State != Ready {
		t.Fatal("expected a freshly built idle task to start Ready")
	}
	if idle.KernelStackTop != 0x2000 {
		t.Fatal("expected idle task's stack top to be recorded")
	}
}

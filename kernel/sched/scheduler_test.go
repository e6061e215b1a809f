package sched

import "testing"

// installFakeSwitch replaces switchTaskFn with one that just records the
// saved/next stack pointers, since cpu.SwitchTask has no implementation to
// execute outside real hardware.
func installFakeSwitch(t *testing.T) *[][2]uintptr {
	t.Helper()
	var calls [][2]uintptr
	orig := switchTaskFn
	switchTaskFn = func(savedSP *uintptr, nextSP uintptr) {
		calls = append(calls, [2]uintptr{*savedSP, nextSP})
	}
	t.Cleanup(func() { switchTaskFn = orig })
	return &calls
}

func newTestCPU() *CPU {
	return NewCPU(0, 0, nil, 0x1000)
}

func TestScheduleSwitchesToHigherClassCandidate(t *testing.T) {
	calls := installFakeSwitch(t)
	c := newTestCPU()

	rt := &Task{ID: 1, Class: Realtime, Prio: 10, State: Ready, TimesliceRemain: defaultTimeslice}
	c.Enqueue(rt)

	c.Schedule()

	if c.Current != rt {
		t.Fatalf("expected realtime task to become current; got %v", c.Current)
	}
	if rt.State != Running {
		t.Fatal("expected scheduled task to be Running")
	}
	if len(*calls) != 1 {
		t.Fatalf("expected exactly one switch; got %d", len(*calls))
	}
}

func TestScheduleDoesNotPreemptEqualPriorityCandidate(t *testing.T) {
	calls := installFakeSwitch(t)
	c := newTestCPU()

	running := &Task{ID: 1, Class: Normal, Prio: 5, State: Running, TimesliceRemain: 5}
	c.Current = running

	waiting := &Task{ID: 2, Class: Normal, Prio: 5, State: Ready, TimesliceRemain: defaultTimeslice}
	c.Enqueue(waiting)

	c.Schedule()

	if c.Current != running {
		t.Fatal("expected the running task to keep running against an equal-priority candidate")
	}
	if len(*calls) != 0 {
		t.Fatal("expected no switch to occur")
	}
}

func TestSchedulePreemptsHigherPriorityCandidate(t *testing.T) {
	calls := installFakeSwitch(t)
	c := newTestCPU()

	running := &Task{ID: 1, Class: Normal, Prio: 5, State: Running, TimesliceRemain: 5}
	c.Current = running

	better := &Task{ID: 2, Class: Normal, Prio: 1, State: Ready, TimesliceRemain: defaultTimeslice}
	c.Enqueue(better)

	c.Schedule()

	if c.Current != better {
		t.Fatal("expected the strictly-higher-priority candidate to preempt")
	}
	if running.State != Ready {
		t.Fatal("expected preempted task to go back to Ready")
	}
	if len(*calls) != 1 {
		t.Fatal("expected exactly one switch")
	}
}

func TestScheduleRequeuesOnTimesliceExhaustion(t *testing.T) {
	installFakeSwitch(t)
	c := newTestCPU()

	running := &Task{ID: 1, Class: Normal, Prio: 5, State: Running, TimesliceRemain: 0}
	c.Current = running

	next := &Task{ID: 2, Class: Normal, Prio: 5, State: Ready, TimesliceRemain: defaultTimeslice}
	c.Enqueue(next)

	c.Schedule()

	if c.Current != next {
		t.Fatal("expected exhausted-timeslice task to be switched out even to an equal-priority peer")
	}
	if running.State != Ready {
		t.Fatal("expected the exhausted task to be requeued, not dropped")
	}
}

func TestScheduleFallsBackToIdleWhenNoCandidates(t *testing.T) {
	calls := installFakeSwitch(t)
	c := newTestCPU()
	c.Current.State = Blocked // pretend something just blocked with nothing else runnable

	c.Schedule()

	if c.Current != c.Idle {
		t.Fatal("expected idle task to be selected when no run queue has anything")
	}
	if len(*calls) != 1 {
		t.Fatal("expected a switch onto idle")
	}
}

func TestScheduleKeepsRunningWhenNoCandidateAndAlreadyRunning(t *testing.T) {
	calls := installFakeSwitch(t)
	c := newTestCPU()

	c.Schedule() // idle is already Current and Running; nothing queued

	if len(*calls) != 0 {
		t.Fatal("expected no switch when the running task has no competition")
	}
}

func TestBlockAndUnblock(t *testing.T) {
	c := newTestCPU()
	task := &Task{ID: 1, Class: Normal, Prio: 5, State: Running}

	Block(task)
	if task.State != Blocked {
		t.Fatal("expected Block to set state to Blocked")
	}

	c.Unblock(task)
	if task.State != Ready {
		t.Fatal("expected Unblock to set state to Ready")
	}
	if c.peekCandidate() != task {
		t.Fatal("expected unblocked task to land on its class run queue")
	}
}

func TestUnblockOnLocksTargetCPU(t *testing.T) {
	target := newTestCPU()
	task := &Task{ID: 1, Class: High, Prio: 1, State: Blocked}

	UnblockOn(target, task)

	if task.State != Ready {
		t.Fatal("expected UnblockOn to ready the task")
	}
	if target.peekCandidate() != task {
		t.Fatal("expected task to be enqueued on the target CPU")
	}
}

func TestFindTargetCPURoundRobins(t *testing.T) {
	registeredCPUs, nextTargetCPU = nil, 0
	defer func() { registeredCPUs, nextTargetCPU = nil, 0 }()

	a, b := newTestCPU(), newTestCPU()
	RegisterCPU(a)
	RegisterCPU(b)

	first := FindTargetCPU()
	second := FindTargetCPU()
	third := FindTargetCPU()

	if first != a || second != b || third != a {
		t.Fatal("expected FindTargetCPU to round-robin across registered CPUs")
	}
}

func TestSleepTaskAndCheckSleepers(t *testing.T) {
	c := newTestCPU()
	task := &Task{ID: 1, Class: Normal, Prio: 5, State: Running}
	c.Upticks = 100

	c.SleepTask(task, 10)
	if task.State != Sleeping {
		t.Fatal("expected SleepTask to mark the task Sleeping")
	}

	c.Upticks = 109
	c.CheckSleepers()
	if task.State != Sleeping {
		t.Fatal("expected task to still be asleep before its wake tick")
	}

	c.Upticks = 110
	c.CheckSleepers()
	if task.State != Ready {
		t.Fatal("expected task to be Ready once its wake tick arrives")
	}
	if c.peekCandidate() != task {
		t.Fatal("expected woken task to land on its run queue")
	}
}

func TestTickDecrementsRunningTaskTimeslice(t *testing.T) {
	c := newTestCPU()
	c.Current.TimesliceRemain = 2

	c.Tick()
	if c.Current.TimesliceRemain != 1 {
		t.Fatalf("expected timeslice to decrement to 1; got %d", c.Current.TimesliceRemain)
	}

	c.Tick()
	c.Tick() // should floor at zero, not wrap
	if c.Current.TimesliceRemain != 0 {
		t.Fatalf("expected timeslice to floor at 0; got %d", c.Current.TimesliceRemain)
	}
}

package sched

import (
	"testing"
	"unsafe"
)

func testStackTop(t *testing.T) uintptr {
	t.Helper()
	buf := make([]byte, 8192)
	return uintptr(unsafe.Pointer(&buf[0])) + uintptr(len(buf))
}

func TestCreateKernelTaskAssignsIncreasingIDs(t *testing.T) {
	saved := nextTaskID
	nextTaskID = 1
	defer func() { nextTaskID = saved }()

	owner := ProcessCreate(nil)
	t1 := CreateKernelTask(owner, testStackTop(t), 0x1000, Normal, 5)
	t2 := CreateKernelTask(owner, testStackTop(t), 0x1000, Normal, 5)

	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("expected sequential task IDs; got %d, %d", t1.ID, t2.ID)
	}
}

func TestCreateKernelTaskSeedsEntryAndClass(t *testing.T) {
	owner := ProcessCreate(nil)
	stackTop := testStackTop(t)
	task := CreateKernelTask(owner, stackTop, 0x5000, High, 3)

	if task.Owner != owner {
		t.Fatal("expected owner to be recorded")
	}
	if task.Class != High || task.Prio != 3 {
		t.Fatal("expected class/priority to be recorded as given")
	}
	if task.State != Ready {
		t.Fatal("expected a freshly created task to start Ready")
	}
	if task.SavedSP == 0 || task.SavedSP >= stackTop {
		t.Fatal("expected SavedSP to point somewhere below the stack top")
	}
}

func TestCreateUserTaskUsesUserTrampoline(t *testing.T) {
	owner := ProcessCreate(nil)
	kTask := CreateKernelTask(owner, testStackTop(t), 0x1000, Normal, 5)
	uTask := CreateUserTask(owner, 0x7FFF0000, testStackTop(t), 0x2000, Normal, 5)

	kFrame := (*initialFrame)(unsafe.Pointer(kTask.SavedSP))
	uFrame := (*initialFrame)(unsafe.Pointer(uTask.SavedSP))

	if kFrame.returnAddr == uFrame.returnAddr {
		t.Fatal("expected kernel and user tasks to land on different trampolines")
	}
	if kFrame.returnAddr != kernelTrampolineAddr {
		t.Fatal("expected kernel task's seeded return address to be the kernel trampoline")
	}
	if uFrame.returnAddr != userTrampolineAddr {
		t.Fatal("expected user task's seeded return address to be the user trampoline")
	}
}

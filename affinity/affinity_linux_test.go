//go:build linux
// +build linux

// File: affinity/affinity_linux_test.go
// Author: momentics <momentics@gmail.com>

package affinity

import (
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSetAffinityPinsThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var orig unix.CPUSet
	if err := unix.SchedGetaffinity(0, &orig); err != nil {
		t.Skipf("sched_getaffinity: %v", err)
	}
	defer unix.SchedSetaffinity(0, &orig)

	cpu := -1
	for i := 0; i < 1024; i++ {
		if orig.IsSet(i) {
			cpu = i
			break
		}
	}
	if cpu < 0 {
		t.Skip("no CPU in current mask")
	}

	if err := SetAffinity(cpu); err != nil {
		t.Fatalf("SetAffinity(%d): %v", cpu, err)
	}
	var now unix.CPUSet
	if err := unix.SchedGetaffinity(0, &now); err != nil {
		t.Fatalf("sched_getaffinity: %v", err)
	}
	if now.Count() != 1 || !now.IsSet(cpu) {
		t.Errorf("mask after pin has %d cpus, want only cpu %d", now.Count(), cpu)
	}
}

func TestSetAffinityRejectsNegative(t *testing.T) {
	if err := SetAffinity(-1); err == nil {
		t.Error("SetAffinity(-1) succeeded")
	}
}

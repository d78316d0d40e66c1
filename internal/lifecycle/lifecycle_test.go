package lifecycle

import (
	"errors"
	"testing"
)

func TestRunAtExitOrderAndShortCircuit(t *testing.T) {
	atExit.fns = nil
	atExit.closed = 0

	var ran []int
	RegisterAtExit(func() error { ran = append(ran, 1); return nil })
	RegisterAtExit(func() error { ran = append(ran, 2); return errors.New("boom") })
	RegisterAtExit(func() error { ran = append(ran, 3); return nil })

	err := RunAtExit()
	if err == nil || err.Error() != "boom" {
		t.Fatalf("RunAtExit error = %v, want boom", err)
	}
	if want := []int{1, 2}; !equal(ran, want) {
		t.Fatalf("ran = %v, want %v (stop at first error)", ran, want)
	}
}

func TestRegisterAtExitPanicsAfterClose(t *testing.T) {
	atExit.fns = nil
	atExit.closed = 0
	RunAtExit()

	defer func() {
		if recover() == nil {
			t.Fatal("RegisterAtExit after RunAtExit did not panic")
		}
	}()
	RegisterAtExit(func() error { return nil })
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

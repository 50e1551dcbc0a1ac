// Package testutil provides shared test infrastructure for the simulator:
// a room fixture, a scripted ray tracer, testdata lookup and float assertions
// used across sim/ sub-package tests and cmd/ tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// TestdataPath resolves name inside the repo-root testdata/ directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Failed to find testdata %s: %v", name, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if !scalar.EqualWithinAbsOrRel(want, got, 0, relTol) {
		t.Errorf("%s: got %v, want %v (diff=%v)", name, got, want, got-want)
	}
}

// AssertColumn compares a result column against want element-wise.
func AssertColumn(t *testing.T, name string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: got %d values, want %d", name, len(got), len(want))
	}
	for i := range want {
		if !scalar.EqualWithinAbsOrRel(want[i], got[i], 1e-12, relTol) {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

//go:build linux

package cmd

import (
	"bytes"
	"testing"
)

// Regression test for a use-after-unmap: compose demo's --json output
// must report the PageAllocator's free-list state as it was just before
// the backing region was freed, not read it back out of already-unmapped
// memory.
func TestComposeDemoJSONDoesNotUseRegionAfterFree(t *testing.T) {
	dir := t.TempDir()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"compose", "demo", "--folder", dir, "--size", "4096", "--json"})

	if err := root.Execute(); err != nil {
		t.Fatalf("compose demo --json: %v", err)
	}

	if out.Len() == 0 {
		t.Fatal("compose demo --json produced no output")
	}
}

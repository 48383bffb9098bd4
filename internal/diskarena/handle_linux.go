//go:build linux

package diskarena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Pointer returns the base address of the region as an opaque integer
// key. It is null (0) for the null handle.
func (h RegionHandle) Pointer() uintptr {
	if len(h.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&h.data[0]))
}

// Flush requests the OS write dirty pages of the region back to its
// backing file. wait=true blocks until the write completes (MS_SYNC);
// wait=false only initiates it (MS_ASYNC) and returns immediately.
// There is no retry on failure.
func (h RegionHandle) Flush(wait bool) error {
	if h.IsNull() {
		return nil
	}
	flags := unix.MS_ASYNC
	if wait {
		flags = unix.MS_SYNC
	}
	if err := unix.Msync(h.data, flags); err != nil {
		return fmt.Errorf("diskarena: flush region: %w: %w", ErrIO, err)
	}
	return nil
}

//go:build !linux

package diskarena

import "fmt"

// New always fails on non-Linux platforms: the mapping machinery
// (mmap/munmap/msync/statfs via golang.org/x/sys/unix) is Linux-only,
// matching the teacher's own Linux-gated VM subsystem.
func New(folder string, cfg Config) (*DiskArena, error) {
	return nil, fmt.Errorf("diskarena: requires Linux: %w", ErrConfig)
}

func (a *DiskArena) Capacity() (uint64, error) {
	return 0, fmt.Errorf("diskarena: requires Linux: %w", ErrIO)
}

func (a *DiskArena) Allocate(size uint64) RegionHandle {
	return RegionHandle{}
}

func (a *DiskArena) AllocateZeroed(count, elemSize uint64) RegionHandle {
	return RegionHandle{}
}

func (a *DiskArena) Free(handle RegionHandle, deleteFile bool) FreeStatus {
	return Invalid
}

func (a *DiskArena) Close() error {
	return nil
}

// Package diskarena implements the DiskArena tier of the design: a
// thread-safe, coarse-grained allocator that creates a fresh
// memory-mapped file for each allocation request and returns a
// RegionHandle (pointer/length pair) to the caller. It owns file
// naming, ID recycling, live-mapping bookkeeping, and orderly teardown
// of every mapping it still holds at Close time.
//
// A PageAllocator can be layered over any RegionHandle's Bytes(), but
// DiskArena itself never imports that package — the two tiers are
// independent in contract.
//
// The mapping machinery (Mmap/Munmap/Msync/Statfs) is Linux-only; see
// arena_linux.go and handle_linux.go.
package diskarena

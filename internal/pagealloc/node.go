package pagealloc

import "unsafe"

// magic identifies a live block header. A mismatch on free means the
// caller handed back a pointer this allocator never produced, or wrote
// past the end of a payload and clobbered the header.
const magic uint32 = 0xDEADBEEF

// nilOffset marks the end of the free list. Offset 0 is a legitimate
// free-node location (the very first byte of the region), so it can't
// double as a sentinel.
const nilOffset = ^uintptr(0)

// freeNode is the header written at the start of every free span. next
// is a byte offset from the region's base, not a Go pointer: the free
// list lives inside caller-owned memory that Go's GC does not scan, so
// offsets are the only safe way to link it.
type freeNode struct {
	size uintptr
	next uintptr
}

// liveHeader is the header written at the start of every allocated
// block. The payload returned to callers begins immediately after it.
type liveHeader struct {
	size  uintptr
	magic uint32
}

var (
	nodeSize = unsafe.Sizeof(freeNode{})
	headSize = unsafe.Sizeof(liveHeader{})
)

// FreeSpan describes one node of the free list, for diagnostics.
type FreeSpan struct {
	Offset int
	Size   int
}

// Package pagealloc implements a fine-grained, first-fit, free-list
// allocator over a single contiguous byte range supplied by the caller.
// It is the PageAllocator tier described by the design: it splits and
// coalesces free blocks, stamps every live block with a header and magic
// word, and hands out sub-regions of the region to callers.
//
// A PageAllocator does not own the byte range it is constructed over —
// the caller (typically a diskarena.RegionHandle's backing mapping) must
// guarantee the range outlives the allocator and is never touched except
// through it.
package pagealloc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Config configures a new PageAllocator.
type Config struct {
	// Logger receives Debug-level traces of allocate/free/reset
	// activity. Nil uses a package default logger at Warn level.
	Logger *logrus.Logger
}

// PageAllocator is a first-fit free-list allocator over one fixed-size
// region. All public operations are safe for concurrent use.
type PageAllocator struct {
	mu       sync.Mutex
	region   []byte
	base     uintptr
	capacity uintptr
	head     uintptr // offset of the first free node, nilOffset if empty
	log      *logrus.Logger
}

var defaultLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}()

// New constructs a PageAllocator over region. region must be at least
// large enough to hold one free-list node header.
func New(region []byte, cfg Config) (*PageAllocator, error) {
	if len(region) < int(nodeSize) {
		return nil, fmt.Errorf("pagealloc.New: region is %d bytes, need at least %d: %w",
			len(region), nodeSize, ErrRegionTooSmall)
	}
	log := cfg.Logger
	if log == nil {
		log = defaultLogger
	}
	pa := &PageAllocator{
		region:   region,
		base:     uintptr(unsafe.Pointer(&region[0])),
		capacity: uintptr(len(region)),
		log:      log,
	}
	pa.reset()
	return pa, nil
}

// reset rewinds the allocator to a single free node spanning the whole
// region. Callers must hold mu, or call it only from New/Reset.
func (pa *PageAllocator) reset() {
	head := pa.nodeAt(0)
	head.size = pa.capacity - nodeSize
	head.next = nilOffset
	pa.head = 0
}

// Reset rewinds the PageAllocator to its freshly-constructed state.
// Callers are responsible for ensuring no live pointers are outstanding;
// using a pointer obtained before Reset is undefined behavior.
func (pa *PageAllocator) Reset() {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	pa.reset()
	pa.log.Debug("pagealloc: reset")
}

// nodeAt interprets the bytes at offset off as a free-list node.
func (pa *PageAllocator) nodeAt(off uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(&pa.region[off]))
}

// liveAt interprets the bytes at offset off as a live block header.
func (pa *PageAllocator) liveAt(off uintptr) *liveHeader {
	return (*liveHeader)(unsafe.Pointer(&pa.region[off]))
}

// offsetOf converts a pointer previously returned by Allocate back into
// an offset within region.
func (pa *PageAllocator) offsetOf(ptr unsafe.Pointer) uintptr {
	return uintptr(ptr) - pa.base
}

// Available returns the sum of the payload size of every free-list node.
func (pa *PageAllocator) Available() int {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	var total uintptr
	for off := pa.head; off != nilOffset; off = pa.nodeAt(off).next {
		total += pa.nodeAt(off).size
	}
	return int(total)
}

// FreeNodeCount returns the number of nodes currently on the free list.
func (pa *PageAllocator) FreeNodeCount() int {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	n := 0
	for off := pa.head; off != nilOffset; off = pa.nodeAt(off).next {
		n++
	}
	return n
}

// DumpFreeList returns a snapshot of the free list in list order, for
// diagnostics and the `diskalloc watch` dashboard.
func (pa *PageAllocator) DumpFreeList() []FreeSpan {
	pa.mu.Lock()
	defer pa.mu.Unlock()
	var spans []FreeSpan
	for off := pa.head; off != nilOffset; off = pa.nodeAt(off).next {
		spans = append(spans, FreeSpan{Offset: int(off), Size: int(pa.nodeAt(off).size)})
	}
	return spans
}

// findFree walks the free list for the first node whose usable capacity
// (payload + its own header, since that header is reclaimed on split)
// can satisfy size plus a live header. It returns the offset of the
// matching node and of its predecessor (nilOffset if the match is head).
func (pa *PageAllocator) findFree(size uintptr) (found, prev uintptr) {
	prev = nilOffset
	for off := pa.head; off != nilOffset; off = pa.nodeAt(off).next {
		if pa.nodeAt(off).size+nodeSize >= size+headSize {
			return off, prev
		}
		prev = off
	}
	return nilOffset, nilOffset
}

// split carves size bytes of payload out of the free node at nodeOff,
// either leaving a smaller free node in its place (split branch) or
// absorbing the whole node into the live block when the remainder is
// too small to host a free-node header (absorb branch; the caller's
// recorded size then reflects the larger actual payload). It returns
// the offset of the live header.
func (pa *PageAllocator) split(size uintptr, nodeOff, prevOff uintptr) uintptr {
	node := pa.nodeAt(nodeOff)
	if node.size >= size+headSize {
		oldSize, oldNext := node.size, node.next
		newFreeOff := nodeOff + headSize + size
		newFree := pa.nodeAt(newFreeOff)
		newFree.size = oldSize - headSize - size
		newFree.next = oldNext
		pa.link(prevOff, newFreeOff)

		live := pa.liveAt(nodeOff)
		live.size = size
		live.magic = magic
		return nodeOff
	}

	pa.link(prevOff, node.next)
	live := pa.liveAt(nodeOff)
	live.size = node.size + nodeSize - headSize
	live.magic = magic
	return nodeOff
}

// link points prevOff's successor (or head, if prevOff is nilOffset) at
// off.
func (pa *PageAllocator) link(prevOff, off uintptr) {
	if prevOff == nilOffset {
		pa.head = off
		return
	}
	pa.nodeAt(prevOff).next = off
}

// Allocate returns a pointer to a region of at least size writable
// bytes, or nil if no free span is large enough. The actual payload a
// caller may use can be larger than size (see the absorb branch of
// split) but is never smaller.
func (pa *PageAllocator) Allocate(size int) unsafe.Pointer {
	if size < 0 {
		return nil
	}
	pa.mu.Lock()
	defer pa.mu.Unlock()

	found, prev := pa.findFree(uintptr(size))
	if found == nilOffset {
		pa.log.WithField("size", size).Debug("pagealloc: heap exhausted")
		return nil
	}
	liveOff := pa.split(uintptr(size), found, prev)
	pa.log.WithFields(logrus.Fields{"size": size, "offset": liveOff}).Debug("pagealloc: allocate")
	return unsafe.Pointer(&pa.region[liveOff+headSize])
}

// AllocateBytes is a convenience wrapper around Allocate that returns
// the payload as a byte slice of exactly size bytes (even when the
// underlying block is larger — see Allocate).
func (pa *PageAllocator) AllocateBytes(size int) []byte {
	ptr := pa.Allocate(size)
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}

// Free returns a block previously obtained from Allocate to the free
// list and coalesces it with any run of blocks reachable forward from
// it that happen to be physically adjacent. A nil pointer is a no-op.
//
// Free panics with ErrCorruptHeader if the live header's magic word does
// not match: per the design this indicates a double free, a free of a
// pointer this allocator never returned, or a payload overrun that
// clobbered the header, and is treated as a fatal programming error
// rather than a recoverable one.
func (pa *PageAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	pa.mu.Lock()
	defer pa.mu.Unlock()

	headOff := pa.offsetOf(ptr) - headSize
	live := pa.liveAt(headOff)
	if live.magic != magic {
		panic(ErrCorruptHeader)
	}

	freed := pa.nodeAt(headOff)
	freed.size = live.size + headSize - nodeSize
	freed.next = pa.head
	pa.head = headOff

	pa.log.WithFields(logrus.Fields{"offset": headOff, "size": freed.size}).Debug("pagealloc: free")
	pa.coalesce(pa.head)
}

// coalesce walks forward from start, merging each node with its
// successor whenever the successor begins exactly where the current
// node ends. Because free() only links new nodes in at head, this only
// merges runs reachable forward from start — it is not a list-wide
// coalesce. See the design notes on the resulting fragmentation caveat.
func (pa *PageAllocator) coalesce(start uintptr) {
	for cur := start; cur != nilOffset; cur = pa.nodeAt(cur).next {
		node := pa.nodeAt(cur)
		for node.next != nilOffset && node.next == cur+nodeSize+node.size {
			next := pa.nodeAt(node.next)
			node.size += nodeSize + next.size
			node.next = next.next
		}
	}
}

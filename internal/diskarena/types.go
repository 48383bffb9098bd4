package diskarena

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// folderMode matches the original implementation's folder permission
// bits exactly (owner read/write, no execute). Directories created this
// way are listable but not traversable, and the arena opens backing
// files by path rather than through its folder handle, so a non-root
// process cannot create backing files in a folder New had to create —
// a quirk inherited from the source this design was distilled from
// rather than a deliberate choice.
const folderMode = 0o600

// fileMode is the permission bits every backing file is created with:
// owner read/write only.
const fileMode = 0o600

// Config configures a new DiskArena.
type Config struct {
	// Logger receives structured traces of allocate/free/teardown
	// activity. Nil uses a package default logger at Warn level.
	Logger *logrus.Logger
}

var defaultLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}()

// DiskArena is a per-folder allocator of file-backed memory mappings.
// It is safe for concurrent use by multiple goroutines. The mapping
// machinery is Linux-only (see arena_linux.go); on other platforms New
// always fails.
type DiskArena struct {
	dir    string
	folder *os.File
	ids    idPool
	log    *logrus.Logger

	recordsMu sync.Mutex
	records   map[uintptr]*regionRecord
}

// LiveCount returns the number of regions the arena currently tracks as
// live, for diagnostics and tests.
func (a *DiskArena) LiveCount() int {
	a.recordsMu.Lock()
	defer a.recordsMu.Unlock()
	return len(a.records)
}

// RegionHandle is the caller-facing descriptor of a memory-mapped region.
// It is an immutable value type: a zero-value RegionHandle is the null
// handle (Size() == 0, Pointer() == 0), which every failed Allocate /
// AllocateZeroed returns.
type RegionHandle struct {
	data []byte
}

// Size returns the length of the region in bytes.
func (h RegionHandle) Size() int {
	return len(h.data)
}

// Bytes exposes the region's memory directly. Writes are visible to
// Flush and, after a flush, to the backing file.
func (h RegionHandle) Bytes() []byte {
	return h.data
}

// IsNull reports whether h is the null handle.
func (h RegionHandle) IsNull() bool {
	return len(h.data) == 0
}

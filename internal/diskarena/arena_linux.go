//go:build linux

package diskarena

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// New opens (creating if necessary) folder as the arena's working
// directory. It fails with ErrConfig if the folder cannot be opened or
// created.
func New(folder string, cfg Config) (*DiskArena, error) {
	log := cfg.Logger
	if log == nil {
		log = defaultLogger
	}

	f, err := os.Open(folder)
	if err != nil {
		if mkErr := os.Mkdir(folder, folderMode); mkErr != nil && !os.IsExist(mkErr) {
			return nil, fmt.Errorf("diskarena.New: creating %s: %w: %w", folder, ErrConfig, mkErr)
		}
		f, err = os.Open(folder)
		if err != nil {
			return nil, fmt.Errorf("diskarena.New: reopening %s: %w: %w", folder, ErrConfig, err)
		}
	}

	abs, err := filepath.Abs(folder)
	if err != nil {
		abs = folder
	}

	a := &DiskArena{
		dir:     abs,
		folder:  f,
		log:     log,
		records: make(map[uintptr]*regionRecord),
	}
	a.log.WithField("dir", abs).Debug("diskarena: opened")
	return a, nil
}

// Capacity queries the filesystem for the number of bytes available to
// the arena's folder.
func (a *DiskArena) Capacity() (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(a.dir, &st); err != nil {
		return 0, fmt.Errorf("diskarena.Capacity: statfs %s: %w: %w", a.dir, ErrIO, err)
	}
	return uint64(st.Bsize) * st.Bavail, nil
}

// pathFor returns the backing file path for the given id: "<folder>/mem_<id>".
func (a *DiskArena) pathFor(id uint64) string {
	return filepath.Join(a.dir, "mem_"+strconv.FormatUint(id, 10))
}

// Allocate creates a fresh backing file of exactly size bytes, maps it,
// and returns a RegionHandle over the mapping. It returns the null
// handle if size is zero, size exceeds Capacity(), or any step of file
// creation/extension/mapping fails; the specific cause is not
// distinguished to the caller (it is logged at Warn), matching the
// design's lossy per-allocation failure model.
//
// An ID acquired for a failed allocation is not returned to the pool
// (see design notes on ID recycling); this is a small, bounded leak of
// identifiers rather than a correctness issue.
func (a *DiskArena) Allocate(size uint64) RegionHandle {
	if size == 0 {
		return RegionHandle{}
	}
	capacity, err := a.Capacity()
	if err != nil || size > capacity {
		a.log.WithFields(logrus.Fields{"size": size}).Warn("diskarena: allocate rejected, insufficient capacity")
		return RegionHandle{}
	}

	id := a.ids.acquire()
	path := a.pathFor(id)

	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: open failed")
		return RegionHandle{}
	}

	if _, err := fd.Seek(int64(size-1), io.SeekStart); err != nil {
		fd.Close()
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: seek failed")
		return RegionHandle{}
	}
	if _, err := fd.Write([]byte{0}); err != nil {
		fd.Close()
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: extend failed")
		return RegionHandle{}
	}

	data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		fd.Close()
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: mmap failed")
		return RegionHandle{}
	}

	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		unix.Munmap(data)
		fd.Close()
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: initial msync failed")
		return RegionHandle{}
	}

	// The record keeps its own descriptor: fd's finalizer would close
	// the one fd.Fd() returns once fd is garbage collected.
	rawFd, err := unix.FcntlInt(fd.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	fd.Close()
	if err != nil {
		unix.Munmap(data)
		a.log.WithError(err).WithField("path", path).Warn("diskarena: allocate: dup failed")
		return RegionHandle{}
	}

	rec := &regionRecord{id: id, fd: rawFd, size: int(size), path: path, data: data}
	base := uintptr(unsafe.Pointer(&data[0]))

	a.recordsMu.Lock()
	a.records[base] = rec
	a.recordsMu.Unlock()

	a.log.WithFields(logrus.Fields{"id": id, "path": path, "size": size}).Debug("diskarena: allocate")
	return RegionHandle{data: data}
}

// AllocateZeroed calls Allocate(count*elemSize) and, if it succeeds,
// zero-fills the mapping before returning it. Overflow of count*elemSize
// is not checked — see design notes on numeric semantics.
func (a *DiskArena) AllocateZeroed(count, elemSize uint64) RegionHandle {
	h := a.Allocate(count * elemSize)
	if !h.IsNull() {
		clear(h.data)
	}
	return h
}

// Free looks up the record for handle's base address, removes it from
// the index, flushes and unmaps the region, closes its file descriptor,
// optionally removes the backing file, and returns the ID to the pool.
//
// Its index lookup/removal and the unmap/close I/O are not atomic: the
// record is dropped from the index before the slow syscalls run, so a
// window exists where Free can return MapError after the record is
// already gone. Callers observing MapError must treat the region as
// leaked.
func (a *DiskArena) Free(handle RegionHandle, deleteFile bool) FreeStatus {
	if handle.IsNull() {
		return Invalid
	}
	base := handle.Pointer()

	a.recordsMu.Lock()
	rec, ok := a.records[base]
	if !ok {
		a.recordsMu.Unlock()
		return Invalid
	}
	delete(a.records, base)
	a.recordsMu.Unlock()

	if err := unix.Msync(rec.data, unix.MS_SYNC); err != nil {
		a.log.WithError(err).WithField("path", rec.path).Error("diskarena: free: msync failed, region leaked")
		return MapError
	}
	if err := unix.Munmap(rec.data); err != nil {
		a.log.WithError(err).WithField("path", rec.path).Error("diskarena: free: munmap failed, region leaked")
		return MapError
	}

	unix.Close(rec.fd)
	if deleteFile {
		os.Remove(rec.path)
	}
	a.ids.release(rec.id)

	a.log.WithFields(logrus.Fields{"id": rec.id, "path": rec.path, "deleted": deleteFile}).Debug("diskarena: free")
	return Ok
}

// Close tears down every region still tracked by the arena — flush,
// unmap, close, and remove its backing file — then closes the folder
// handle. This matches every surviving record's full teardown sequence,
// not just the in-process mapping; only a region already removed via an
// explicit Free(handle, delete_file=false) leaves a file behind. Per-record
// teardown runs concurrently since the steps are independent across
// records; Close waits for all of them before returning.
func (a *DiskArena) Close() error {
	a.recordsMu.Lock()
	records := make([]*regionRecord, 0, len(a.records))
	for _, rec := range a.records {
		records = append(records, rec)
	}
	a.records = make(map[uintptr]*regionRecord)
	a.recordsMu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(records))
	for _, rec := range records {
		rec := rec
		go func() {
			defer wg.Done()
			unix.Msync(rec.data, unix.MS_SYNC)
			unix.Munmap(rec.data)
			unix.Close(rec.fd)
			unix.Unlink(rec.path)
		}()
	}
	wg.Wait()

	a.log.WithField("dir", a.dir).WithField("torn_down", len(records)).Debug("diskarena: closed")
	return a.folder.Close()
}

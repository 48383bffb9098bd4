package diskarena

import "errors"

// Sentinel errors matching the design's error taxonomy (§7). Allocate and
// Free do not return these directly — per the design their failures
// collapse into a null RegionHandle or a FreeStatus code — but
// construction, Capacity and Flush report them via errors.Is-compatible
// wrapping.
var (
	// ErrConfig is returned by New when the folder cannot be opened or
	// created.
	ErrConfig = errors.New("diskarena: cannot open or create folder")

	// ErrIO is returned by Capacity when statfs fails and by
	// RegionHandle.Flush when msync fails.
	ErrIO = errors.New("diskarena: io operation failed")
)

// FreeStatus is the three-valued outcome of DiskArena.Free, matching the
// design's free(handle, delete_file) -> {Invalid, Ok, MapError} contract.
type FreeStatus int

const (
	// Invalid means the handle's base address was not tracked by this
	// arena. No state was modified.
	Invalid FreeStatus = iota
	// Ok means the region was flushed, unmapped, closed, and (if
	// requested) its backing file removed, and the ID was returned to
	// the pool.
	Ok
	// MapError means the record was already removed from the index
	// before flush or unmap failed. The caller must treat the region as
	// leaked: the backing file descriptor and/or mapping may still be
	// held by the OS.
	MapError
)

func (s FreeStatus) String() string {
	switch s {
	case Invalid:
		return "Invalid"
	case Ok:
		return "Ok"
	case MapError:
		return "MapError"
	default:
		return "Unknown"
	}
}

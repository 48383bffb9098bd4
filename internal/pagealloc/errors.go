package pagealloc

import "errors"

// ErrRegionTooSmall is returned by New when the supplied region cannot
// even hold a single free-list node header.
var ErrRegionTooSmall = errors.New("pagealloc: region too small for a single free node")

// ErrCorruptHeader is the panic value raised by Free when the magic word
// preceding a pointer does not match. Per the design this is a fatal
// programming error (a double free, a free of a foreign pointer, or a
// payload overrun) rather than a recoverable condition.
var ErrCorruptHeader = errors.New("pagealloc: live header magic mismatch, corrupt or foreign pointer")

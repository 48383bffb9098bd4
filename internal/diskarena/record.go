package diskarena

// regionRecord is the DiskArena's internal bookkeeping for one live
// mapping. It is looked up by the mapping's base address, since that is
// the only thing the caller presents back on Free via a RegionHandle.
//
// A regionRecord models exclusive ownership of the open file descriptor,
// the backing path string, and the mapping: all three are released
// together, either by Free or at arena teardown.
type regionRecord struct {
	id   uint64
	fd   int
	size int
	path string
	data []byte
}

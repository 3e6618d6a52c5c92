package preprocess

import (
	"fmt"
	"sync"
)

// bufferPool holds a set of named byte buffer pools so full resolution
// scratch images are reused across plants instead of reallocated
type bufferPool struct {
	mu    sync.Mutex
	pools map[string]*bufferEntry
}

// bufferEntry defines a single named pool
type bufferEntry struct {
	pool    sync.Pool
	maxSize int
}

// newBufferPool returns an empty bufferPool
func newBufferPool() *bufferPool {
	return &bufferPool{
		pools: make(map[string]*bufferEntry),
	}
}

// Ensure registers a pool under name producing buffers of at least size
// bytes.  If the pool exists with a smaller size it is replaced so future
// buffers fit the larger image
func (b *bufferPool) Ensure(name string, size int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, ok := b.pools[name]; ok && entry.maxSize >= size {
		return
	}

	entry := &bufferEntry{maxSize: size}

	entry.pool.New = func() any {
		return make([]uint8, size)
	}

	b.pools[name] = entry
}

// Get returns a zeroed []uint8 of length size from the named pool.  Panics if
// the pool name is unknown
func (b *bufferPool) Get(name string, size int) []uint8 {
	entry := b.entry(name)

	buf := entry.pool.Get().([]uint8)

	if cap(buf) < size {
		return make([]uint8, size)
	}

	buf = buf[:size]
	clear(buf)

	return buf
}

// Put returns a buffer to the named pool.  Buffers smaller than the pool size
// are dropped
func (b *bufferPool) Put(name string, buf []uint8) {
	entry := b.entry(name)

	if cap(buf) < entry.maxSize {
		return
	}

	entry.pool.Put(buf[:entry.maxSize])
}

func (b *bufferPool) entry(name string) *bufferEntry {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	return entry
}

package result

import "sync"

// IDGenerator hands out incremental detection IDs.  A segmentation response
// decoder uses one generator so every detection in the response can be
// referenced in logs and skip reports
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator returns a generator whose first ID is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next ID
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last++
	return g.last
}

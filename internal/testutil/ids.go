package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out archive ids from a fixed prefix and a counter.
//
// This enables deterministic store tests and golden snapshot comparison:
// the same sequence of saves produces the same ids.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix defaults to "test-summary".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-summary"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns "<prefix>-0001", "<prefix>-0002", ...
//
// Implements store.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

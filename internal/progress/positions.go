package progress

import (
	"fmt"
	"sync"
)

// Position identifies a chapter within the catalog.
type Position struct {
	Book    int
	Chapter int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Book, p.Chapter)
}

// PositionMap holds the last scroll offset seen per chapter in this session.
// It is never persisted as a whole.
type PositionMap struct {
	mu      sync.RWMutex
	offsets map[Position]float64
}

// NewPositionMap creates an empty map.
func NewPositionMap() *PositionMap {
	return &PositionMap{offsets: make(map[Position]float64)}
}

// Get returns the offset for pos, or 0 when none was recorded.
func (m *PositionMap) Get(pos Position) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offsets[pos]
}

func (m *PositionMap) Set(pos Position, offset float64) {
	m.mu.Lock()
	m.offsets[pos] = offset
	m.mu.Unlock()
}

func (m *PositionMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.offsets)
}

// Reset forgets every recorded offset.
func (m *PositionMap) Reset() {
	m.mu.Lock()
	m.offsets = make(map[Position]float64)
	m.mu.Unlock()
}

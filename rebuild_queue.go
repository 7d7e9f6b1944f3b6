package lumen

import (
	"sync"

	"github.com/gekko3d/lumen/dynlight"
)

// RegionRebuilder performs the actual rebuild of one render region.
type RegionRebuilder func(dynlight.RegionPos)

// RegionRebuildQueue coalesces rebuild requests from the lighting engine
// and hands them to the renderer a bounded batch per frame.
type RegionRebuildQueue struct {
	mu       sync.Mutex
	pending  map[dynlight.RegionPos]struct{}
	order    []dynlight.RegionPos
	perFrame int

	requested uint64
	coalesced uint64
}

// NewRegionRebuildQueue drains at most perFrame regions per Drain call;
// zero or less drains everything.
func NewRegionRebuildQueue(perFrame int) *RegionRebuildQueue {
	return &RegionRebuildQueue{
		pending:  make(map[dynlight.RegionPos]struct{}),
		perFrame: perFrame,
	}
}

// InvalidateRegion queues r unless it is already waiting.
func (q *RegionRebuildQueue) InvalidateRegion(r dynlight.RegionPos) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.requested++
	if _, ok := q.pending[r]; ok {
		q.coalesced++
		return
	}
	q.pending[r] = struct{}{}
	q.order = append(q.order, r)
}

// Drain removes and returns the oldest queued regions, up to the per-frame limit.
func (q *RegionRebuildQueue) Drain() []dynlight.RegionPos {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.order)
	if q.perFrame > 0 && n > q.perFrame {
		n = q.perFrame
	}
	if n == 0 {
		return nil
	}

	batch := make([]dynlight.RegionPos, n)
	copy(batch, q.order[:n])
	q.order = append(q.order[:0], q.order[n:]...)
	for _, r := range batch {
		delete(q.pending, r)
	}
	return batch
}

func (q *RegionRebuildQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Stats returns how many requests arrived and how many were merged into an
// already queued region.
func (q *RegionRebuildQueue) Stats() (requested, coalesced uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.requested, q.coalesced
}

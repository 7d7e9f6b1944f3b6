package dynlight

import (
	"sync"

	"github.com/google/uuid"
)

// Invalidator receives region rebuild requests. Calls happen while the
// registry write lock is held, so implementations must not call back into
// the registry.
type Invalidator interface {
	InvalidateRegion(RegionPos)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(RegionPos)

func (f InvalidatorFunc) InvalidateRegion(r RegionPos) { f(r) }

type discardInvalidator struct{}

func (discardInvalidator) InvalidateRegion(RegionPos) {}

// Registry is the set of sources currently lighting the active world.
// Samplers take the read lock; membership changes take the write lock.
type Registry struct {
	mu          sync.RWMutex
	world       uuid.UUID
	enabled     bool
	index       map[*Source]int
	members     []*Source
	invalidator Invalidator
}

func NewRegistry(inv Invalidator) *Registry {
	if inv == nil {
		inv = discardInvalidator{}
	}
	return &Registry{
		enabled:     true,
		index:       make(map[*Source]int),
		invalidator: inv,
	}
}

// Add registers src. It is a no-op when the registry is disabled, when src
// belongs to another world, or when src is already a member.
func (r *Registry) Add(src *Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || src.world != r.world {
		return false
	}
	if _, ok := r.index[src]; ok {
		return false
	}
	r.index[src] = len(r.members)
	r.members = append(r.members, src)
	return true
}

// Remove unregisters src and rebuilds every region it was lighting.
func (r *Registry) Remove(src *Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(src) {
		return false
	}
	r.flushLocked(src.reset())
	return true
}

func (r *Registry) Contains(src *Source) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[src]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Clear drops every member, darkening lit ones.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearLocked()
}

// ResetWorld clears the registry and scopes it to a new world in one step,
// so nothing from the previous world survives into the next.
func (r *Registry) ResetWorld(world uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.clearLocked()
	r.world = world
	return n
}

// RemoveWhere removes every member matching pred and returns how many
// were removed.
func (r *Registry) RemoveWhere(pred func(*Source) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Source
	for _, src := range r.members {
		if pred(src) {
			matched = append(matched, src)
		}
	}
	for _, src := range matched {
		r.removeLocked(src)
		r.flushLocked(src.reset())
	}
	return len(matched)
}

// Snapshot copies the member list for iteration outside the lock.
func (r *Registry) Snapshot() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Source, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Registry) World() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.world
}

func (r *Registry) setEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
}

func (r *Registry) removeLocked(src *Source) bool {
	i, ok := r.index[src]
	if !ok {
		return false
	}
	last := len(r.members) - 1
	if i != last {
		moved := r.members[last]
		r.members[i] = moved
		r.index[moved] = i
	}
	r.members[last] = nil
	r.members = r.members[:last]
	delete(r.index, src)
	return true
}

func (r *Registry) clearLocked() int {
	n := len(r.members)
	for _, src := range r.members {
		r.flushLocked(src.reset())
	}
	clear(r.index)
	clear(r.members)
	r.members = r.members[:0]
	return n
}

func (r *Registry) flushLocked(regions []RegionPos) {
	for _, region := range regions {
		r.invalidator.InvalidateRegion(region)
	}
}

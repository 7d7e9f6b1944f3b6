package dynlight

import (
	"fmt"
	"sync"
)

// Handle identifies a Source without keeping its owner alive.
// The zero Handle is never issued.
type Handle struct {
	index uint32
	gen   uint32
}

func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("light#%d.%d", h.index, h.gen)
}

type arenaSlot struct {
	gen uint32
	src *Source
}

// arena hands out generation-checked slots; a released slot bumps its
// generation so outstanding handles to it go stale.
type arena struct {
	mu    sync.Mutex
	slots []arenaSlot
	free  []uint32
}

func (a *arena) insert(src *Source) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{})
	}

	slot := &a.slots[idx]
	slot.gen++
	if slot.gen == 0 {
		slot.gen = 1
	}
	slot.src = src

	h := Handle{index: idx, gen: slot.gen}
	src.handle = h
	return h
}

func (a *arena) get(h Handle) *Source {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	slot := a.slots[h.index]
	if slot.gen != h.gen {
		return nil
	}
	return slot.src
}

func (a *arena) release(h Handle) *Source {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	slot := &a.slots[h.index]
	if slot.gen != h.gen || slot.src == nil {
		return nil
	}
	src := slot.src
	slot.src = nil
	slot.gen++
	if slot.gen == 0 {
		slot.gen = 1
	}
	a.free = append(a.free, h.index)
	return src
}

func (a *arena) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots) - len(a.free)
}

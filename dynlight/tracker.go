package dynlight

// regionTracker remembers which regions a source last lit.
// Only the mutating goroutine touches it.
type regionTracker struct {
	regions []RegionPos
}

// replace installs next as the tracked set and returns every region that
// has to be rebuilt: the previous set and the new one, each listed once.
func (t *regionTracker) replace(next []RegionPos) []RegionPos {
	dirty := make([]RegionPos, 0, len(t.regions)+len(next))
	seen := make(map[RegionPos]struct{}, cap(dirty))
	for _, list := range [2][]RegionPos{t.regions, next} {
		for _, r := range list {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			dirty = append(dirty, r)
		}
	}

	t.regions = append(t.regions[:0], next...)
	return dirty
}

// flush empties the tracker and returns what it held.
func (t *regionTracker) flush() []RegionPos {
	if len(t.regions) == 0 {
		return nil
	}
	old := t.regions
	t.regions = nil
	return old
}

func (t *regionTracker) snapshot() []RegionPos {
	out := make([]RegionPos, len(t.regions))
	copy(out, t.regions)
	return out
}

func (t *regionTracker) len() int {
	return len(t.regions)
}

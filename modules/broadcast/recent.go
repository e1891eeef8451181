package broadcast

import "sync"

const recentSize = 256

// recentIDs remembers the last recentSize message ids that were delivered.
type recentIDs struct {
	mu   sync.Mutex
	seen map[int64]struct{}
	ring [recentSize]int64
	next int
	full bool
}

func newRecentIDs() *recentIDs {
	return &recentIDs{seen: make(map[int64]struct{}, recentSize)}
}

// add records id and reports whether it was new.
func (r *recentIDs) add(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[id]; ok {
		return false
	}
	if r.full {
		delete(r.seen, r.ring[r.next])
	}
	r.ring[r.next] = id
	r.seen[id] = struct{}{}
	r.next = (r.next + 1) % recentSize
	if r.next == 0 {
		r.full = true
	}
	return true
}

package filter

import "sync"

// Versions hands out monotonically increasing request stamps per widget so
// that only the most recent asynchronous result is kept. The zero value is
// ready to use.
type Versions struct {
	mu      sync.Mutex
	next    uint64
	current map[string]uint64
}

// Begin starts a new request for id and returns its stamp.
func (v *Versions) Begin(id string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		v.current = make(map[string]uint64)
	}
	v.next++
	v.current[id] = v.next
	return v.next
}

// IsCurrent reports whether stamp is the latest request begun for id.
func (v *Versions) IsCurrent(id string, stamp uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return stamp != 0 && v.current[id] == stamp
}

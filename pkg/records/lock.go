package records

import "sync"

// categoryLocks hands out one mutex per category. The zero value is ready
// to use.
type categoryLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// lock acquires the mutex of th and returns its release function.
func (c *categoryLocks) lock(th int) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[int]*sync.Mutex)
	}
	l, ok := c.locks[th]
	if !ok {
		l = &sync.Mutex{}
		c.locks[th] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

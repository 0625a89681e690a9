package relation

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// userLocks serializes mutations per user id. Entries are dropped once nobody
// holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*lockEntry)}
}

func (l *userLocks) acquire(id uint) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *userLocks) release(id uint) {
	l.mu.Lock()
	e := l.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

// lockPair locks both users in ascending id order and returns the unlock func.
func (l *userLocks) lockPair(a, b uint) func() {
	if a > b {
		a, b = b, a
	}
	l.acquire(a)
	if a == b {
		return func() { l.release(a) }
	}
	l.acquire(b)
	return func() {
		l.release(b)
		l.release(a)
	}
}

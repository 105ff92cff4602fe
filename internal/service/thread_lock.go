package service

import "sync"

// threadLocks serializes intake processing per thread id so two concurrent
// messages on one conversation cannot both observe "no ticket yet".
// Unrelated threads proceed fully in parallel; entries are dropped once
// the last holder releases, so the table stays bounded by live threads.
type threadLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the thread's lock is held and returns the release
// function.
func (l *threadLocks) acquire(threadID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[threadID]
	if !ok {
		entry = &lockEntry{}
		l.entries[threadID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, threadID)
		}
		l.mu.Unlock()
	}
}

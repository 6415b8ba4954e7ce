// Package conversation serializes work on a single conversation while letting
// different conversations proceed in parallel.
package conversation

import (
	"ai-nexus/internal/logger"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// LockManager hands out one mutex per conversation id. Entries are
// reference counted and dropped once no caller holds or waits on them.
type LockManager struct {
	entries map[string]*entry
	mu      sync.Mutex
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{
		entries: make(map[string]*entry),
	}
}

// Lock blocks until the caller owns the conversation and returns the
// function that releases it.
func (lm *LockManager) Lock(conversationID string) (unlock func()) {
	lm.mu.Lock()
	e, exists := lm.entries[conversationID]
	if !exists {
		e = &entry{}
		lm.entries[conversationID] = e
	}
	e.refs++
	lm.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			lm.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(lm.entries, conversationID)
				logger.Log.WithField("conversation_id", conversationID).Debug("Released conversation lock entry")
			}
			lm.mu.Unlock()
		})
	}
}

// Active returns the number of conversations currently locked or awaited
func (lm *LockManager) Active() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.entries)
}

// Package sched manages timed message deletions. Each (chat, message) key
// holds at most one pending timer; scheduling over an existing key cancels
// the old timer first, and a concurrent cancel/fire on the same key resolves
// to at most one deletion attempt.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Key identifies one message in one chat.
type Key struct {
	ChatID    int64
	MessageID int
}

// Deleter invokes the platform deletion for a message. Implemented by the
// platform-integration layer.
type Deleter interface {
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type entry struct {
	cancel chan struct{}
}

// Scheduler owns the pending-deletion timers.
type Scheduler struct {
	mu      sync.Mutex
	pending map[Key]*entry
	deleter Deleter
	timeout time.Duration
	log     *log.Helper
	wg      sync.WaitGroup
}

// New creates a Scheduler that fires deletions through deleter. Each fired
// deletion gets callTimeout for its platform call.
func New(deleter Deleter, callTimeout time.Duration, logger log.Logger) *Scheduler {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Scheduler{
		pending: make(map[Key]*entry),
		deleter: deleter,
		timeout: callTimeout,
		log:     log.NewHelper(logger),
	}
}

// Schedule arms a deletion for key after delay, cancelling any pending timer
// for the same key first.
func (s *Scheduler) Schedule(key Key, delay time.Duration) {
	e := &entry{cancel: make(chan struct{})}

	s.mu.Lock()
	if old, ok := s.pending[key]; ok {
		close(old.cancel)
	}
	s.pending[key] = e
	s.mu.Unlock()

	s.wg.Add(1)
	go s.wait(key, e, delay)
}

func (s *Scheduler) wait(key Key, e *entry, delay time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-e.cancel:
		return
	case <-timer.C:
	}

	// Claim the key before touching the platform: whoever removes the entry
	// owns the single allowed deletion attempt.
	s.mu.Lock()
	if s.pending[key] != e {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.deleter.Delete(ctx, key.ChatID, key.MessageID); err != nil {
		// Key stays cleared; a retry after further edits could delete
		// unrelated content.
		s.log.Errorf("scheduled delete failed chat=%d message=%d: %v", key.ChatID, key.MessageID, err)
	}
}

// Cancel removes a pending timer for key if one exists. No-op otherwise.
func (s *Scheduler) Cancel(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[key]; ok {
		close(e.cancel)
		delete(s.pending, key)
	}
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending timer and waits for the timer goroutines to
// drain. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, e := range s.pending {
		close(e.cancel)
		delete(s.pending, key)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

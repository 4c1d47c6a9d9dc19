// Package store holds the per-user in-memory collections and the
// mutation operations over them. Mutations update local state first,
// then persist; a failed persistence call triggers a full reload from
// the repositories instead of reversing the specific edit. Best-effort
// side effects (activity logging, completion notification, change
// publishing) never fail the primary operation.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// asyncTimeout bounds detached persistence and reload calls
const asyncTimeout = 15 * time.Second

// ChangePublisher publishes a change notice after a successful mutation
// so other instances (and this one's bridge) reload. Implemented by
// realtime.Publisher.
type ChangePublisher interface {
	Publish(ctx context.Context, table string, userID uuid.UUID, op string) error
}

// CompletionNotifier delivers the task-completed notification. Failures
// are logged, never surfaced. Implemented by the queue-backed notifier.
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, to, taskTitle string) error
}

// listeners implements observer subscribe/notify shared by the stores
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (l *listeners) subscribe(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// detach runs fn with its own bounded context, for fire-and-forget
// persistence and corrective reloads that outlive the caller's request.
func detach(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		fn(ctx)
	}()
}

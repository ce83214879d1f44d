// Package task implements the Task Manager: it wraps a
// generation request as a background task, owns the task's lifecycle
// against the Progress Store, and supports cooperative cancellation.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/progress"
)

// cleanupDelay is how long a terminal task's state lingers in the
// Progress Store before Cleanup, so a subscriber racing the terminal
// event still has a window to observe it.
const cleanupDelay = 5 * time.Second

// Work is the body of a background task. It must observe ctx.Done()
// at its suspension points and return promptly on cancellation.
type Work func(ctx context.Context, taskID string) error

type handle struct {
	cancel context.CancelFunc
}

// Manager owns the active task table and the Progress Store entries
// for every task it spawns. It never stores task results itself: the
// Progress Store's terminal payload and whatever repository writes Work
// performs are the sources of truth.
type Manager struct {
	store *progress.Store

	mu    sync.Mutex
	tasks map[string]*handle

	cleanupDelay time.Duration
}

// New builds a Manager backed by store.
func New(store *progress.Store) *Manager {
	return &Manager{
		store:        store,
		tasks:        make(map[string]*handle),
		cleanupDelay: cleanupDelay,
	}
}

// Spawn generates a fresh task-id, marks it queued in the Progress
// Store, and runs work in a background goroutine with a cancellable
// context independent of the caller's request context (the task must
// outlive the HTTP request that started it).
func (m *Manager) Spawn(work Work) string {
	taskID := uuid.NewString()

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.tasks[taskID] = &handle{cancel: cancel}
	m.mu.Unlock()

	m.store.Set(taskID, progress.StageQueued, 0, "queued", nil)

	go m.run(ctx, taskID, work)

	return taskID
}

func (m *Manager) run(ctx context.Context, taskID string, work Work) {
	defer m.finish(taskID)

	err := work(ctx, taskID)

	if latest, ok := m.store.Get(taskID); ok && progress.IsTerminal(latest.Stage) {
		// work already published its own terminal state (complete or a
		// specific error kind) — nothing left to reconcile.
		return
	}

	switch {
	case ctx.Err() == context.Canceled:
		m.store.Set(taskID, progress.StageCancelled, 100, "cancelled", nil)
	case ctx.Err() == context.DeadlineExceeded:
		m.store.SetError(taskID, string(apperr.KindTaskTimeout), "task exceeded its time ceiling")
	case err != nil:
		m.store.SetError(taskID, string(apperr.KindOf(err)), err.Error())
	default:
		m.store.Set(taskID, progress.StageComplete, 100, "done", nil)
	}
}

// finish removes taskID from the active table once work returns, then
// waits cleanupDelay before dropping its Progress Store state so a
// subscriber that raced the terminal event still sees it.
func (m *Manager) finish(taskID string) {
	m.mu.Lock()
	delete(m.tasks, taskID)
	m.mu.Unlock()

	time.AfterFunc(m.cleanupDelay, func() {
		m.store.Cleanup(taskID)
	})
}

// Cancel cooperatively aborts taskID's worker at its next suspension
// point. It is a no-op if the task is unknown or already finished —
// mirroring a CancelTask shape, simplified to this system's
// single-owner-per-task model (no distributed task table, no
// protocol-level status object to return).
func (m *Manager) Cancel(taskID string) error {
	m.mu.Lock()
	h, ok := m.tasks[taskID]
	m.mu.Unlock()

	if !ok {
		if latest, exists := m.store.Get(taskID); exists && progress.IsTerminal(latest.Stage) {
			return nil
		}
		return apperr.New(apperr.KindTaskNotFound, "task not found: "+taskID)
	}

	h.cancel()
	return nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/backend"
	"task-calendar/internal/task-calendar/events"
)

var (
	// ErrActionPending rejects a second action on an item whose first action has not finished.
	ErrActionPending = errors.New("an action for this item is already in progress")
	ErrNotFound      = errors.New("not found")
)

// Backend is the collaborator API used by the services. *backend.Client implements it.
type Backend interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListSchedulesInRange(ctx context.Context, r backend.Range) ([]models.Schedule, error)
	ListLogsInRange(ctx context.Context, r backend.Range) ([]models.Log, error)
	ListEventsInRange(ctx context.Context, r backend.Range) ([]models.Event, error)

	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, id models.ID, patch models.TaskPatch) (models.Task, error)
	CreateSchedule(ctx context.Context, in models.NewSchedule) (models.Schedule, error)
	CreateLog(ctx context.Context, in models.NewLog) (models.Log, error)
	UpdateLog(ctx context.Context, id models.ID, patch models.LogPatch) (models.Log, error)
	CreateEvent(ctx context.Context, in models.NewEvent) (models.Event, error)
	UpdateEvent(ctx context.Context, id models.ID, patch models.EventPatch) (models.Event, error)
}

// ChangePublisher announces log changes to other clients.
type ChangePublisher interface {
	PublishLogChange(ctx context.Context, payload events.LogChangePayload) error
}

// SnapshotSaver persists the store after a refresh.
type SnapshotSaver interface {
	Save(ctx context.Context, snap store.Snapshot) error
}

// AnalyticsRecorder keeps ended logs with their real duration.
type AnalyticsRecorder interface {
	Record(ctx context.Context, l models.Log, category string) error
}

// ActionGuard admits one action per key at a time.
type ActionGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewActionGuard() *ActionGuard {
	return &ActionGuard{inflight: map[string]struct{}{}}
}

// Acquire reserves key. The returned release func is nil when key is already taken.
func (g *ActionGuard) Acquire(key string) (release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil
	}
	g.inflight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}
}

func taskKey(id models.ID) string  { return "task:" + id.String() }
func eventKey(id models.ID) string { return "event:" + id.String() }

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

package services

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/backend"
	"task-calendar/internal/task-calendar/events"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListTasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func (m *mockBackend) ListSchedulesInRange(ctx context.Context, r backend.Range) ([]models.Schedule, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).([]models.Schedule)
	return out, args.Error(1)
}

func (m *mockBackend) ListLogsInRange(ctx context.Context, r backend.Range) ([]models.Log, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).([]models.Log)
	return out, args.Error(1)
}

func (m *mockBackend) ListEventsInRange(ctx context.Context, r backend.Range) ([]models.Event, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).([]models.Event)
	return out, args.Error(1)
}

func (m *mockBackend) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *mockBackend) UpdateTask(ctx context.Context, id models.ID, patch models.TaskPatch) (models.Task, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *mockBackend) CreateSchedule(ctx context.Context, in models.NewSchedule) (models.Schedule, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Schedule), args.Error(1)
}

func (m *mockBackend) CreateLog(ctx context.Context, in models.NewLog) (models.Log, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Log), args.Error(1)
}

func (m *mockBackend) UpdateLog(ctx context.Context, id models.ID, patch models.LogPatch) (models.Log, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Log), args.Error(1)
}

func (m *mockBackend) CreateEvent(ctx context.Context, in models.NewEvent) (models.Event, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *mockBackend) UpdateEvent(ctx context.Context, id models.ID, patch models.EventPatch) (models.Event, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Event), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishLogChange(ctx context.Context, payload events.LogChangePayload) error {
	return m.Called(ctx, payload).Error(0)
}

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) Record(ctx context.Context, l models.Log, category string) error {
	return m.Called(ctx, l, category).Error(0)
}

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Save(ctx context.Context, snap store.Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *mockReader) Close() error {
	return m.Called().Error(0)
}

// fixture: now is 10:30Z, task T1 is in progress with S0 (yesterday) and S1 (10:00-11:00 today).
var fixedNow = time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func ts(h, m int) models.Timestamp {
	return models.At(time.Date(2024, 1, 10, h, m, 0, 0, time.UTC))
}

func seededStore(logs ...models.Log) *store.Store {
	st := store.New()
	st.Load(store.Snapshot{
		Tasks: []models.Task{{
			ID: "T1", Title: "Deep work", Category: "Work", Status: models.StatusInProgress,
			Schedules: []models.Schedule{
				{ID: "S0", TaskID: "T1", StartTime: models.At(time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)), EndTime: models.At(time.Date(2024, 1, 9, 11, 0, 0, 0, time.UTC))},
				{ID: "S1", TaskID: "T1", StartTime: ts(10, 0), EndTime: ts(11, 0), Logs: logs},
			},
		}},
		Schedules: []models.Schedule{{ID: "S1", TaskID: "T1", StartTime: ts(10, 0), EndTime: ts(11, 0), Logs: logs}},
		Logs:      logs,
		Events: []models.Event{
			{ID: "E1", Title: "Standup", Status: models.StatusPending, StartTime: ts(9, 0)},
			{ID: "E2", Title: "Done", Status: models.StatusCompleted, StartTime: ts(8, 0), EndTime: ts(8, 30)},
		},
	})
	return st
}

package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"task-calendar/internal/models"
	"task-calendar/internal/task-calendar/backend"
	taskDB "task-calendar/internal/task-calendar/db"
	"task-calendar/internal/task-calendar/services"
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
	s, _ := args.Get(0).([]models.Schedule)
	return s, args.Error(1)
}

func (m *mockBackend) ListLogsInRange(ctx context.Context, r backend.Range) ([]models.Log, error) {
	args := m.Called(ctx, r)
	l, _ := args.Get(0).([]models.Log)
	return l, args.Error(1)
}

func (m *mockBackend) ListEventsInRange(ctx context.Context, r backend.Range) ([]models.Event, error) {
	args := m.Called(ctx, r)
	e, _ := args.Get(0).([]models.Event)
	return e, args.Error(1)
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

type fakeTotals []taskDB.DailyTotal

func (f fakeTotals) DailyTotals(ctx context.Context, day time.Time) ([]taskDB.DailyTotal, error) {
	return f, nil
}

type fakeRefresher struct {
	result services.RefreshResult
	err    error
}

func (f fakeRefresher) RefreshAll(ctx context.Context) (services.RefreshResult, error) {
	return f.result, f.err
}

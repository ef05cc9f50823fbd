package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"task-calendar/internal/models"
	"task-calendar/internal/resolver"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/events"
)

// LogService starts and ends logs. Every accepted write is fanned out to all store
// views through ApplyLogChange, then announced on the change feed.
type LogService struct {
	Backend   Backend
	Store     *store.Store
	Guard     *ActionGuard
	Publisher ChangePublisher
	Analytics AnalyticsRecorder
	Now       func() time.Time
}

func NewLogService(b Backend, st *store.Store, guard *ActionGuard) *LogService {
	return &LogService{Backend: b, Store: st, Guard: guard}
}

// StartLog opens a log on scheduleID, or on the task's current schedule when
// scheduleID is empty.
func (s *LogService) StartLog(ctx context.Context, taskID, scheduleID models.ID, remarks string) (models.Log, error) {
	release := s.Guard.Acquire(taskKey(taskID))
	if release == nil {
		return models.Log{}, ErrActionPending
	}
	defer release()

	task, ok := s.Store.Task(taskID)
	if !ok {
		return models.Log{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	req, err := resolver.PrepareStart(task, scheduleID, clock(s.Now).now(), remarks)
	if err != nil {
		return models.Log{}, err
	}

	done := s.Store.BeginMutation()
	defer done()

	created, err := s.Backend.CreateLog(ctx, req)
	if err != nil {
		return models.Log{}, err
	}
	if created.ScheduleID.IsZero() {
		created.ScheduleID = req.ScheduleID
	}
	if created.TaskID.IsZero() {
		created.TaskID = req.TaskID
	}
	if !created.StartTime.Valid {
		created.StartTime = req.StartTime
	}
	if err := s.Store.ApplyLogChange(store.LogChange{Kind: store.Created, Log: created}); err != nil {
		return models.Log{}, fmt.Errorf("failed to apply started log: %w", err)
	}
	hlog.CtxInfof(ctx, "Started log %s on schedule %s for task %s", created.ID, created.ScheduleID, taskID)

	s.publish(ctx, store.Created, created, task.Category)
	return created, nil
}

// EndLog closes a running log at endAt, or now when endAt is zero.
func (s *LogService) EndLog(ctx context.Context, logID models.ID, remarks string, endAt time.Time) (models.Log, error) {
	current, ok := s.Store.Log(logID)
	if !ok {
		return models.Log{}, fmt.Errorf("log %s: %w", logID, ErrNotFound)
	}
	release := s.Guard.Acquire(taskKey(current.TaskID))
	if release == nil {
		return models.Log{}, ErrActionPending
	}
	defer release()

	// another call may have ended the log while this one waited on the guard
	current, ok = s.Store.Log(logID)
	if !ok {
		return models.Log{}, fmt.Errorf("log %s: %w", logID, ErrNotFound)
	}

	patch, err := resolver.PrepareEnd(current, clock(s.Now).now(), endAt, remarks)
	if err != nil {
		return models.Log{}, err
	}

	done := s.Store.BeginMutation()
	defer done()

	updated, err := s.Backend.UpdateLog(ctx, logID, patch)
	if err != nil {
		return models.Log{}, err
	}
	if updated.ID.IsZero() {
		updated.ID = current.ID
	}
	if updated.ScheduleID.IsZero() {
		updated.ScheduleID = current.ScheduleID
	}
	if updated.TaskID.IsZero() {
		updated.TaskID = current.TaskID
	}
	if !updated.StartTime.Valid {
		updated.StartTime = current.StartTime
	}
	if !updated.EndTime.Valid {
		updated.EndTime = patch.EndTime
	}
	if err := s.Store.ApplyLogChange(store.LogChange{Kind: store.Updated, Log: updated}); err != nil {
		return models.Log{}, fmt.Errorf("failed to apply ended log: %w", err)
	}
	hlog.CtxInfof(ctx, "Ended log %s after %s", updated.ID, updated.EndTime.Time.Sub(updated.StartTime.Time).Round(time.Second))

	var category string
	if task, ok := s.Store.Task(updated.TaskID); ok {
		category = task.Category
	}
	if s.Analytics != nil {
		if err := s.Analytics.Record(ctx, updated, category); err != nil {
			hlog.CtxWarnf(ctx, "Failed to record analytics for log %s: %v", updated.ID, err)
		}
	}
	s.publish(ctx, store.Updated, updated, category)
	return updated, nil
}

func (s *LogService) publish(ctx context.Context, kind store.ChangeKind, l models.Log, category string) {
	if s.Publisher == nil {
		return
	}
	payload := events.LogChangePayload{Kind: kind, Log: l, Category: category}
	if err := s.Publisher.PublishLogChange(ctx, payload); err != nil {
		hlog.CtxWarnf(ctx, "Log %s applied locally but not published: %v", l.ID, err)
	}
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"task-calendar/internal/models"
	"task-calendar/internal/resolver"
	"task-calendar/internal/store"
)

type EventService struct {
	Backend Backend
	Store   *store.Store
	Guard   *ActionGuard
	Now     func() time.Time
}

func NewEventService(b Backend, st *store.Store, guard *ActionGuard) *EventService {
	return &EventService{Backend: b, Store: st, Guard: guard}
}

// CreateEvent creates a standalone event. An end time, when given, must follow the start.
func (s *EventService) CreateEvent(ctx context.Context, in models.NewEvent) (models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Event{}, invalid(ErrTitleRequired)
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !in.Status.Valid() {
		return models.Event{}, invalid(ErrUnknownStatus)
	}
	if !in.StartTime.Valid {
		in.StartTime = models.At(clock(s.Now).now())
	}
	if in.EndTime.Valid {
		if err := resolver.ValidateWindow(in.StartTime, in.EndTime); err != nil {
			return models.Event{}, err
		}
	}

	done := s.Store.BeginMutation()
	defer done()

	created, err := s.Backend.CreateEvent(ctx, in)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.Store.ApplyEvent(created); err != nil {
		return models.Event{}, fmt.Errorf("failed to apply created event: %w", err)
	}
	hlog.CtxInfof(ctx, "Created event %s (%s)", created.ID, created.Title)
	return created, nil
}

// EndEvent completes a running event now. Remarks go into indicators.remarks.
func (s *EventService) EndEvent(ctx context.Context, id models.ID, remarks string) (models.Event, error) {
	release := s.Guard.Acquire(eventKey(id))
	if release == nil {
		return models.Event{}, ErrActionPending
	}
	defer release()

	current, ok := s.Store.Event(id)
	if !ok {
		return models.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if current.Status == models.StatusCompleted || current.EndTime.Valid {
		return models.Event{}, resolver.Invalid(resolver.ErrAlreadyEnded)
	}
	now := clock(s.Now).now()
	if current.StartTime.Valid && current.StartTime.Time.After(now) {
		return models.Event{}, resolver.Invalid(resolver.ErrNotStartedYet)
	}

	indicators := models.CloneMap(current.Indicators)
	if indicators == nil {
		indicators = map[string]any{}
	}
	if text := strings.TrimSpace(remarks); text != "" {
		indicators["remarks"] = text
	}
	patch := models.EventPatch{
		Status:     models.StatusCompleted,
		EndTime:    models.At(now),
		Indicators: indicators,
	}

	done := s.Store.BeginMutation()
	defer done()

	updated, err := s.Backend.UpdateEvent(ctx, id, patch)
	if err != nil {
		return models.Event{}, err
	}
	if updated.ID.IsZero() {
		updated = current
		updated.Status = patch.Status
		updated.EndTime = patch.EndTime
		updated.Indicators = patch.Indicators
	}
	if err := s.Store.ApplyEvent(updated); err != nil {
		return models.Event{}, fmt.Errorf("failed to apply ended event: %w", err)
	}
	hlog.CtxInfof(ctx, "Ended event %s", id)
	return updated, nil
}

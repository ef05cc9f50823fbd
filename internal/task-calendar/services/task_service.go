package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"task-calendar/internal/models"
	"task-calendar/internal/recurrence"
	"task-calendar/internal/resolver"
	"task-calendar/internal/store"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrUnknownStatus = errors.New("unknown status")
	ErrEmptyUpdate   = errors.New("nothing to update")
)

var taskMessages = map[error]string{
	ErrTitleRequired: "Title is required.",
	ErrUnknownStatus: "Unknown status.",
	ErrEmptyUpdate:   "Nothing to update.",
}

func invalid(err error) error {
	if msg, ok := taskMessages[err]; ok {
		return &resolver.ValidationError{Err: err, Message: msg}
	}
	return resolver.Invalid(err)
}

type TaskService struct {
	Backend Backend
	Store   *store.Store
	Guard   *ActionGuard
}

func NewTaskService(b Backend, st *store.Store, guard *ActionGuard) *TaskService {
	return &TaskService{Backend: b, Store: st, Guard: guard}
}

func (s *TaskService) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Task{}, invalid(ErrTitleRequired)
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !in.Status.Valid() {
		return models.Task{}, invalid(ErrUnknownStatus)
	}
	if in.Category != "" && !models.KnownCategory(in.Category, in.SubCategory) {
		hlog.CtxWarnf(ctx, "Creating task with uncatalogued category %q/%q", in.Category, in.SubCategory)
	}

	done := s.Store.BeginMutation()
	defer done()

	created, err := s.Backend.CreateTask(ctx, in)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.Store.ApplyTask(created); err != nil {
		return models.Task{}, fmt.Errorf("failed to apply created task: %w", err)
	}
	hlog.CtxInfof(ctx, "Created task %s (%s)", created.ID, created.Title)
	task, _ := s.Store.Task(created.ID)
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id models.ID, patch models.TaskPatch) (models.Task, error) {
	if patch.Empty() {
		return models.Task{}, invalid(ErrEmptyUpdate)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Task{}, invalid(ErrUnknownStatus)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, invalid(ErrTitleRequired)
	}
	if patch.Settings != nil {
		if err := checkRecurrenceSettings(patch.Settings); err != nil {
			return models.Task{}, err
		}
	}

	release := s.Guard.Acquire(taskKey(id))
	if release == nil {
		return models.Task{}, ErrActionPending
	}
	defer release()
	return s.update(ctx, id, patch)
}

func (s *TaskService) update(ctx context.Context, id models.ID, patch models.TaskPatch) (models.Task, error) {
	current, ok := s.Store.Task(id)
	if !ok {
		return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	done := s.Store.BeginMutation()
	defer done()

	updated, err := s.Backend.UpdateTask(ctx, id, patch)
	if err != nil {
		return models.Task{}, err
	}
	if updated.ID.IsZero() {
		updated = patch.Apply(current)
		updated.Schedules = nil
	}
	if err := s.Store.ApplyTask(updated); err != nil {
		return models.Task{}, fmt.Errorf("failed to apply updated task: %w", err)
	}
	task, _ := s.Store.Task(id)
	return task, nil
}

// CreateSchedule validates the window, creates the schedule and, when rule is set,
// stores it in the task settings under the new schedule id.
func (s *TaskService) CreateSchedule(ctx context.Context, taskID models.ID, in models.NewSchedule, rule *recurrence.Rule) (models.Schedule, error) {
	if err := resolver.ValidateWindow(in.StartTime, in.EndTime); err != nil {
		return models.Schedule{}, err
	}
	if rule != nil {
		normalized := rule.Normalize()
		if err := normalized.Validate(); err != nil {
			return models.Schedule{}, resolver.Invalid(err)
		}
		rule = &normalized
	}
	if _, ok := s.Store.Task(taskID); !ok {
		return models.Schedule{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}

	release := s.Guard.Acquire(taskKey(taskID))
	if release == nil {
		return models.Schedule{}, ErrActionPending
	}
	defer release()

	in.TaskID = taskID
	in.Remarks = strings.TrimSpace(in.Remarks)
	done := s.Store.BeginMutation()
	defer done()

	created, err := s.Backend.CreateSchedule(ctx, in)
	if err != nil {
		return models.Schedule{}, err
	}
	if created.TaskID.IsZero() {
		created.TaskID = taskID
	}
	if err := s.Store.ApplySchedule(created); err != nil {
		return models.Schedule{}, fmt.Errorf("failed to apply created schedule: %w", err)
	}
	hlog.CtxInfof(ctx, "Created schedule %s for task %s", created.ID, taskID)

	if rule != nil {
		if _, err := s.setRecurrence(ctx, taskID, created.ID, *rule); err != nil {
			sched, _ := s.Store.Schedule(created.ID)
			return sched, fmt.Errorf("schedule %s created but recurrence not saved: %w", created.ID, err)
		}
	}
	sched, _ := s.Store.Schedule(created.ID)
	return sched, nil
}

// SetRecurrence stores rule for one schedule of the task.
func (s *TaskService) SetRecurrence(ctx context.Context, taskID, scheduleID models.ID, rule recurrence.Rule) (models.Task, error) {
	rule = rule.Normalize()
	if err := rule.Validate(); err != nil {
		return models.Task{}, resolver.Invalid(err)
	}
	release := s.Guard.Acquire(taskKey(taskID))
	if release == nil {
		return models.Task{}, ErrActionPending
	}
	defer release()
	return s.setRecurrence(ctx, taskID, scheduleID, rule)
}

func (s *TaskService) setRecurrence(ctx context.Context, taskID, scheduleID models.ID, rule recurrence.Rule) (models.Task, error) {
	doc, err := json.Marshal(rule)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode recurrence: %w", err)
	}
	if err := recurrence.CheckDocument(string(doc)); err != nil {
		return models.Task{}, resolver.Invalid(err)
	}

	task, ok := s.Store.Task(taskID)
	if !ok {
		return models.Task{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	owned := false
	for _, sched := range task.Schedules {
		if sched.ID == scheduleID {
			owned = true
			break
		}
	}
	if !owned {
		return models.Task{}, resolver.Invalid(resolver.ErrScheduleNotFound)
	}

	settings, err := recurrence.WithRule(task.Settings, scheduleID, rule)
	if err != nil {
		return models.Task{}, err
	}
	hlog.CtxInfof(ctx, "Saving recurrence %q for schedule %s", rule.Describe(), scheduleID)
	return s.update(ctx, taskID, models.TaskPatch{Settings: settings})
}

// checkRecurrenceSettings validates every rule document inside a settings patch.
func checkRecurrenceSettings(settings map[string]any) error {
	rules, ok := settings[recurrence.SettingsKey].(map[string]any)
	if !ok {
		return nil
	}
	check := func(doc any) error {
		raw, err := json.Marshal(doc)
		if err != nil {
			return resolver.Invalid(fmt.Errorf("%w: %v", recurrence.ErrInvalidRule, err))
		}
		if err := recurrence.CheckDocument(string(raw)); err != nil {
			return resolver.Invalid(err)
		}
		return nil
	}
	if _, legacy := rules["pattern"]; legacy {
		return check(rules)
	}
	for _, doc := range rules {
		if err := check(doc); err != nil {
			return err
		}
	}
	return nil
}

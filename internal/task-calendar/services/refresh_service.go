package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/go-co-op/gocron/v2"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/backend"
)

const (
	refreshJobName = "refresh_all"
	refreshJobTag  = "reconcile"
	refreshTimeout = 30 * time.Second
)

// RefreshResult reports one reconciliation pass.
type RefreshResult struct {
	Deferred  bool              `json:"deferred"`
	Missing   []string          `json:"missing,omitempty"`
	KeptLocal int               `json:"kept_local"`
	Counts    map[string]int    `json:"counts"`
	Errors    map[string]string `json:"errors,omitempty"`
	// Unauthorized is set when any fetch was rejected for authentication.
	Unauthorized bool      `json:"unauthorized,omitempty"`
	At           time.Time `json:"at"`
}

// RefreshService is the secondary consistency path: it refetches the server
// collections and reconciles them into the store. It never runs while a write
// is in flight.
type RefreshService struct {
	Backend   Backend
	Store     *store.Store
	Cache     SnapshotSaver
	Scheduler gocron.Scheduler
	Now       func() time.Time

	appContext context.Context
	mu         sync.Mutex
}

func NewRefreshService(ctx context.Context, b Backend, st *store.Store, cache SnapshotSaver) (*RefreshService, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &RefreshService{Backend: b, Store: st, Cache: cache, Scheduler: s, appContext: ctx}, nil
}

// Start schedules RefreshAll on cronExpr and starts the scheduler.
func (s *RefreshService) Start(cronExpr string) error {
	job, err := s.Scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(s.appContext, refreshTimeout)
			defer cancel()
			if _, err := s.RefreshAll(ctx); err != nil {
				hlog.Warnf("Scheduled refresh failed: %v", err)
			}
		}),
		gocron.WithName(refreshJobName),
		gocron.WithTags(refreshJobTag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh with cron %q: %w", cronExpr, err)
	}
	s.Scheduler.Start()
	if next, err := job.NextRun(); err == nil {
		hlog.Infof("Refresh scheduled with cron '%s', next run %s", cronExpr, next.Format(time.RFC3339))
	}
	return nil
}

func (s *RefreshService) Stop() {
	hlog.Info("RefreshService stopping...")
	if err := s.Scheduler.Shutdown(); err != nil {
		hlog.Errorf("Error shutting down gocron scheduler: %v", err)
	}
}

type fetchResult struct {
	tasks     []models.Task
	schedules []models.Schedule
	logs      []models.Log
	events    []models.Event
	errs      map[store.Collection]error
}

func (s *RefreshService) fetch(ctx context.Context, r backend.Range) fetchResult {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = fetchResult{errs: map[store.Collection]error{}}
	)
	record := func(c store.Collection, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		out.errs[c] = err
		mu.Unlock()
	}
	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		out.tasks, err = s.Backend.ListTasks(ctx)
		record(store.Tasks, err)
	}()
	go func() {
		defer wg.Done()
		var err error
		out.schedules, err = s.Backend.ListSchedulesInRange(ctx, r)
		record(store.Schedules, err)
	}()
	go func() {
		defer wg.Done()
		var err error
		out.logs, err = s.Backend.ListLogsInRange(ctx, r)
		record(store.Logs, err)
	}()
	go func() {
		defer wg.Done()
		var err error
		out.events, err = s.Backend.ListEventsInRange(ctx, r)
		record(store.Events, err)
	}()
	wg.Wait()
	return out
}

// RefreshAll fetches all four collections independently and reconciles them. A
// failed collection keeps its local copy; if every fetch fails the store is left
// untouched and the errors are returned.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := clock(s.Now).now()
	result := RefreshResult{At: now}
	if n := s.Store.Pending(); n > 0 {
		hlog.CtxInfof(ctx, "Refresh deferred: %d write(s) in flight", n)
		result.Deferred = true
		return result, nil
	}

	since := s.Store.Revision()
	fetched := s.fetch(ctx, backend.DefaultRange(now))

	all := []store.Collection{store.Tasks, store.Schedules, store.Logs, store.Events}
	if len(fetched.errs) == len(all) {
		errs := make([]error, 0, len(all))
		for _, c := range all {
			errs = append(errs, fmt.Errorf("%s: %w", c, fetched.errs[c]))
		}
		return result, fmt.Errorf("refresh failed: %w", errors.Join(errs...))
	}

	snap := store.Snapshot{
		Tasks:     fetched.tasks,
		Schedules: fetched.schedules,
		Logs:      fetched.logs,
		Events:    fetched.events,
	}
	for _, c := range all {
		if err, failed := fetched.errs[c]; failed {
			snap.Missing |= c
			result.Missing = append(result.Missing, c.String())
			if result.Errors == nil {
				result.Errors = map[string]string{}
			}
			result.Errors[c.String()] = err.Error()
			if backend.IsUnauthorized(err) {
				result.Unauthorized = true
			}
			hlog.CtxWarnf(ctx, "Refresh kept local %s: %v", c, err)
		}
	}

	if n := s.Store.Pending(); n > 0 {
		hlog.CtxInfof(ctx, "Refresh discarded: %d write(s) started during fetch", n)
		result.Deferred = true
		return result, nil
	}
	rec := s.Store.Reconcile(snap, since)
	result.KeptLocal = rec.KeptLocal

	current := s.Store.Snapshot()
	result.Counts = map[string]int{
		store.Tasks.String():     len(current.Tasks),
		store.Schedules.String(): len(current.Schedules),
		store.Logs.String():      len(current.Logs),
		store.Events.String():    len(current.Events),
	}
	hlog.CtxInfof(ctx, "Refresh complete: %v (kept %d local change(s))", result.Counts, rec.KeptLocal)

	if s.Cache != nil {
		if err := s.Cache.Save(ctx, current); err != nil {
			hlog.CtxWarnf(ctx, "Failed to persist snapshot after refresh: %v", err)
		}
	}
	return result, nil
}

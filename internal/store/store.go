// Package store keeps the tasks, schedules, logs and events the client knows about in
// one normalized, lock-guarded fact set. The nested task view, the flat schedule view
// and the flat log view are derived from the same rows on every read, so a log change
// can never show up in one view and not another.
package store

import (
	"fmt"
	"sort"
	"sync"

	"task-calendar/internal/models"
)

// Collection names one of the four server collections.
type Collection uint8

const (
	Tasks Collection = 1 << iota
	Schedules
	Logs
	Events
)

func (c Collection) String() string {
	switch c {
	case Tasks:
		return "tasks"
	case Schedules:
		return "schedules"
	case Logs:
		return "logs"
	case Events:
		return "events"
	}
	return fmt.Sprintf("collection(%d)", uint8(c))
}

// Has reports whether every collection in other is set in c.
func (c Collection) Has(other Collection) bool { return c&other == other }

// Snapshot is a full copy of the four views. Missing lists collections the producer
// could not fetch; Reconcile keeps the local copy of those.
type Snapshot struct {
	Tasks     []models.Task     `json:"tasks"`
	Schedules []models.Schedule `json:"task_schedules"`
	Logs      []models.Log      `json:"task_logs"`
	Events    []models.Event    `json:"events"`
	Selected  models.ID         `json:"selected,omitempty"`
	Missing   Collection        `json:"-"`
}

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
)

// LogChange is a log as returned by the collaborator after a create or update.
type LogChange struct {
	Kind ChangeKind
	Log  models.Log
}

type entityKind uint8

const (
	taskEntity entityKind = iota
	scheduleEntity
	logEntity
	eventEntity
)

type entityKey struct {
	kind entityKind
	id   models.ID
}

// Store is safe for concurrent use. All views are deep copies.
type Store struct {
	mu       sync.RWMutex
	t        *tables
	selected models.ID
	rev      uint64
	touched  map[entityKey]uint64
	pending  int
}

func New() *Store {
	return &Store{t: newTables(), touched: map[entityKey]uint64{}}
}

// Revision increases on every mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) touch(kind entityKind, id models.ID) {
	s.touched[entityKey{kind: kind, id: id}] = s.rev
}

// BeginMutation marks a write as in flight until the returned func is called.
func (s *Store) BeginMutation() (done func()) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
		})
	}
}

// Pending is the number of writes in flight.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// ApplyLogChange is the single entry point for fanning a log create or update out to
// every view. Updates of unknown logs are treated as creates.
func (s *Store) ApplyLogChange(change LogChange) error {
	l := change.Log
	if l.ID.IsZero() {
		return fmt.Errorf("apply log change: log has no id")
	}
	if l.ScheduleID.IsZero() {
		return fmt.Errorf("apply log change: log %s has no schedule id", l.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l.TaskID.IsZero() {
		if sched, ok := s.t.schedules[l.ScheduleID]; ok {
			l.TaskID = sched.TaskID
		}
	}
	s.rev++
	s.t.putLog(l)
	s.t.logView = appendUnique(s.t.logView, l.ID)
	s.touch(logEntity, l.ID)
	return nil
}

// ApplyTask upserts a task. Nested schedules, when present, are upserted too.
func (s *Store) ApplyTask(task models.Task) error {
	if task.ID.IsZero() {
		return fmt.Errorf("apply task: task has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rev++
	s.t.putTask(task)
	s.touch(taskEntity, task.ID)
	for _, sched := range task.Schedules {
		s.touch(scheduleEntity, sched.ID)
		for _, l := range sched.Logs {
			s.touch(logEntity, l.ID)
		}
	}
	return nil
}

// ApplySchedule upserts a schedule into its task and into the flat schedule view.
func (s *Store) ApplySchedule(sched models.Schedule) error {
	if sched.ID.IsZero() {
		return fmt.Errorf("apply schedule: schedule has no id")
	}
	if sched.TaskID.IsZero() {
		return fmt.Errorf("apply schedule: schedule %s has no task id", sched.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rev++
	s.t.putSchedule(sched)
	s.t.scheduleView = appendUnique(s.t.scheduleView, sched.ID)
	s.touch(scheduleEntity, sched.ID)
	for _, l := range sched.Logs {
		s.t.logView = appendUnique(s.t.logView, l.ID)
		s.touch(logEntity, l.ID)
	}
	return nil
}

// ApplyEvent upserts a standalone event.
func (s *Store) ApplyEvent(e models.Event) error {
	if e.ID.IsZero() {
		return fmt.Errorf("apply event: event has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rev++
	s.t.putEvent(e)
	s.touch(eventEntity, e.ID)
	return nil
}

// Select opens the detail view for a task; an empty id clears it.
func (s *Store) Select(id models.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !id.IsZero() {
		if _, ok := s.t.tasks[id]; !ok {
			return false
		}
	}
	s.selected = id
	return true
}

// SelectedTask returns the task in the detail view, always reflecting the latest facts.
func (s *Store) SelectedTask() (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected.IsZero() {
		return models.Task{}, false
	}
	return s.t.buildTask(s.selected)
}

func (s *Store) Task(id models.ID) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.buildTask(id)
}

func (s *Store) Schedule(id models.ID) (models.Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.buildSchedule(id)
}

func (s *Store) Log(id models.ID) (models.Log, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.t.logs[id]
	return l, ok
}

func (s *Store) Event(id models.ID) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.t.events[id]
	return e.Clone(), ok
}

// Tasks is the nested view: every task with its schedules and their logs.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.taskList()
}

// Schedules is the flat schedule view, each with its logs and a task summary.
func (s *Store) Schedules() []models.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.scheduleList()
}

// Logs is the flat log view.
func (s *Store) Logs() []models.Log {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.logList()
}

func (s *Store) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t.eventList()
}

// Snapshot copies all four views and the selection under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tasks:     s.t.taskList(),
		Schedules: s.t.scheduleList(),
		Logs:      s.t.logList(),
		Events:    s.t.eventList(),
		Selected:  s.selected,
	}
}

func fromSnapshot(snap Snapshot) *tables {
	t := newTables()
	for _, task := range snap.Tasks {
		t.putTask(task)
	}
	for _, sched := range snap.Schedules {
		t.putSchedule(sched)
		t.scheduleView = appendUnique(t.scheduleView, sched.ID)
	}
	for _, l := range snap.Logs {
		t.putLog(l)
		t.logView = appendUnique(t.logView, l.ID)
	}
	for _, e := range snap.Events {
		t.putEvent(e)
	}
	return t
}

// Load replaces everything with snap. Used at boot from the snapshot cache.
func (s *Store) Load(snap Snapshot) {
	next := fromSnapshot(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = next
	s.rev++
	s.touched = map[entityKey]uint64{}
	if _, ok := next.tasks[snap.Selected]; ok {
		s.selected = snap.Selected
	} else {
		s.selected = ""
	}
}

// ReconcileResult reports what Reconcile did.
type ReconcileResult struct {
	KeptLocal int
	Carried   Collection
}

// Reconcile replaces local state with server data. Entities changed locally after
// revision since keep their local version, and collections marked missing in snap
// keep their local contents.
func (s *Store) Reconcile(snap Snapshot, since uint64) ReconcileResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.t
	next := newTables()
	result := ReconcileResult{Carried: snap.Missing}

	if snap.Missing.Has(Tasks) {
		for _, id := range local.taskOrder {
			if task, ok := local.buildTask(id); ok {
				next.putTask(task)
			}
		}
	} else {
		for _, task := range snap.Tasks {
			next.putTask(task)
		}
	}

	if snap.Missing.Has(Schedules) {
		for _, id := range local.scheduleView {
			if sched, ok := local.buildSchedule(id); ok {
				next.putSchedule(sched)
				next.scheduleView = appendUnique(next.scheduleView, id)
			}
		}
	} else {
		for _, sched := range snap.Schedules {
			next.putSchedule(sched)
			next.scheduleView = appendUnique(next.scheduleView, sched.ID)
		}
	}

	if snap.Missing.Has(Logs) {
		for _, id := range local.logView {
			if l, ok := local.logs[id]; ok {
				next.putLog(l)
				next.logView = appendUnique(next.logView, id)
			}
		}
	} else {
		for _, l := range snap.Logs {
			next.putLog(l)
			next.logView = appendUnique(next.logView, l.ID)
		}
	}

	if snap.Missing.Has(Events) {
		for _, id := range local.eventOrder {
			next.putEvent(local.events[id])
		}
	} else {
		for _, e := range snap.Events {
			next.putEvent(e)
		}
	}

	// newer local writes win over the server copy
	keys := make([]entityKey, 0, len(s.touched))
	for key, rev := range s.touched {
		if rev > since {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return s.touched[keys[i]] < s.touched[keys[j]] })
	for _, key := range keys {
		if overlay(local, next, key) {
			result.KeptLocal++
		}
	}

	s.t = next
	s.rev++
	for key, rev := range s.touched {
		if rev <= since {
			delete(s.touched, key)
		}
	}
	if _, ok := next.tasks[s.selected]; !ok {
		s.selected = ""
	}
	return result
}

func overlay(local, next *tables, key entityKey) bool {
	switch key.kind {
	case taskEntity:
		row, ok := local.tasks[key.id]
		if !ok {
			return false
		}
		next.tasks[key.id] = row.Clone()
		next.taskOrder = appendUnique(next.taskOrder, key.id)
	case scheduleEntity:
		row, ok := local.schedules[key.id]
		if !ok {
			return false
		}
		next.putSchedule(row)
		if indexOf(local.scheduleView, key.id) >= 0 {
			next.scheduleView = appendUnique(next.scheduleView, key.id)
		}
	case logEntity:
		l, ok := local.logs[key.id]
		if !ok {
			return false
		}
		next.putLog(l)
		if indexOf(local.logView, key.id) >= 0 {
			next.logView = appendUnique(next.logView, key.id)
		}
	case eventEntity:
		e, ok := local.events[key.id]
		if !ok {
			return false
		}
		next.putEvent(e)
	}
	return true
}

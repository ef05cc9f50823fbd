// Package db persists the last known calendar snapshot and the log analytics
// table so the service can boot before the collaborator answers.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
)

const batchSize = 200

type SnapshotRepository struct {
	DB *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{DB: db}
}

// Save replaces the cached snapshot with snap in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snap store.Snapshot) error {
	tasks := make([]TaskRecord, 0, len(snap.Tasks))
	for i, t := range snap.Tasks {
		tasks = append(tasks, taskRecord(t, i))
	}

	// order of each schedule inside its task and of each log inside its schedule
	taskPos := map[models.ID]int{}
	schedPos := map[models.ID]int{}
	for _, t := range snap.Tasks {
		for i, s := range t.Schedules {
			taskPos[s.ID] = i
			for j, l := range s.Logs {
				schedPos[l.ID] = j
			}
		}
	}
	for _, s := range snap.Schedules {
		for j, l := range s.Logs {
			if _, ok := schedPos[l.ID]; !ok {
				schedPos[l.ID] = j
			}
		}
	}

	var (
		schedules   []ScheduleRecord
		logs        []LogRecord
		seenSched   = map[models.ID]bool{}
		seenLog     = map[models.ID]bool{}
		addLog      func(l models.Log, listed bool)
		addSchedule func(s models.Schedule, listed bool)
	)
	addLog = func(l models.Log, listed bool) {
		if seenLog[l.ID] {
			return
		}
		seenLog[l.ID] = true
		rec := logRecord(l, len(logs), listed)
		if pos, ok := schedPos[l.ID]; ok {
			rec.Nested = true
			rec.SchedulePosition = pos
		}
		logs = append(logs, rec)
	}
	addSchedule = func(s models.Schedule, listed bool) {
		if !seenSched[s.ID] {
			seenSched[s.ID] = true
			rec := scheduleRecord(s, len(schedules), listed)
			if pos, ok := taskPos[s.ID]; ok {
				rec.Nested = true
				rec.TaskPosition = pos
			}
			schedules = append(schedules, rec)
		}
		for _, l := range s.Logs {
			if l.ScheduleID.IsZero() {
				l.ScheduleID = s.ID
			}
			if l.TaskID.IsZero() {
				l.TaskID = s.TaskID
			}
			addLog(l, false)
		}
	}
	// flat views first so their membership wins over nested copies
	for _, l := range snap.Logs {
		addLog(l, true)
	}
	for _, s := range snap.Schedules {
		addSchedule(s, true)
	}
	for _, t := range snap.Tasks {
		for _, s := range t.Schedules {
			if s.TaskID.IsZero() {
				s.TaskID = t.ID
			}
			addSchedule(s, false)
		}
	}

	events := make([]EventRecord, 0, len(snap.Events))
	for i, e := range snap.Events {
		events = append(events, eventRecord(e, i))
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&TaskRecord{}, &ScheduleRecord{}, &LogRecord{}, &EventRecord{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		if len(tasks) > 0 {
			if err := tx.CreateInBatches(&tasks, batchSize).Error; err != nil {
				return err
			}
		}
		if len(schedules) > 0 {
			if err := tx.CreateInBatches(&schedules, batchSize).Error; err != nil {
				return err
			}
		}
		if len(logs) > 0 {
			if err := tx.CreateInBatches(&logs, batchSize).Error; err != nil {
				return err
			}
		}
		if len(events) > 0 {
			if err := tx.CreateInBatches(&events, batchSize).Error; err != nil {
				return err
			}
		}
		meta := SnapshotMeta{ID: 1, Selected: snap.Selected.String(), SavedAt: time.Now().UTC()}
		return tx.Save(&meta).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot. ok is false when nothing was ever saved.
func (r *SnapshotRepository) Load(ctx context.Context) (snap store.Snapshot, savedAt time.Time, ok bool, err error) {
	db := r.DB.WithContext(ctx)

	var meta SnapshotMeta
	if err := db.First(&meta, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Snapshot{}, time.Time{}, false, nil
		}
		return store.Snapshot{}, time.Time{}, false, fmt.Errorf("failed to load snapshot header: %w", err)
	}

	var (
		taskRows  []TaskRecord
		schedRows []ScheduleRecord
		logRows   []LogRecord
		eventRows []EventRecord
	)
	if err := db.Order("position").Find(&taskRows).Error; err != nil {
		return store.Snapshot{}, time.Time{}, false, fmt.Errorf("failed to load cached tasks: %w", err)
	}
	if err := db.Order("position").Find(&schedRows).Error; err != nil {
		return store.Snapshot{}, time.Time{}, false, fmt.Errorf("failed to load cached schedules: %w", err)
	}
	if err := db.Order("position").Find(&logRows).Error; err != nil {
		return store.Snapshot{}, time.Time{}, false, fmt.Errorf("failed to load cached logs: %w", err)
	}
	if err := db.Order("position").Find(&eventRows).Error; err != nil {
		return store.Snapshot{}, time.Time{}, false, fmt.Errorf("failed to load cached events: %w", err)
	}

	knownSched := map[models.ID]bool{}
	for _, row := range schedRows {
		knownSched[models.ID(row.ID)] = true
	}
	// rows saved before the Nested column existed are nested exactly when unlisted
	var nestedLogRows []LogRecord
	snap.Logs = []models.Log{}
	for _, row := range logRows {
		nestable := (row.Nested || !row.Listed) && knownSched[models.ID(row.ScheduleID)]
		if nestable {
			nestedLogRows = append(nestedLogRows, row)
		}
		if row.Listed || !nestable {
			snap.Logs = append(snap.Logs, row.model())
		}
	}
	sort.SliceStable(nestedLogRows, func(i, j int) bool {
		return nestedLogRows[i].SchedulePosition < nestedLogRows[j].SchedulePosition
	})
	nestedLogs := map[models.ID][]models.Log{}
	for _, row := range nestedLogRows {
		l := row.model()
		nestedLogs[l.ScheduleID] = append(nestedLogs[l.ScheduleID], l)
	}

	knownTask := map[models.ID]bool{}
	for _, row := range taskRows {
		knownTask[models.ID(row.ID)] = true
	}
	var nestedSchedRows []ScheduleRecord
	snap.Schedules = []models.Schedule{}
	for _, row := range schedRows {
		nestable := (row.Nested || !row.Listed) && knownTask[models.ID(row.TaskID)]
		if nestable {
			nestedSchedRows = append(nestedSchedRows, row)
		}
		if row.Listed || !nestable {
			s := row.model()
			s.Logs = nestedLogs[s.ID]
			snap.Schedules = append(snap.Schedules, s)
		}
	}
	sort.SliceStable(nestedSchedRows, func(i, j int) bool {
		return nestedSchedRows[i].TaskPosition < nestedSchedRows[j].TaskPosition
	})
	nestedSched := map[models.ID][]models.Schedule{}
	for _, row := range nestedSchedRows {
		s := row.model()
		s.Logs = nestedLogs[s.ID]
		nestedSched[s.TaskID] = append(nestedSched[s.TaskID], s)
	}

	snap.Tasks = make([]models.Task, 0, len(taskRows))
	for _, row := range taskRows {
		t := row.model()
		t.Schedules = nestedSched[t.ID]
		snap.Tasks = append(snap.Tasks, t)
	}
	snap.Events = make([]models.Event, 0, len(eventRows))
	for _, row := range eventRows {
		snap.Events = append(snap.Events, row.model())
	}
	snap.Selected = models.ID(meta.Selected)
	return snap, meta.SavedAt, true, nil
}

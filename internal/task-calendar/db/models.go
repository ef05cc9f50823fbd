package db

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-calendar/internal/models"
)

// TaskRecord is a cached task row. Nested schedules live in ScheduleRecord.
type TaskRecord struct {
	ID          string         `gorm:"primaryKey;size:64"`
	Position    int            `gorm:"index"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category" gorm:"index"`
	SubCategory string         `json:"sub_category"`
	Status      string         `json:"status" gorm:"index"`
	Settings    datatypes.JSON `json:"settings"`
	Indicators  datatypes.JSON `json:"indicators"`
	UpdatedAt   time.Time
}

// ScheduleRecord is a cached schedule. Listed marks membership in the flat schedule view;
// Nested marks membership in its task's schedule list, at TaskPosition.
type ScheduleRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	TaskID       string `gorm:"index;size:64"`
	Position     int    `gorm:"index"`
	Listed       bool
	Nested       bool
	TaskPosition int
	StartTime    *time.Time
	EndTime      *time.Time
	Remarks      string
	UpdatedAt    time.Time
}

// LogRecord is a cached log. Listed marks membership in the flat log view; Nested
// marks membership in its schedule's log list, at SchedulePosition.
type LogRecord struct {
	ID               string `gorm:"primaryKey;size:64"`
	ScheduleID       string `gorm:"index;size:64"`
	TaskID           string `gorm:"index;size:64"`
	Position         int    `gorm:"index"`
	Listed           bool
	Nested           bool
	SchedulePosition int
	StartTime        *time.Time
	EndTime          *time.Time `gorm:"index"`
	Remarks          string
	UpdatedAt        time.Time
}

type EventRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	Position    int    `gorm:"index"`
	Title       string
	Description string
	Category    string `gorm:"index"`
	SubCategory string
	Status      string `gorm:"index"`
	StartTime   *time.Time
	EndTime     *time.Time
	Indicators  datatypes.JSON
	UpdatedAt   time.Time
}

// SnapshotMeta is the single-row header of the cached snapshot.
type SnapshotMeta struct {
	ID       uint `gorm:"primaryKey"`
	Selected string
	SavedAt  time.Time
}

func (SnapshotMeta) TableName() string { return "snapshot_meta" }

// LogAnalytics is one ended log with its real duration.
type LogAnalytics struct {
	gorm.Model
	LogID      string    `gorm:"uniqueIndex;size:64"`
	TaskID     string    `gorm:"index;size:64"`
	ScheduleID string    `gorm:"size:64"`
	Category   string    `gorm:"index"`
	Day        string    `gorm:"index;size:10"` // YYYY-MM-DD in the display zone
	StartTime  time.Time
	EndTime    time.Time
	Minutes    int
}

func (LogAnalytics) TableName() string { return "log_analytics" }

// Models lists every table owned by this package, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&TaskRecord{}, &ScheduleRecord{}, &LogRecord{}, &EventRecord{},
		&SnapshotMeta{}, &LogAnalytics{},
	}
}

func toJSON(m map[string]any) datatypes.JSON {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func fromJSON(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func taskRecord(t models.Task, pos int) TaskRecord {
	return TaskRecord{
		ID:          t.ID.String(),
		Position:    pos,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		SubCategory: t.SubCategory,
		Status:      string(t.Status),
		Settings:    toJSON(t.Settings),
		Indicators:  toJSON(t.Indicators),
	}
}

func (r TaskRecord) model() models.Task {
	return models.Task{
		ID:          models.ID(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Status:      models.Status(r.Status),
		Settings:    fromJSON(r.Settings),
		Indicators:  fromJSON(r.Indicators),
	}
}

func scheduleRecord(s models.Schedule, pos int, listed bool) ScheduleRecord {
	return ScheduleRecord{
		ID:        s.ID.String(),
		TaskID:    s.TaskID.String(),
		Position:  pos,
		Listed:    listed,
		StartTime: utc(s.StartTime),
		EndTime:   utc(s.EndTime),
		Remarks:   s.Remarks,
	}
}

func (r ScheduleRecord) model() models.Schedule {
	return models.Schedule{
		ID:        models.ID(r.ID),
		TaskID:    models.ID(r.TaskID),
		StartTime: models.FromPtr(r.StartTime),
		EndTime:   models.FromPtr(r.EndTime),
		Remarks:   r.Remarks,
	}
}

func logRecord(l models.Log, pos int, listed bool) LogRecord {
	return LogRecord{
		ID:         l.ID.String(),
		ScheduleID: l.ScheduleID.String(),
		TaskID:     l.TaskID.String(),
		Position:   pos,
		Listed:     listed,
		StartTime:  utc(l.StartTime),
		EndTime:    utc(l.EndTime),
		Remarks:    l.Remarks,
	}
}

func (r LogRecord) model() models.Log {
	return models.Log{
		ID:         models.ID(r.ID),
		ScheduleID: models.ID(r.ScheduleID),
		TaskID:     models.ID(r.TaskID),
		StartTime:  models.FromPtr(r.StartTime),
		EndTime:    models.FromPtr(r.EndTime),
		Remarks:    r.Remarks,
	}
}

func eventRecord(e models.Event, pos int) EventRecord {
	return EventRecord{
		ID:          e.ID.String(),
		Position:    pos,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Status:      string(e.Status),
		StartTime:   utc(e.StartTime),
		EndTime:     utc(e.EndTime),
		Indicators:  toJSON(e.Indicators),
	}
}

func (r EventRecord) model() models.Event {
	return models.Event{
		ID:          models.ID(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Status:      models.Status(r.Status),
		StartTime:   models.FromPtr(r.StartTime),
		EndTime:     models.FromPtr(r.EndTime),
		Indicators:  fromJSON(r.Indicators),
	}
}

func utc(ts models.Timestamp) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

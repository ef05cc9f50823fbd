package models

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusCompleted  Status = "completed"
	StatusScheduled  Status = "scheduled"
	StatusCancelled  Status = "cancelled"
	StatusRecurring  Status = "recurring"
	StatusMissed     Status = "missed"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusPending, StatusInProgress, StatusCompleted, StatusScheduled,
	StatusCancelled, StatusRecurring, StatusMissed,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a unit of trackable work. Schedules is only populated in the nested view.
type Task struct {
	ID          ID             `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	SubCategory string         `json:"sub_category"`
	Status      Status         `json:"status"`
	Settings    map[string]any `json:"settings,omitempty"`
	Indicators  map[string]any `json:"indicators,omitempty"`
	Schedules   []Schedule     `json:"task_schedules"`
}

// TaskSummary is the trimmed task shape the collaborator nests inside flat schedules.
type TaskSummary struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	Status      Status `json:"status,omitempty"`
}

// Summary returns the nested-summary form of t.
func (t Task) Summary() TaskSummary {
	return TaskSummary{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		SubCategory: t.SubCategory,
		Status:      t.Status,
	}
}

// Schedule is a planned time box attached to a task.
type Schedule struct {
	ID        ID           `json:"id"`
	TaskID    ID           `json:"task_id"`
	StartTime Timestamp    `json:"start_time"`
	EndTime   Timestamp    `json:"end_time"`
	Remarks   string       `json:"remarks,omitempty"`
	Logs      []Log        `json:"task_logs"`
	Task      *TaskSummary `json:"task,omitempty"`
}

// Log records actual work against a schedule. An absent EndTime means the log is running.
type Log struct {
	ID         ID        `json:"id"`
	ScheduleID ID        `json:"task_schedule_id"`
	TaskID     ID        `json:"task_id"`
	StartTime  Timestamp `json:"start_time"`
	EndTime    Timestamp `json:"end_time"`
	Remarks    string    `json:"remarks"`
}

// Running reports whether the log has no usable end time.
func (l Log) Running() bool {
	return !l.EndTime.Valid
}

// Event is a standalone calendar item not tied to a task.
type Event struct {
	ID          ID             `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	SubCategory string         `json:"sub_category"`
	Status      Status         `json:"status"`
	StartTime   Timestamp      `json:"start_time"`
	EndTime     Timestamp      `json:"end_time"`
	Indicators  map[string]any `json:"indicators,omitempty"`
}

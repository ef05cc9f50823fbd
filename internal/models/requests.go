package models

// Write payloads sent to the collaborator. Server-assigned fields are omitted.

type NewTask struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	SubCategory string         `json:"sub_category"`
	Status      Status         `json:"status"`
	Settings    map[string]any `json:"settings,omitempty"`
	Indicators  map[string]any `json:"indicators,omitempty"`
}

// TaskPatch carries only the fields being changed.
type TaskPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	SubCategory *string        `json:"sub_category,omitempty"`
	Status      *Status        `json:"status,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Indicators  map[string]any `json:"indicators,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.SubCategory == nil &&
		p.Status == nil && p.Settings == nil && p.Indicators == nil
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.SubCategory != nil {
		t.SubCategory = *p.SubCategory
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Settings != nil {
		t.Settings = CloneMap(p.Settings)
	}
	if p.Indicators != nil {
		t.Indicators = CloneMap(p.Indicators)
	}
	return t
}

type NewSchedule struct {
	TaskID    ID        `json:"task_id"`
	StartTime Timestamp `json:"start_time"`
	EndTime   Timestamp `json:"end_time"`
	Remarks   string    `json:"remarks,omitempty"`
}

type NewLog struct {
	ScheduleID ID        `json:"task_schedule_id"`
	TaskID     ID        `json:"task_id"`
	StartTime  Timestamp `json:"start_time"`
	EndTime    Timestamp `json:"end_time"`
	Remarks    string    `json:"remarks"`
}

// LogPatch closes a running log.
type LogPatch struct {
	EndTime Timestamp `json:"end_time"`
	Remarks string    `json:"remarks"`
}

type NewEvent struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	SubCategory string         `json:"sub_category"`
	Status      Status         `json:"status"`
	StartTime   Timestamp      `json:"start_time"`
	EndTime     Timestamp      `json:"end_time"`
	Indicators  map[string]any `json:"indicators,omitempty"`
}

// EventPatch is the body of an event end.
type EventPatch struct {
	Status     Status         `json:"status"`
	EndTime    Timestamp      `json:"end_time"`
	Indicators map[string]any `json:"indicators"`
}

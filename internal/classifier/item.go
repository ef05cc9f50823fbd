// Package classifier places schedules, logs and events on a single day's timeline.
package classifier

import (
	"task-calendar/internal/models"
)

type Kind string

const (
	KindEvent    Kind = "event"
	KindSchedule Kind = "schedule"
	KindLog      Kind = "log"
)

// UntitledTask is shown when no title can be found for an item.
const UntitledTask = "Untitled Task"

// Item is the one shape the timeline works with. Use the From* adapters to build it.
type Item struct {
	Kind       Kind             `json:"kind"`
	ID         models.ID        `json:"id"`
	TaskID     models.ID        `json:"task_id,omitempty"`
	ScheduleID models.ID        `json:"task_schedule_id,omitempty"`
	Title      string           `json:"title"`
	Category   string           `json:"category,omitempty"`
	Status     models.Status    `json:"status,omitempty"`
	Start      models.Timestamp `json:"start_time"`
	End        models.Timestamp `json:"end_time"`
	Remarks    string           `json:"remarks,omitempty"`
}

func titleOr(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return UntitledTask
}

func FromEvent(e models.Event) Item {
	remarks, _ := e.Indicators["remarks"].(string)
	return Item{
		Kind:     KindEvent,
		ID:       e.ID,
		Title:    titleOr(e.Title),
		Category: e.Category,
		Status:   e.Status,
		Start:    e.StartTime,
		End:      e.EndTime,
		Remarks:  remarks,
	}
}

func FromSchedule(s models.Schedule) Item {
	item := Item{
		Kind:       KindSchedule,
		ID:         s.ID,
		TaskID:     s.TaskID,
		ScheduleID: s.ID,
		Start:      s.StartTime,
		End:        s.EndTime,
		Remarks:    s.Remarks,
	}
	if s.Task != nil {
		item.Title = s.Task.Title
		item.Category = s.Task.Category
		item.Status = s.Task.Status
	}
	item.Title = titleOr(item.Title)
	return item
}

// FromLog adapts a log. task may be nil when the owning task is not known locally.
func FromLog(l models.Log, task *models.TaskSummary) Item {
	item := Item{
		Kind:       KindLog,
		ID:         l.ID,
		TaskID:     l.TaskID,
		ScheduleID: l.ScheduleID,
		Start:      l.StartTime,
		End:        l.EndTime,
		Remarks:    l.Remarks,
	}
	if task != nil {
		item.Title = task.Title
		item.Category = task.Category
		item.Status = task.Status
	}
	item.Title = titleOr(item.Title)
	return item
}

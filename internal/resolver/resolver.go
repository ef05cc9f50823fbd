// Package resolver decides which schedule of a task is current, whether the task can
// be logged, and validates log start/end requests before they are written.
package resolver

import (
	"strings"
	"time"

	"task-calendar/internal/models"
	"task-calendar/internal/timewindow"
)

type Action string

const (
	ActionStart Action = "start"
	ActionEnd   Action = "end"
)

// Availability explains why a task can or cannot be logged.
type Availability string

const (
	Available   Availability = "available"
	NoSchedule  Availability = "no_schedule"
	Upcoming    Availability = "upcoming"
	NotActive   Availability = "no_active"
	Unavailable Availability = "unavailable"
)

// Resolution is the derived logging state of one task at one instant.
type Resolution struct {
	TaskID       models.ID        `json:"task_id"`
	Schedule     *models.Schedule `json:"schedule,omitempty"`
	Log          *models.Log      `json:"log,omitempty"`
	CanLog       bool             `json:"can_log"`
	ShowStart    bool             `json:"show_start"`
	Action       Action           `json:"action"`
	Availability Availability     `json:"availability"`
	NextStart    *time.Time       `json:"next_start,omitempty"`
}

// IsScheduleCurrent reports whether s is active at now: inside its inclusive window,
// open-ended and already started, or holding a running log.
func IsScheduleCurrent(s models.Schedule, now time.Time) bool {
	for _, l := range s.Logs {
		if timewindow.IsRunning(l) {
			return true
		}
	}
	if !s.StartTime.Valid {
		return false
	}
	if !s.EndTime.Valid {
		return !now.Before(s.StartTime.Time)
	}
	return timewindow.Window{Start: s.StartTime.Time, End: s.EndTime.Time}.Contains(now)
}

// ResolveCurrentSchedule searches the schedules after the first one and falls back
// to the first schedule when none of them is current. ok is false only when the
// task has no schedules.
func ResolveCurrentSchedule(task models.Task, now time.Time) (models.Schedule, bool) {
	if len(task.Schedules) == 0 {
		return models.Schedule{}, false
	}
	for _, s := range task.Schedules[1:] {
		if IsScheduleCurrent(s, now) {
			return s, true
		}
	}
	return task.Schedules[0], true
}

// CurrentLog returns the most recent log of s.
func CurrentLog(s models.Schedule) (models.Log, bool) {
	if len(s.Logs) == 0 {
		return models.Log{}, false
	}
	return s.Logs[len(s.Logs)-1], true
}

// CanLog reports whether the task status allows logging and it has a schedule.
func CanLog(task models.Task) bool {
	loggable := task.Status == models.StatusRecurring || task.Status == models.StatusInProgress
	return loggable && len(task.Schedules) > 0
}

// ShouldShowStartButton is true when there is no current log or it has ended.
func ShouldShowStartButton(current *models.Log) bool {
	return current == nil || !timewindow.IsRunning(*current)
}

// RunningLog finds a log without an end time on any schedule of the task.
func RunningLog(task models.Task) (models.Log, bool) {
	for _, s := range task.Schedules {
		for _, l := range s.Logs {
			if timewindow.IsRunning(l) {
				return l, true
			}
		}
	}
	return models.Log{}, false
}

// Resolve computes the full logging state of task at now.
func Resolve(task models.Task, now time.Time) Resolution {
	res := Resolution{TaskID: task.ID, CanLog: CanLog(task)}

	if s, ok := ResolveCurrentSchedule(task, now); ok {
		res.Schedule = &s
		if l, ok := CurrentLog(s); ok {
			res.Log = &l
		}
	}
	res.ShowStart = ShouldShowStartButton(res.Log)
	res.Action = ActionEnd
	if res.ShowStart {
		res.Action = ActionStart
	}

	switch {
	case res.CanLog:
		res.Availability = Available
	case len(task.Schedules) == 0:
		res.Availability = NoSchedule
	case hasCurrent(task, now):
		// a schedule is active but the status does not allow logging
		res.Availability = Unavailable
	default:
		res.Availability = NotActive
		if next, ok := nextStart(task, now); ok {
			res.Availability = Upcoming
			res.NextStart = &next
		}
	}
	return res
}

func nextStart(task models.Task, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, s := range task.Schedules {
		if !s.StartTime.Valid || !s.StartTime.Time.After(now) {
			continue
		}
		if !found || s.StartTime.Time.Before(next) {
			next = s.StartTime.Time
			found = true
		}
	}
	return next, found
}

func hasCurrent(task models.Task, now time.Time) bool {
	for _, s := range task.Schedules {
		if IsScheduleCurrent(s, now) {
			return true
		}
	}
	return false
}

// PrepareStart validates a log start and returns the record to create. An empty
// scheduleID selects the current schedule.
func PrepareStart(task models.Task, scheduleID models.ID, now time.Time, remarks string) (models.NewLog, error) {
	if !CanLog(task) {
		return models.NewLog{}, Invalid(ErrCannotLog)
	}

	var target *models.Schedule
	if scheduleID.IsZero() {
		s, _ := ResolveCurrentSchedule(task, now)
		target = &s
	} else {
		for i := range task.Schedules {
			if task.Schedules[i].ID == scheduleID {
				target = &task.Schedules[i]
				break
			}
		}
		if target == nil {
			return models.NewLog{}, Invalid(ErrScheduleNotFound)
		}
	}

	if _, running := RunningLog(task); running {
		return models.NewLog{}, Invalid(ErrRunningTaskExists)
	}

	return models.NewLog{
		ScheduleID: target.ID,
		TaskID:     task.ID,
		StartTime:  models.At(now.UTC()),
		EndTime:    models.Timestamp{},
		Remarks:    strings.TrimSpace(remarks),
	}, nil
}

// PrepareEnd validates closing l at endAt (now when zero) and returns the patch to
// send. A blank remark keeps the log's previous remarks.
func PrepareEnd(l models.Log, now, endAt time.Time, remarks string) (models.LogPatch, error) {
	if endAt.IsZero() {
		endAt = now
	}
	switch {
	case !timewindow.IsRunning(l):
		return models.LogPatch{}, Invalid(ErrAlreadyEnded)
	case !l.StartTime.Valid:
		return models.LogPatch{}, Invalid(ErrNotStarted)
	case l.StartTime.Time.After(now):
		return models.LogPatch{}, Invalid(ErrNotStartedYet)
	case endAt.Before(l.StartTime.Time):
		return models.LogPatch{}, Invalid(ErrEndBeforeStart)
	}

	text := strings.TrimSpace(remarks)
	if text == "" {
		text = l.Remarks
	}
	return models.LogPatch{EndTime: models.At(endAt.UTC()), Remarks: text}, nil
}

// ValidateWindow checks a new schedule's bounds.
func ValidateWindow(start, end models.Timestamp) error {
	if !start.Valid || !end.Valid || !end.Time.After(start.Time) {
		return Invalid(ErrInvalidWindow)
	}
	return nil
}

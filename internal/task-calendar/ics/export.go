// Package ics renders schedules, events and logs as an iCalendar feed.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"task-calendar/internal/models"
	"task-calendar/internal/recurrence"
)

const (
	ProductID    = "-//task-calendar//EN"
	CalendarName = "Task Calendar"
)

// Options selects what goes into the feed.
type Options struct {
	IncludeLogs bool
	Now         time.Time
}

// Source is the data a feed is built from. Schedules are taken from the nested task view.
type Source struct {
	Tasks  []models.Task
	Logs   []models.Log
	Events []models.Event
}

// Export builds the calendar. Schedules whose task carries a complete recurrence
// rule for them get an RRULE; running items end at opts.Now.
func Export(src Source, opts Options) *ical.Calendar {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(CalendarName)
	cal.SetXWRCalName(CalendarName)

	titles := map[models.ID]string{}
	for _, task := range src.Tasks {
		titles[task.ID] = task.Title
		for _, s := range task.Schedules {
			if !s.StartTime.Valid {
				continue
			}
			ev := cal.AddEvent(fmt.Sprintf("schedule-%s@task-calendar", s.ID))
			ev.SetDtStampTime(now)
			ev.SetStartAt(s.StartTime.Time.UTC())
			ev.SetEndAt(endOrNow(s.EndTime, now))
			ev.SetSummary(titleOr(task.Title))
			if task.Description != "" {
				ev.SetDescription(task.Description)
			}
			if s.Remarks != "" {
				ev.SetProperty(ical.ComponentPropertyComment, s.Remarks)
			}
			if task.Category != "" {
				ev.SetProperty(ical.ComponentPropertyCategories, task.Category)
			}
			rule, ok, err := recurrence.FromSettings(task.Settings, s.ID)
			if err != nil {
				hlog.Warnf("Skipping recurrence of schedule %s: %v", s.ID, err)
				continue
			}
			if ok && rule.IsComplete() {
				if value, err := rule.RRule(); err == nil {
					ev.SetProperty(ical.ComponentPropertyRrule, value)
				}
			}
		}
	}

	for _, e := range src.Events {
		if !e.StartTime.Valid {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("event-%s@task-calendar", e.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(e.StartTime.Time.UTC())
		ev.SetEndAt(endOrNow(e.EndTime, now))
		ev.SetSummary(titleOr(e.Title))
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Category != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
		if e.Status == models.StatusCompleted {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
		if remarks, _ := e.Indicators["remarks"].(string); remarks != "" {
			ev.SetProperty(ical.ComponentPropertyComment, remarks)
		}
	}

	if opts.IncludeLogs {
		for _, l := range src.Logs {
			if !l.StartTime.Valid {
				continue
			}
			ev := cal.AddEvent(fmt.Sprintf("log-%s@task-calendar", l.ID))
			ev.SetDtStampTime(now)
			ev.SetStartAt(l.StartTime.Time.UTC())
			ev.SetEndAt(endOrNow(l.EndTime, now))
			ev.SetSummary("Logged: " + titleOr(titles[l.TaskID]))
			if l.Remarks != "" {
				ev.SetProperty(ical.ComponentPropertyComment, l.Remarks)
			}
		}
	}
	return cal
}

func endOrNow(end models.Timestamp, now time.Time) time.Time {
	if end.Valid {
		return end.Time.UTC()
	}
	return now
}

func titleOr(title string) string {
	if title == "" {
		return "Untitled Task"
	}
	return title
}

// Render serializes the feed built by Export.
func Render(src Source, opts Options) string {
	return Export(src, opts).Serialize()
}

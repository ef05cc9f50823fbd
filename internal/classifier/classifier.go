package classifier

import (
	"fmt"
	"sort"
	"time"

	"task-calendar/internal/models"
	"task-calendar/internal/timewindow"
)

// MinDisplayMinutes is the shortest block drawn on the timeline.
const MinDisplayMinutes = 15

// Placement is how one item is drawn on a given day.
type Placement struct {
	Item          Item      `json:"item"`
	BelongsToDay  bool      `json:"belongs_to_day"`
	InProgress    bool      `json:"in_progress"`
	CarriedOver   bool      `json:"carried_over"`
	OriginalStart time.Time `json:"original_start"`
	AdjustedStart time.Time `json:"adjusted_start"`
	End           time.Time `json:"end"`
	// DurationMinutes is the real length from the original start. DisplayMinutes is
	// only for drawing and never feeds analytics.
	DurationMinutes int `json:"duration_minutes"`
	DisplayMinutes  int `json:"display_minutes"`
	TopMinutes      int `json:"top_minutes"`
}

// Classify places item on the display-zone day containing day. Items without a
// start time never belong to any day.
func Classify(item Item, day, now time.Time) Placement {
	p := Placement{Item: item}
	if !item.Start.Valid {
		return p
	}
	midnight := timewindow.StartOfDay(day)

	p.OriginalStart = timewindow.ToDisplayTime(item.Start.Time)
	p.AdjustedStart = p.OriginalStart
	p.InProgress = !item.End.Valid
	if p.InProgress {
		p.End = timewindow.ToDisplayTime(now)
	} else {
		p.End = timewindow.ToDisplayTime(item.End.Time)
	}

	p.BelongsToDay = p.InProgress ||
		timewindow.SameDay(item.Start.Time, midnight) ||
		timewindow.SameDay(item.End.Time, midnight)

	if item.Start.Time.Before(midnight) {
		p.CarriedOver = true
		p.AdjustedStart = midnight
	}

	if d := timewindow.RoundMinutes(p.End.Sub(p.OriginalStart)); d > 0 {
		p.DurationMinutes = d
	}
	p.DisplayMinutes = timewindow.RoundMinutes(p.End.Sub(p.AdjustedStart))
	if p.DisplayMinutes < MinDisplayMinutes {
		p.DisplayMinutes = MinDisplayMinutes
	}
	p.TopMinutes = int(p.AdjustedStart.Sub(timewindow.StartOfDay(p.AdjustedStart)).Minutes())
	return p
}

// ViewMode filters the day timeline.
type ViewMode string

const (
	ViewSchedules ViewMode = "schedules"
	ViewLogs      ViewMode = "logs"
	ViewBoth      ViewMode = "both"
)

// ParseViewMode accepts the three modes; an empty string means both.
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(raw) {
	case "":
		return ViewBoth, nil
	case ViewSchedules, ViewLogs, ViewBoth:
		return ViewMode(raw), nil
	}
	return "", fmt.Errorf("unknown view mode %q", raw)
}

func (m ViewMode) includes(k Kind) bool {
	switch m {
	case ViewSchedules:
		return k == KindSchedule
	case ViewLogs:
		return k == KindLog || k == KindEvent
	}
	return true
}

// Sources is everything a day timeline can draw from.
type Sources struct {
	Tasks     []models.Task
	Schedules []models.Schedule
	Logs      []models.Log
	Events    []models.Event
}

// DayTimeline returns the placements that belong to day under mode, ordered by
// adjusted start, then kind, then id.
func DayTimeline(src Sources, day, now time.Time, mode ViewMode) []Placement {
	summaries := make(map[models.ID]models.TaskSummary, len(src.Tasks))
	for _, t := range src.Tasks {
		summaries[t.ID] = t.Summary()
	}

	var items []Item
	if mode.includes(KindSchedule) {
		for _, s := range src.Schedules {
			if s.Task == nil {
				if sum, ok := summaries[s.TaskID]; ok {
					s.Task = &sum
				}
			}
			items = append(items, FromSchedule(s))
		}
	}
	if mode.includes(KindLog) {
		for _, l := range src.Logs {
			var sum *models.TaskSummary
			if found, ok := summaries[l.TaskID]; ok {
				sum = &found
			}
			items = append(items, FromLog(l, sum))
		}
	}
	if mode.includes(KindEvent) {
		for _, e := range src.Events {
			items = append(items, FromEvent(e))
		}
	}

	out := make([]Placement, 0, len(items))
	for _, item := range items {
		if p := Classify(item, day, now); p.BelongsToDay {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.AdjustedStart.Equal(b.AdjustedStart) {
			return a.AdjustedStart.Before(b.AdjustedStart)
		}
		if a.Item.Kind != b.Item.Kind {
			return a.Item.Kind < b.Item.Kind
		}
		return a.Item.ID < b.Item.ID
	})
	return out
}

package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-calendar/internal/models"
	"task-calendar/internal/timewindow"
)

// local builds an instant from display-zone wall time.
func local(day, clock string) time.Time {
	t, err := timewindow.FromDisplayTime(day + "T" + clock + ":00")
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify_MinimumDisplayDuration(t *testing.T) {
	item := FromLog(models.Log{ID: "L", StartTime: models.At(local("2024-01-10", "10:00")), EndTime: models.At(local("2024-01-10", "10:02"))}, nil)
	p := Classify(item, local("2024-01-10", "00:00"), local("2024-01-10", "18:00"))

	assert.True(t, p.BelongsToDay)
	assert.Equal(t, 2, p.DurationMinutes)
	assert.Equal(t, MinDisplayMinutes, p.DisplayMinutes)
	assert.Equal(t, 600, p.TopMinutes)
	assert.Equal(t, UntitledTask, p.Item.Title)
}

func TestClassify_InProgressClampsToNow(t *testing.T) {
	now := local("2024-01-10", "11:30")
	item := FromLog(models.Log{ID: "L", StartTime: models.At(local("2024-01-10", "10:00"))}, &models.TaskSummary{Title: "Read"})
	p := Classify(item, now, now)

	assert.True(t, p.InProgress)
	assert.True(t, p.End.Equal(now))
	assert.Equal(t, 90, p.DurationMinutes)
	assert.Equal(t, "Read", p.Item.Title)
}

func TestClassify_CarriedOver(t *testing.T) {
	day := local("2024-01-10", "12:00")
	item := FromSchedule(models.Schedule{ID: "S", StartTime: models.At(local("2024-01-09", "23:00")), EndTime: models.At(local("2024-01-10", "01:00"))})
	p := Classify(item, day, day)

	assert.True(t, p.BelongsToDay, "ends on the selected day")
	assert.True(t, p.CarriedOver)
	assert.True(t, p.OriginalStart.Equal(local("2024-01-09", "23:00")))
	assert.True(t, p.AdjustedStart.Equal(local("2024-01-10", "00:00")))
	assert.Equal(t, 0, p.TopMinutes)
	assert.Equal(t, 60, p.DisplayMinutes)
	assert.Equal(t, 120, p.DurationMinutes)
}

func TestClassify_BelongsToDay(t *testing.T) {
	day := local("2024-01-10", "00:00")
	now := local("2024-01-12", "09:00")

	other := FromEvent(models.Event{ID: "E", Title: "Trip", StartTime: models.At(local("2024-01-08", "09:00")), EndTime: models.At(local("2024-01-08", "10:00"))})
	assert.False(t, Classify(other, day, now).BelongsToDay)

	running := FromEvent(models.Event{ID: "E2", StartTime: models.At(local("2024-01-08", "09:00"))})
	assert.True(t, Classify(running, day, now).BelongsToDay, "running items stay visible")

	assert.False(t, Classify(Item{Kind: KindEvent}, day, now).BelongsToDay)
}

func TestClassify_DayBoundaryInDisplayZone(t *testing.T) {
	// 19:00Z on the 9th is 00:30 on the 10th in the display zone
	start := time.Date(2024, 1, 9, 19, 0, 0, 0, time.UTC)
	item := FromLog(models.Log{ID: "L", StartTime: models.At(start), EndTime: models.At(start.Add(time.Hour))}, nil)
	p := Classify(item, local("2024-01-10", "12:00"), start.Add(2*time.Hour))
	assert.True(t, p.BelongsToDay)
	assert.False(t, p.CarriedOver)
	assert.Equal(t, 30, p.TopMinutes)
}

func TestFromEvent_RemarksFromIndicators(t *testing.T) {
	item := FromEvent(models.Event{ID: "E", Indicators: map[string]any{"remarks": "went well"}})
	assert.Equal(t, "went well", item.Remarks)
	assert.Equal(t, UntitledTask, item.Title)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, ViewBoth, m)
	m, err = ParseViewMode("logs")
	require.NoError(t, err)
	assert.Equal(t, ViewLogs, m)
	_, err = ParseViewMode("weeks")
	assert.Error(t, err)
}

func TestDayTimeline(t *testing.T) {
	day := local("2024-01-10", "00:00")
	now := local("2024-01-10", "12:00")
	src := Sources{
		Tasks: []models.Task{{ID: "T", Title: "Deep work"}},
		Schedules: []models.Schedule{
			{ID: "S1", TaskID: "T", StartTime: models.At(local("2024-01-10", "09:00")), EndTime: models.At(local("2024-01-10", "10:00"))},
			{ID: "S0", TaskID: "T", StartTime: models.At(local("2024-01-11", "09:00")), EndTime: models.At(local("2024-01-11", "10:00"))},
		},
		Logs: []models.Log{
			{ID: "L1", TaskID: "T", ScheduleID: "S1", StartTime: models.At(local("2024-01-10", "09:05")), EndTime: models.At(local("2024-01-10", "09:50"))},
		},
		Events: []models.Event{
			{ID: "E1", Title: "Lunch", StartTime: models.At(local("2024-01-10", "08:00")), EndTime: models.At(local("2024-01-10", "08:30"))},
		},
	}

	both := DayTimeline(src, day, now, ViewBoth)
	require.Len(t, both, 3)
	assert.Equal(t, models.ID("E1"), both[0].Item.ID)
	assert.Equal(t, models.ID("S1"), both[1].Item.ID)
	assert.Equal(t, "Deep work", both[1].Item.Title)
	assert.Equal(t, models.ID("L1"), both[2].Item.ID)
	assert.Equal(t, "Deep work", both[2].Item.Title)

	schedulesOnly := DayTimeline(src, day, now, ViewSchedules)
	require.Len(t, schedulesOnly, 1)
	assert.Equal(t, KindSchedule, schedulesOnly[0].Item.Kind)

	logsOnly := DayTimeline(src, day, now, ViewLogs)
	require.Len(t, logsOnly, 2)
	for _, p := range logsOnly {
		assert.NotEqual(t, KindSchedule, p.Item.Kind)
	}
}

package resolver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-calendar/internal/models"
)

func at(hhmm string) time.Time {
	t, err := time.Parse(time.RFC3339, "2024-01-01T"+hhmm+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func schedule(id, start, end string, logs ...models.Log) models.Schedule {
	return models.Schedule{
		ID:        models.ID(id),
		TaskID:    "T",
		StartTime: models.At(at(start)),
		EndTime:   models.At(at(end)),
		Logs:      logs,
	}
}

func task(status models.Status, schedules ...models.Schedule) models.Task {
	return models.Task{ID: "T", Title: "Deep work", Status: status, Schedules: schedules}
}

func TestResolveCurrentSchedule_SkipsFirst(t *testing.T) {
	tk := task(models.StatusRecurring, schedule("S1", "09:00", "10:00"), schedule("S2", "14:00", "15:00"))

	got, ok := ResolveCurrentSchedule(tk, at("14:30"))
	require.True(t, ok)
	assert.Equal(t, models.ID("S2"), got.ID)

	got, ok = ResolveCurrentSchedule(tk, at("09:30"))
	require.True(t, ok)
	assert.Equal(t, models.ID("S1"), got.ID, "falls back to the first schedule")

	got, _ = ResolveCurrentSchedule(tk, at("20:00"))
	assert.Equal(t, models.ID("S1"), got.ID)

	_, ok = ResolveCurrentSchedule(task(models.StatusRecurring), at("09:00"))
	assert.False(t, ok)
}

func TestIsScheduleCurrent(t *testing.T) {
	s := schedule("S", "09:00", "10:00")
	assert.True(t, IsScheduleCurrent(s, at("09:00")), "start bound is inclusive")
	assert.True(t, IsScheduleCurrent(s, at("10:00")), "end bound is inclusive")
	assert.False(t, IsScheduleCurrent(s, at("10:01")))
	assert.False(t, IsScheduleCurrent(s, at("08:59")))

	open := models.Schedule{ID: "O", StartTime: models.At(at("09:00"))}
	assert.True(t, IsScheduleCurrent(open, at("23:00")))
	assert.False(t, IsScheduleCurrent(open, at("08:00")))
}

func TestIsScheduleCurrent_RunningLogOverridesWindow(t *testing.T) {
	s := schedule("S", "09:00", "10:00", models.Log{ID: "L", StartTime: models.At(at("09:00"))})
	assert.True(t, IsScheduleCurrent(s, at("11:00")))

	closed := schedule("S", "09:00", "10:00", models.Log{ID: "L", StartTime: models.At(at("09:00")), EndTime: models.At(at("09:30"))})
	assert.False(t, IsScheduleCurrent(closed, at("11:00")))
}

func TestCanLog(t *testing.T) {
	s := schedule("S", "09:00", "10:00")
	assert.True(t, CanLog(task(models.StatusRecurring, s)))
	assert.True(t, CanLog(task(models.StatusInProgress, s)))
	assert.False(t, CanLog(task(models.StatusPending, s)))
	assert.False(t, CanLog(task(models.StatusRecurring)))
}

func TestStartEndStateMachine(t *testing.T) {
	s := schedule("S1", "09:00", "10:00")
	tk := task(models.StatusInProgress, s)

	res := Resolve(tk, at("09:10"))
	assert.True(t, res.ShowStart)
	assert.Equal(t, ActionStart, res.Action)

	draft, err := PrepareStart(tk, "", at("09:10"), "  focus  ")
	require.NoError(t, err)
	assert.False(t, draft.EndTime.Valid)
	assert.Equal(t, models.ID("S1"), draft.ScheduleID)
	assert.Equal(t, "focus", draft.Remarks)

	created := models.Log{ID: "L1", ScheduleID: draft.ScheduleID, TaskID: draft.TaskID, StartTime: draft.StartTime, Remarks: draft.Remarks}
	tk.Schedules[0].Logs = append(tk.Schedules[0].Logs, created)

	res = Resolve(tk, at("09:20"))
	assert.False(t, res.ShowStart)
	assert.Equal(t, ActionEnd, res.Action)
	require.NotNil(t, res.Log)
	assert.Equal(t, models.ID("L1"), res.Log.ID)

	end := at("09:40")
	patch, err := PrepareEnd(created, end, time.Time{}, "")
	require.NoError(t, err)
	assert.True(t, patch.EndTime.Time.Equal(end))
	assert.Equal(t, "focus", patch.Remarks, "blank remarks keep the previous value")

	tk.Schedules[0].Logs[0].EndTime = patch.EndTime
	res = Resolve(tk, at("09:45"))
	assert.True(t, res.ShowStart)
}

func TestPrepareStart_SingleRunningLog(t *testing.T) {
	running := models.Log{ID: "L1", ScheduleID: "S1", StartTime: models.At(at("09:00"))}
	tk := task(models.StatusRecurring, schedule("S1", "09:00", "10:00", running), schedule("S2", "14:00", "15:00"))

	_, err := PrepareStart(tk, "S2", at("14:10"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunningTaskExists))
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Please end the running task first.", err.Error())
}

func TestPrepareStart_Rejections(t *testing.T) {
	_, err := PrepareStart(task(models.StatusCompleted, schedule("S1", "09:00", "10:00")), "", at("09:00"), "")
	assert.ErrorIs(t, err, ErrCannotLog)

	_, err = PrepareStart(task(models.StatusRecurring, schedule("S1", "09:00", "10:00")), "nope", at("09:00"), "")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestPrepareEnd_Order(t *testing.T) {
	now := at("12:00")

	_, err := PrepareEnd(models.Log{StartTime: models.At(at("10:00")), EndTime: models.At(at("11:00"))}, now, time.Time{}, "")
	assert.ErrorIs(t, err, ErrAlreadyEnded)

	_, err = PrepareEnd(models.Log{}, now, time.Time{}, "")
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = PrepareEnd(models.Log{StartTime: models.At(at("13:00"))}, now, time.Time{}, "")
	assert.ErrorIs(t, err, ErrNotStartedYet)

	_, err = PrepareEnd(models.Log{StartTime: models.At(at("10:00"))}, now, at("09:00"), "")
	assert.ErrorIs(t, err, ErrEndBeforeStart)
	assert.Equal(t, "End time cannot be before start time.", err.Error())

	patch, err := PrepareEnd(models.Log{StartTime: models.At(at("10:00")), Remarks: "old"}, now, at("11:30"), " new ")
	require.NoError(t, err)
	assert.Equal(t, "new", patch.Remarks)
	assert.True(t, patch.EndTime.Time.Equal(at("11:30")))
}

func TestResolve_Availability(t *testing.T) {
	res := Resolve(task(models.StatusRecurring), at("09:00"))
	assert.Equal(t, NoSchedule, res.Availability)
	assert.False(t, res.CanLog)

	res = Resolve(task(models.StatusPending, schedule("S1", "09:00", "10:00"), schedule("S2", "14:00", "15:00")), at("11:00"))
	assert.Equal(t, Upcoming, res.Availability)
	require.NotNil(t, res.NextStart)
	assert.True(t, res.NextStart.Equal(at("14:00")))

	res = Resolve(task(models.StatusPending, schedule("S1", "09:00", "10:00")), at("11:00"))
	assert.Equal(t, NotActive, res.Availability)

	res = Resolve(task(models.StatusPending, schedule("S1", "09:00", "10:00")), at("09:30"))
	assert.Equal(t, Unavailable, res.Availability)

	res = Resolve(task(models.StatusInProgress, schedule("S1", "09:00", "10:00")), at("11:00"))
	assert.Equal(t, Available, res.Availability)
}

func TestValidateWindow(t *testing.T) {
	assert.NoError(t, ValidateWindow(models.At(at("09:00")), models.At(at("10:00"))))
	assert.ErrorIs(t, ValidateWindow(models.At(at("10:00")), models.At(at("10:00"))), ErrInvalidWindow)
	assert.ErrorIs(t, ValidateWindow(models.At(at("10:00")), models.Timestamp{}), ErrInvalidWindow)
}

func TestInvalid_KeepsExistingValidationError(t *testing.T) {
	err := Invalid(ErrAlreadyEnded)
	assert.Same(t, err, Invalid(err))
	assert.Nil(t, Invalid(nil))
	assert.Equal(t, "custom", Invalid(errors.New("custom")).Error())
}

package store

import (
	"task-calendar/internal/models"
)

// tables is the normalized fact set. Rows never carry nested children; nesting is
// rebuilt on read from the order indexes.
type tables struct {
	tasks     map[models.ID]models.Task
	taskOrder []models.ID

	schedules     map[models.ID]models.Schedule
	taskSchedules map[models.ID][]models.ID
	scheduleView  []models.ID

	logs         map[models.ID]models.Log
	scheduleLogs map[models.ID][]models.ID
	logView      []models.ID

	events     map[models.ID]models.Event
	eventOrder []models.ID
}

func newTables() *tables {
	return &tables{
		tasks:         map[models.ID]models.Task{},
		schedules:     map[models.ID]models.Schedule{},
		taskSchedules: map[models.ID][]models.ID{},
		logs:          map[models.ID]models.Log{},
		scheduleLogs:  map[models.ID][]models.ID{},
		events:        map[models.ID]models.Event{},
	}
}

func appendUnique(ids []models.ID, id models.ID) []models.ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func indexOf(ids []models.ID, id models.ID) int {
	for i, existing := range ids {
		if existing == id {
			return i
		}
	}
	return -1
}

func (t *tables) putTask(task models.Task) {
	row := task.Clone()
	row.Schedules = nil
	t.tasks[task.ID] = row
	t.taskOrder = appendUnique(t.taskOrder, task.ID)
	for _, s := range task.Schedules {
		if s.TaskID.IsZero() {
			s.TaskID = task.ID
		}
		t.putSchedule(s)
	}
}

func removeID(ids []models.ID, id models.ID) []models.ID {
	if i := indexOf(ids, id); i >= 0 {
		return append(ids[:i:i], ids[i+1:]...)
	}
	return ids
}

func (t *tables) putSchedule(s models.Schedule) {
	if old, ok := t.schedules[s.ID]; ok && old.TaskID != s.TaskID {
		t.taskSchedules[old.TaskID] = removeID(t.taskSchedules[old.TaskID], s.ID)
	}
	row := s.Clone()
	row.Logs = nil
	t.schedules[s.ID] = row
	if !s.TaskID.IsZero() {
		t.taskSchedules[s.TaskID] = appendUnique(t.taskSchedules[s.TaskID], s.ID)
	}
	for _, l := range s.Logs {
		if l.ScheduleID.IsZero() {
			l.ScheduleID = s.ID
		}
		if l.TaskID.IsZero() {
			l.TaskID = s.TaskID
		}
		t.putLog(l)
	}
}

func (t *tables) putLog(l models.Log) {
	if old, ok := t.logs[l.ID]; ok && old.ScheduleID != l.ScheduleID {
		t.scheduleLogs[old.ScheduleID] = removeID(t.scheduleLogs[old.ScheduleID], l.ID)
	}
	t.logs[l.ID] = l
	t.scheduleLogs[l.ScheduleID] = appendUnique(t.scheduleLogs[l.ScheduleID], l.ID)
}

func (t *tables) putEvent(e models.Event) {
	t.events[e.ID] = e.Clone()
	t.eventOrder = appendUnique(t.eventOrder, e.ID)
}

func (t *tables) buildSchedule(id models.ID) (models.Schedule, bool) {
	row, ok := t.schedules[id]
	if !ok {
		return models.Schedule{}, false
	}
	s := row.Clone()
	if task, ok := t.tasks[s.TaskID]; ok {
		summary := task.Summary()
		s.Task = &summary
	}
	s.Logs = make([]models.Log, 0, len(t.scheduleLogs[id]))
	for _, lid := range t.scheduleLogs[id] {
		if l, ok := t.logs[lid]; ok {
			s.Logs = append(s.Logs, l)
		}
	}
	return s, true
}

func (t *tables) buildTask(id models.ID) (models.Task, bool) {
	row, ok := t.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	task := row.Clone()
	task.Schedules = make([]models.Schedule, 0, len(t.taskSchedules[id]))
	for _, sid := range t.taskSchedules[id] {
		if s, ok := t.buildSchedule(sid); ok {
			// nested schedules do not repeat the parent summary
			s.Task = nil
			task.Schedules = append(task.Schedules, s)
		}
	}
	return task, true
}

func (t *tables) taskList() []models.Task {
	out := make([]models.Task, 0, len(t.taskOrder))
	for _, id := range t.taskOrder {
		if task, ok := t.buildTask(id); ok {
			out = append(out, task)
		}
	}
	return out
}

func (t *tables) scheduleList() []models.Schedule {
	out := make([]models.Schedule, 0, len(t.scheduleView))
	for _, id := range t.scheduleView {
		if s, ok := t.buildSchedule(id); ok {
			out = append(out, s)
		}
	}
	return out
}

func (t *tables) logList() []models.Log {
	out := make([]models.Log, 0, len(t.logView))
	for _, id := range t.logView {
		if l, ok := t.logs[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (t *tables) eventList() []models.Event {
	out := make([]models.Event, 0, len(t.eventOrder))
	for _, id := range t.eventOrder {
		if e, ok := t.events[id]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

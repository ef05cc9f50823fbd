package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"task-calendar/internal/models"
	"task-calendar/internal/recurrence"
	"task-calendar/internal/resolver"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/services"
	"task-calendar/internal/timewindow"
)

type TaskHandler struct {
	Tasks *services.TaskService
	Logs  *services.LogService
	Store *store.Store
	Now   func() time.Time
}

func NewTaskHandler(tasks *services.TaskService, logs *services.LogService, st *store.Store) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Logs: logs, Store: st}
}

type CreateScheduleRequest struct {
	StartTime  models.Timestamp `json:"start_time"`
	EndTime    models.Timestamp `json:"end_time"`
	Remarks    string           `json:"remarks"`
	Recurrence *recurrence.Rule `json:"recurrence"`
}

type StartLogRequest struct {
	ScheduleID models.ID `json:"schedule_id"`
	Remarks    string    `json:"remarks"`
}

type EndLogRequest struct {
	Remarks string           `json:"remarks"`
	EndTime models.Timestamp `json:"end_time"`
}

// TaskView is a task with its derived logging state.
type TaskView struct {
	models.Task
	Resolution resolver.Resolution `json:"resolution"`
	Recurrence string              `json:"recurrence,omitempty"`
}

func now(f func() time.Time) time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

func taskView(task models.Task, at time.Time) TaskView {
	view := TaskView{Task: task, Resolution: resolver.Resolve(task, at)}
	if view.Resolution.Schedule != nil {
		rule, ok, err := recurrence.FromSettings(task.Settings, view.Resolution.Schedule.ID)
		if err == nil && ok {
			view.Recurrence = rule.Describe()
		}
	}
	return view
}

func (h *TaskHandler) GetTasks(ctx context.Context, c *app.RequestContext) {
	tasks := h.Store.Tasks()
	if status := c.Query("status"); status != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if string(t.Status) == status {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	if category := c.Query("category"); category != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if strings.EqualFold(t.Category, category) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(ctx context.Context, c *app.RequestContext) {
	task, ok := h.Store.Task(models.ID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, utils.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, taskView(task, now(h.Now)))
}

func (h *TaskHandler) CreateTask(ctx context.Context, c *app.RequestContext) {
	var req models.NewTask
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	task, err := h.Tasks.CreateTask(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(ctx context.Context, c *app.RequestContext) {
	var req models.TaskPatch
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	task, err := h.Tasks.UpdateTask(ctx, models.ID(c.Param("id")), req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateSchedule(ctx context.Context, c *app.RequestContext) {
	var req CreateScheduleRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	taskID := models.ID(c.Param("id"))
	sched, err := h.Tasks.CreateSchedule(ctx, taskID, models.NewSchedule{
		TaskID:    taskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Remarks:   strings.TrimSpace(req.Remarks),
	}, req.Recurrence)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (h *TaskHandler) SetRecurrence(ctx context.Context, c *app.RequestContext) {
	var rule recurrence.Rule
	if err := c.BindAndValidate(&rule); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	task, err := h.Tasks.SetRecurrence(ctx, models.ID(c.Param("id")), models.ID(c.Param("scheduleId")), rule)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"task": task, "summary": rule.Normalize().Describe()})
}

func (h *TaskHandler) StartLog(ctx context.Context, c *app.RequestContext) {
	var req StartLogRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	l, err := h.Logs.StartLog(ctx, models.ID(c.Param("id")), req.ScheduleID, req.Remarks)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	hlog.CtxInfof(ctx, "Started log %s at %s", l.ID, timewindow.FormatDisplay(l.StartTime.Time))
	c.JSON(http.StatusCreated, l)
}

func (h *TaskHandler) EndLog(ctx context.Context, c *app.RequestContext) {
	var req EndLogRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	var endAt time.Time
	if req.EndTime.Valid {
		endAt = req.EndTime.Time
	}
	l, err := h.Logs.EndLog(ctx, models.ID(c.Param("id")), req.Remarks, endAt)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, utils.H{
		"log":     l,
		"minutes": timewindow.DurationMinutes(l.StartTime, l.EndTime),
	})
}

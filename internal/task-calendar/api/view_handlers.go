package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"task-calendar/internal/classifier"
	"task-calendar/internal/models"
	"task-calendar/internal/store"
	taskDB "task-calendar/internal/task-calendar/db"
	"task-calendar/internal/task-calendar/ics"
	"task-calendar/internal/timewindow"
)

// DailyTotaler reads per-day logged minutes.
type DailyTotaler interface {
	DailyTotals(ctx context.Context, day time.Time) ([]taskDB.DailyTotal, error)
}

// ViewHandler serves the read-only projections: flat lists, the day timeline,
// the calendar feed and the detail selection.
type ViewHandler struct {
	Store     *store.Store
	Analytics DailyTotaler
	Now       func() time.Time
}

func NewViewHandler(st *store.Store, analytics DailyTotaler) *ViewHandler {
	return &ViewHandler{Store: st, Analytics: analytics}
}

type SelectRequest struct {
	TaskID models.ID `json:"task_id"`
}

func (h *ViewHandler) day(c *app.RequestContext) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return timewindow.StartOfDay(now(h.Now)), true
	}
	day, err := timewindow.ParseDay(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}

func (h *ViewHandler) GetSchedules(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, h.Store.Schedules())
}

func (h *ViewHandler) GetLogs(ctx context.Context, c *app.RequestContext) {
	logs := h.Store.Logs()
	if c.Query("running") == "true" {
		filtered := logs[:0]
		for _, l := range logs {
			if l.Running() {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}
	c.JSON(http.StatusOK, logs)
}

func (h *ViewHandler) GetTimeline(ctx context.Context, c *app.RequestContext) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	mode, err := classifier.ParseViewMode(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	placements := classifier.DayTimeline(classifier.Sources{
		Tasks:     h.Store.Tasks(),
		Schedules: h.Store.Schedules(),
		Logs:      h.Store.Logs(),
		Events:    h.Store.Events(),
	}, day, now(h.Now), mode)
	if placements == nil {
		placements = []classifier.Placement{}
	}
	c.JSON(http.StatusOK, utils.H{
		"date":  timewindow.FormatDay(day),
		"view":  mode,
		"items": placements,
	})
}

func (h *ViewHandler) GetCalendar(ctx context.Context, c *app.RequestContext) {
	includeLogs, _ := strconv.ParseBool(c.Query("logs"))
	body := ics.Render(ics.Source{
		Tasks:  h.Store.Tasks(),
		Logs:   h.Store.Logs(),
		Events: h.Store.Events(),
	}, ics.Options{IncludeLogs: includeLogs, Now: now(h.Now)})
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (h *ViewHandler) GetSelection(ctx context.Context, c *app.RequestContext) {
	task, ok := h.Store.SelectedTask()
	if !ok {
		c.JSON(http.StatusOK, utils.H{"task": nil})
		return
	}
	c.JSON(http.StatusOK, utils.H{"task": taskView(task, now(h.Now))})
}

func (h *ViewHandler) PutSelection(ctx context.Context, c *app.RequestContext) {
	var req SelectRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if !h.Store.Select(req.TaskID) {
		c.JSON(http.StatusNotFound, utils.H{"error": "Task not found"})
		return
	}
	h.GetSelection(ctx, c)
}

func (h *ViewHandler) GetCategories(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, models.Categories)
}

func (h *ViewHandler) GetDailyAnalytics(ctx context.Context, c *app.RequestContext) {
	if h.Analytics == nil {
		c.JSON(http.StatusServiceUnavailable, utils.H{"error": "Analytics are not enabled"})
		return
	}
	day, ok := h.day(c)
	if !ok {
		return
	}
	totals, err := h.Analytics.DailyTotals(ctx, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to fetch analytics: " + err.Error()})
		return
	}
	minutes := 0
	for _, t := range totals {
		minutes += t.Minutes
	}
	c.JSON(http.StatusOK, utils.H{
		"date":    timewindow.FormatDay(day),
		"minutes": minutes,
		"totals":  totals,
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/route"

	"task-calendar/internal/task-calendar/services"
)

// Refresher runs one reconciliation pass on demand.
type Refresher interface {
	RefreshAll(ctx context.Context) (services.RefreshResult, error)
}

type AdminHandler struct {
	Refresh Refresher
}

func (h *AdminHandler) TriggerRefresh(ctx context.Context, c *app.RequestContext) {
	res, err := h.Refresh.RefreshAll(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if res.Unauthorized {
		c.JSON(http.StatusOK, utils.H{"result": res, "redirect": LoginPath})
		return
	}
	c.JSON(http.StatusOK, utils.H{"result": res})
}

// Handlers groups everything Register wires.
type Handlers struct {
	Tasks  *TaskHandler
	Events *EventHandler
	Views  *ViewHandler
	Admin  *AdminHandler
}

func Register(r route.IRouter, h Handlers) {
	r.GET("/ping", func(c context.Context, ctxReq *app.RequestContext) {
		ctxReq.JSON(http.StatusOK, utils.H{"message": "pong"})
	})

	taskGroup := r.Group("/tasks")
	{
		taskGroup.GET("", h.Tasks.GetTasks)
		taskGroup.POST("", h.Tasks.CreateTask)
		taskGroup.GET("/:id", h.Tasks.GetTaskByID)
		taskGroup.PUT("/:id", h.Tasks.UpdateTask)
		taskGroup.POST("/:id/schedules", h.Tasks.CreateSchedule)
		taskGroup.PUT("/:id/schedules/:scheduleId/recurrence", h.Tasks.SetRecurrence)
		taskGroup.POST("/:id/logs/start", h.Tasks.StartLog)
	}
	r.POST("/logs/:id/end", h.Tasks.EndLog)

	eventGroup := r.Group("/events")
	{
		eventGroup.GET("", h.Events.GetEvents)
		eventGroup.POST("", h.Events.CreateEvent)
		eventGroup.POST("/:id/end", h.Events.EndEvent)
	}

	r.GET("/schedules", h.Views.GetSchedules)
	r.GET("/logs", h.Views.GetLogs)
	r.GET("/timeline", h.Views.GetTimeline)
	r.GET("/calendar.ics", h.Views.GetCalendar)
	r.GET("/selection", h.Views.GetSelection)
	r.PUT("/selection", h.Views.PutSelection)
	r.GET("/categories", h.Views.GetCategories)
	r.GET("/analytics/daily", h.Views.GetDailyAnalytics)

	if h.Admin != nil {
		adminGroup := r.Group("/admin")
		adminGroup.POST("/refresh", h.Admin.TriggerRefresh)
	}
}

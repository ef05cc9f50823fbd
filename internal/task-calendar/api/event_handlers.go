package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
	"task-calendar/internal/task-calendar/services"
)

type EventHandler struct {
	Events *services.EventService
	Store  *store.Store
}

func NewEventHandler(events *services.EventService, st *store.Store) *EventHandler {
	return &EventHandler{Events: events, Store: st}
}

type EndEventRequest struct {
	Remarks string `json:"remarks"`
}

func (h *EventHandler) GetEvents(ctx context.Context, c *app.RequestContext) {
	events := h.Store.Events()
	if status := c.Query("status"); status != "" {
		filtered := events[:0]
		for _, e := range events {
			if string(e.Status) == status {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) CreateEvent(ctx context.Context, c *app.RequestContext) {
	var req models.NewEvent
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	e, err := h.Events.CreateEvent(ctx, req)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EventHandler) EndEvent(ctx context.Context, c *app.RequestContext) {
	var req EndEventRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	e, err := h.Events.EndEvent(ctx, models.ID(c.Param("id")), req.Remarks)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

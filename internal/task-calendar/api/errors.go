package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"task-calendar/internal/recurrence"
	"task-calendar/internal/resolver"
	"task-calendar/internal/task-calendar/backend"
	"task-calendar/internal/task-calendar/services"
)

// LoginPath is where the UI sends the user when the collaborator rejects the token.
const LoginPath = "/login"

// statusFor maps a service error onto the HTTP status returned to the UI.
func statusFor(err error) int {
	switch {
	case backend.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrActionPending), errors.Is(err, resolver.ErrRunningTaskExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case resolver.IsValidation(err), errors.Is(err, recurrence.ErrInvalidRule):
		return http.StatusBadRequest
	case backend.StatusOf(err) != 0, errors.Is(err, backend.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := statusFor(err)
	body := utils.H{"error": err.Error()}
	switch status {
	case http.StatusUnauthorized:
		body["redirect"] = LoginPath
	case http.StatusBadGateway:
		if code := backend.StatusOf(err); code != 0 {
			body["backend_status"] = code
		}
	}
	if status >= http.StatusInternalServerError {
		hlog.CtxErrorf(ctx, "%s %s failed: %v", c.Method(), c.Path(), err)
	}
	c.JSON(status, body)
}

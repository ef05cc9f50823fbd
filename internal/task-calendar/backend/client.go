// Package backend is the REST client for the task collaborator. Every call is a
// single request with no retries; failures are returned to the caller unchanged.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"task-calendar/internal/models"
	"task-calendar/internal/timewindow"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultLimit   = 100
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token. An empty token always fails with ErrUnauthorized.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", unauthorized("No token found")
	}
	return string(t), nil
}

// Range selects a date window and a page of a windowed collection.
type Range struct {
	Start time.Time
	End   time.Time
	Skip  int
	Limit int
}

// DefaultRange is yesterday through tomorrow in the display zone, first page of 100.
func DefaultRange(now time.Time) Range {
	today := timewindow.StartOfDay(now)
	return Range{Start: today.AddDate(0, 0, -1), End: today.AddDate(0, 0, 1), Limit: DefaultLimit}
}

func (r Range) query() url.Values {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set("start_date", timewindow.FormatDay(r.Start))
	}
	if !r.End.IsZero() {
		q.Set("end_date", timewindow.FormatDay(r.End))
	}
	q.Set("skip", strconv.Itoa(r.Skip))
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	return q
}

type Client struct {
	baseURL string
	http    *client.Client
	tokens  TokenSource
	timeout time.Duration
}

// NewClient builds a client for the collaborator at baseURL.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tokens:  tokens,
		timeout: timeout,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		req.SetBody(payload)
	}

	if err := c.http.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		hlog.CtxWarnf(ctx, "backend %s %s (request %s) failed: %v", method, path, requestID, err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		apiErr := errorFromResponse(status, resp.Body())
		hlog.CtxWarnf(ctx, "backend %s %s (request %s) returned %d: %s", method, path, requestID, status, apiErr.Error())
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, consts.MethodGet, "/task", nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := c.do(ctx, consts.MethodGet, "/task-schedule", nil, nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *Client) ListSchedulesInRange(ctx context.Context, r Range) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := c.do(ctx, consts.MethodGet, "/task-schedule/duration", r.query(), nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *Client) ListLogsInRange(ctx context.Context, r Range) ([]models.Log, error) {
	var logs []models.Log
	if err := c.do(ctx, consts.MethodGet, "/task-log/duration", r.query(), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) ListEventsInRange(ctx context.Context, r Range) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, consts.MethodGet, "/event/duration", r.query(), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, consts.MethodPost, "/task", nil, in, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id models.ID, patch models.TaskPatch) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, consts.MethodPut, "/task/"+url.PathEscape(id.String()), nil, patch, &task)
	return task, err
}

func (c *Client) CreateSchedule(ctx context.Context, in models.NewSchedule) (models.Schedule, error) {
	var schedule models.Schedule
	err := c.do(ctx, consts.MethodPost, "/task-schedule", nil, in, &schedule)
	return schedule, err
}

func (c *Client) CreateLog(ctx context.Context, in models.NewLog) (models.Log, error) {
	var l models.Log
	err := c.do(ctx, consts.MethodPost, "/task-log", nil, in, &l)
	return l, err
}

func (c *Client) UpdateLog(ctx context.Context, id models.ID, patch models.LogPatch) (models.Log, error) {
	var l models.Log
	err := c.do(ctx, consts.MethodPut, "/task-log/"+url.PathEscape(id.String()), nil, patch, &l)
	return l, err
}

func (c *Client) CreateEvent(ctx context.Context, in models.NewEvent) (models.Event, error) {
	var e models.Event
	err := c.do(ctx, consts.MethodPost, "/event", nil, in, &e)
	return e, err
}

func (c *Client) UpdateEvent(ctx context.Context, id models.ID, patch models.EventPatch) (models.Event, error) {
	var e models.Event
	err := c.do(ctx, consts.MethodPut, "/event/"+url.PathEscape(id.String()), nil, patch, &e)
	return e, err
}

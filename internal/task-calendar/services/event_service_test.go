package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"task-calendar/internal/models"
	"task-calendar/internal/resolver"
)

func TestEndEvent(t *testing.T) {
	b := &mockBackend{}
	st := seededStore()
	svc := NewEventService(b, st, NewActionGuard())
	svc.Now = clockAt(fixedNow)

	b.On("UpdateEvent", mock.Anything, models.ID("E1"), models.EventPatch{
		Status:     models.StatusCompleted,
		EndTime:    models.At(fixedNow),
		Indicators: map[string]any{"remarks": "went fine"},
	}).Return(models.Event{}, nil)

	e, err := svc.EndEvent(context.Background(), "E1", " went fine ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, e.Status)
	assert.True(t, e.EndTime.Valid)

	stored, _ := st.Event("E1")
	assert.Equal(t, "went fine", stored.Indicators["remarks"])
	b.AssertExpectations(t)
}

func TestEndEvent_AlreadyCompleted(t *testing.T) {
	b := &mockBackend{}
	svc := NewEventService(b, seededStore(), NewActionGuard())
	svc.Now = clockAt(fixedNow)

	_, err := svc.EndEvent(context.Background(), "E2", "")
	assert.ErrorIs(t, err, resolver.ErrAlreadyEnded)
	_, err = svc.EndEvent(context.Background(), "E404", "")
	assert.ErrorIs(t, err, ErrNotFound)
	b.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEvent(t *testing.T) {
	b := &mockBackend{}
	st := seededStore()
	svc := NewEventService(b, st, NewActionGuard())
	svc.Now = clockAt(fixedNow)

	b.On("CreateEvent", mock.Anything, mock.MatchedBy(func(in models.NewEvent) bool {
		return in.Title == "Walk" && in.Status == models.StatusPending && in.StartTime.Time.Equal(fixedNow)
	})).Return(models.Event{ID: "E3", Title: "Walk", StartTime: models.At(fixedNow)}, nil)

	e, err := svc.CreateEvent(context.Background(), models.NewEvent{Title: "Walk"})
	require.NoError(t, err)
	assert.Equal(t, models.ID("E3"), e.ID)
	assert.Len(t, st.Events(), 3)

	_, err = svc.CreateEvent(context.Background(), models.NewEvent{Title: "Back", StartTime: ts(12, 0), EndTime: ts(11, 0)})
	assert.ErrorIs(t, err, resolver.ErrInvalidWindow)
}

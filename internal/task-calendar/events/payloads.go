// Package events defines the log change feed messages and their protobuf wire form.
package events

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"task-calendar/internal/models"
	"task-calendar/internal/store"
)

// LogChangePayload announces a log created or updated by one client so the others
// can fan it out without waiting for their next refresh.
type LogChangePayload struct {
	Origin     string
	Kind       store.ChangeKind
	Log        models.Log
	Category   string
	OccurredAt time.Time
}

var ErrMalformedPayload = errors.New("malformed log change payload")

func (p LogChangePayload) fields() map[string]any {
	return map[string]any{
		"origin":           p.Origin,
		"kind":             string(p.Kind),
		"category":         p.Category,
		"occurred_at":      p.OccurredAt.UTC().Format(time.RFC3339Nano),
		"id":               p.Log.ID.String(),
		"task_schedule_id": p.Log.ScheduleID.String(),
		"task_id":          p.Log.TaskID.String(),
		"start_time":       timestampField(p.Log.StartTime),
		"end_time":         timestampField(p.Log.EndTime),
		"remarks":          p.Log.Remarks,
	}
}

func timestampField(ts models.Timestamp) any {
	if !ts.Valid {
		return nil
	}
	return ts.String()
}

// Marshal encodes the payload as a protobuf Struct.
func (p LogChangePayload) Marshal() ([]byte, error) {
	st, err := structpb.NewStruct(p.fields())
	if err != nil {
		return nil, fmt.Errorf("build log change struct: %w", err)
	}
	return proto.Marshal(st)
}

// Key is the Kafka message key; changes to one log stay on one partition.
func (p LogChangePayload) Key() []byte {
	return []byte(p.Log.ID.String())
}

// UnmarshalLogChange decodes a payload produced by Marshal.
func UnmarshalLogChange(data []byte) (LogChangePayload, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return LogChangePayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	m := st.AsMap()
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	p := LogChangePayload{
		Origin:   str("origin"),
		Kind:     store.ChangeKind(str("kind")),
		Category: str("category"),
		Log: models.Log{
			ID:         models.ID(str("id")),
			ScheduleID: models.ID(str("task_schedule_id")),
			TaskID:     models.ID(str("task_id")),
			StartTime:  models.ParseTimestamp(str("start_time")),
			EndTime:    models.ParseTimestamp(str("end_time")),
			Remarks:    str("remarks"),
		},
	}
	if t, err := time.Parse(time.RFC3339Nano, str("occurred_at")); err == nil {
		p.OccurredAt = t
	}
	if p.Log.ID.IsZero() {
		return LogChangePayload{}, fmt.Errorf("%w: missing log id", ErrMalformedPayload)
	}
	switch p.Kind {
	case store.Created, store.Updated:
	default:
		return LogChangePayload{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedPayload, p.Kind)
	}
	return p, nil
}

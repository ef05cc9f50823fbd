package models

// CloneMap deep-copies a free-form JSON map so callers never share nested maps or slices.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []int:
		return append([]int(nil), val...)
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// Clone returns a deep copy of the log.
func (l Log) Clone() Log { return l }

// Clone returns a deep copy of the schedule including its logs and task summary.
func (s Schedule) Clone() Schedule {
	out := s
	if s.Logs != nil {
		out.Logs = append([]Log(nil), s.Logs...)
	}
	if s.Task != nil {
		summary := *s.Task
		out.Task = &summary
	}
	return out
}

// Clone returns a deep copy of the task including nested schedules.
func (t Task) Clone() Task {
	out := t
	out.Settings = CloneMap(t.Settings)
	out.Indicators = CloneMap(t.Indicators)
	if t.Schedules != nil {
		out.Schedules = make([]Schedule, len(t.Schedules))
		for i, s := range t.Schedules {
			out.Schedules[i] = s.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.Indicators = CloneMap(e.Indicators)
	return out
}

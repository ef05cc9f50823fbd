package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is an instant that may be absent. The collaborator and older clients
// send null, "", "Invalid Date" or garbage for "no end time"; all of these decode
// to an invalid Timestamp instead of failing the whole payload.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// At returns a valid Timestamp for t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// Ptr returns the instant or nil when absent.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// FromPtr is the inverse of Ptr.
func FromPtr(t *time.Time) Timestamp {
	if t == nil {
		return Timestamp{}
	}
	return At(*t)
}

// Equal compares two timestamps by instant, treating two absent values as equal.
func (ts Timestamp) Equal(other Timestamp) bool {
	if ts.Valid != other.Valid {
		return false
	}
	return !ts.Valid || ts.Time.Equal(other.Time)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an RFC 3339 instant. Strings without an offset are taken as UTC.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "Invalid Date" {
		return Timestamp{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return At(t.UTC())
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return At(t)
		}
	}
	return Timestamp{}
}

// String renders the instant in UTC, or "" when absent.
func (ts Timestamp) String() string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.UTC().Format(time.RFC3339Nano)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// numbers, objects and the like are not instants
		*ts = Timestamp{}
		return nil
	}
	*ts = ParseTimestamp(raw)
	return nil
}

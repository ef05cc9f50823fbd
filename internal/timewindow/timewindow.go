// Package timewindow holds the pure time helpers shared by the resolver, the classifier
// and the HTTP layer. Instants are stored and compared in UTC; DisplayLocation is only
// used for rendering and for deciding which calendar day an instant falls on.
package timewindow

import (
	"fmt"
	"math"
	"time"

	"task-calendar/internal/models"
)

const (
	// DisplayZoneName is the fixed user-facing timezone.
	DisplayZoneName = "Asia/Kolkata"
	// DisplayLayout renders local wall time without an offset.
	DisplayLayout = "2006-01-02T15:04:05"
	// DateLayout is the day format used by query parameters and windowed fetches.
	DateLayout = "2006-01-02"
)

// DisplayLocation is UTC+05:30. India has no DST, so a fixed zone avoids a tzdata dependency.
var DisplayLocation = time.FixedZone(DisplayZoneName, 5*60*60+30*60)

// Window spans Start to End. Contains includes both bounds; Overlaps treats
// End as exclusive, so windows that only touch do not overlap.
type Window struct {
	Start time.Time
	End   time.Time
}

// ToDisplayTime converts a UTC instant into display wall time.
func ToDisplayTime(t time.Time) time.Time {
	return t.In(DisplayLocation)
}

// FormatDisplay renders an instant as display wall time, e.g. 2024-03-01T10:00:00.
func FormatDisplay(t time.Time) string {
	return ToDisplayTime(t).Format(DisplayLayout)
}

// FromDisplayTime parses display wall time back to a UTC instant.
func FromDisplayTime(local string) (time.Time, error) {
	t, err := time.ParseInLocation(DisplayLayout, local, DisplayLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse display time %q: %w", local, err)
	}
	return t.UTC(), nil
}

// ParseInstant accepts an RFC 3339 instant or display wall time and returns it in UTC.
func ParseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return FromDisplayTime(raw)
}

// ParseDay parses a YYYY-MM-DD day in the display zone and returns its midnight.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, DisplayLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", raw, err)
	}
	return t, nil
}

// FormatDay renders the display-zone calendar day of t.
func FormatDay(t time.Time) string {
	return ToDisplayTime(t).Format(DateLayout)
}

// StartOfDay returns display-zone midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	local := ToDisplayTime(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, DisplayLocation)
}

// Day returns the display-zone window covering the calendar day that contains t.
func Day(t time.Time) Window {
	start := StartOfDay(t)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// SameDay reports whether a and b fall on the same display-zone calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DurationMinutes returns the rounded whole minutes between start and end,
// or 0 when either bound is absent.
func DurationMinutes(start, end models.Timestamp) int {
	if !start.Valid || !end.Valid {
		return 0
	}
	return RoundMinutes(end.Time.Sub(start.Time))
}

// RoundMinutes rounds half up, so -0.5 rounds to 0 and 2.5 rounds to 3.
func RoundMinutes(d time.Duration) int {
	return int(math.Floor(d.Minutes() + 0.5))
}

// IsRunning reports whether a log has no usable end time.
func IsRunning(l models.Log) bool {
	return !l.EndTime.Valid
}

// Overlaps reports whether two windows share any instant.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether t lies in [w.Start, w.End] inclusive of both bounds.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Package recurrence models how a schedule repeats. A Rule is stored metadata only:
// nothing here materializes future schedules, it answers "is this day covered" and
// renders the rule for export.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"task-calendar/internal/timewindow"
)

type Pattern string

const (
	Daily   Pattern = "daily"
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
	Yearly  Pattern = "yearly"
)

// Valid reports whether p is one of the four supported patterns.
func (p Pattern) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

var (
	ErrInvalidRule      = errors.New("invalid recurrence rule")
	ErrInvalidPattern   = fmt.Errorf("%w: pattern must be daily, weekly, monthly or yearly", ErrInvalidRule)
	ErrInvalidInterval  = fmt.Errorf("%w: interval must be at least 1", ErrInvalidRule)
	ErrInvalidSelection = fmt.Errorf("%w: selection out of range", ErrInvalidRule)
)

// Rule is the recurrence configuration attached to a schedule.
//
// SelectedDays holds weekday indices with 0 = Monday through 6 = Sunday.
// SelectedMonthDays holds days of the month 1-31.
// SelectedMonths holds month indices with 0 = January through 11 = December.
// Only the set matching Pattern is meaningful.
type Rule struct {
	Pattern           Pattern `json:"pattern"`
	Interval          int     `json:"interval"`
	SelectedDays      []int   `json:"selectedDays"`
	SelectedMonthDays []int   `json:"selectedMonthDays"`
	SelectedMonths    []int   `json:"selectedMonths"`
}

// Normalize clears the selection sets the pattern does not use, sorts and
// de-duplicates the active one, and defaults a zero interval to 1.
func (r Rule) Normalize() Rule {
	out := Rule{Pattern: r.Pattern, Interval: r.Interval}
	if out.Interval == 0 {
		out.Interval = 1
	}
	out.SelectedDays = []int{}
	out.SelectedMonthDays = []int{}
	out.SelectedMonths = []int{}
	switch r.Pattern {
	case Weekly:
		out.SelectedDays = uniqueSorted(r.SelectedDays)
	case Monthly:
		out.SelectedMonthDays = uniqueSorted(r.SelectedMonthDays)
	case Yearly:
		out.SelectedMonths = uniqueSorted(r.SelectedMonths)
	}
	return out
}

// Validate checks the pattern, the interval and the range of the active selection.
// An empty selection is valid; see IsComplete.
func (r Rule) Validate() error {
	if !r.Pattern.Valid() {
		return fmt.Errorf("%w (got %q)", ErrInvalidPattern, r.Pattern)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidInterval, r.Interval)
	}
	switch r.Pattern {
	case Weekly:
		return checkRange("selectedDays", r.SelectedDays, 0, 6)
	case Monthly:
		return checkRange("selectedMonthDays", r.SelectedMonthDays, 1, 31)
	case Yearly:
		return checkRange("selectedMonths", r.SelectedMonths, 0, 11)
	}
	return nil
}

// IsComplete reports whether the rule is valid and, for non-daily patterns,
// has at least one selected value.
func (r Rule) IsComplete() bool {
	if r.Validate() != nil {
		return false
	}
	switch r.Pattern {
	case Weekly:
		return len(r.SelectedDays) > 0
	case Monthly:
		return len(r.SelectedMonthDays) > 0
	case Yearly:
		return len(r.SelectedMonths) > 0
	}
	return true
}

// IsDayIncluded reports whether the display-zone calendar day of date is covered.
// The interval is not applied.
func (r Rule) IsDayIncluded(date time.Time) bool {
	local := timewindow.ToDisplayTime(date)
	switch r.Pattern {
	case Daily:
		return true
	case Weekly:
		return contains(r.SelectedDays, WeekdayIndex(local.Weekday()))
	case Monthly:
		return contains(r.SelectedMonthDays, local.Day())
	case Yearly:
		return contains(r.SelectedMonths, int(local.Month())-1)
	}
	return false
}

// WeekdayIndex maps a Go weekday onto the Monday-first index used by rules.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Describe renders a short human label, e.g. "Every 2 weeks on Mon, Wed".
func (r Rule) Describe() string {
	unit := map[Pattern]string{Daily: "day", Weekly: "week", Monthly: "month", Yearly: "year"}[r.Pattern]
	if unit == "" {
		return "Does not repeat"
	}
	var b strings.Builder
	if r.Interval <= 1 {
		b.WriteString("Every " + unit)
	} else {
		fmt.Fprintf(&b, "Every %d %ss", r.Interval, unit)
	}
	var parts []string
	switch r.Pattern {
	case Weekly:
		for _, d := range r.SelectedDays {
			if d >= 0 && d < len(weekdayNames) {
				parts = append(parts, weekdayNames[d])
			}
		}
	case Monthly:
		for _, d := range r.SelectedMonthDays {
			parts = append(parts, ordinal(d))
		}
	case Yearly:
		for _, m := range r.SelectedMonths {
			if m >= 0 && m < 12 {
				parts = append(parts, time.Month(m+1).String())
			}
		}
	}
	if len(parts) > 0 {
		b.WriteString(" on " + strings.Join(parts, ", "))
	}
	return b.String()
}

func ordinal(n int) string {
	suffix := "th"
	if n <= 3 || n >= 21 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func checkRange(field string, values []int, lo, hi int) error {
	for _, v := range values {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s value %d not in [%d, %d]", ErrInvalidSelection, field, v, lo, hi)
		}
	}
	return nil
}

func uniqueSorted(values []int) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

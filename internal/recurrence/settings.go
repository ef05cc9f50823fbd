package recurrence

import (
	"encoding/json"
	"fmt"

	"task-calendar/internal/models"
	"task-calendar/pkg/validation"
)

// SettingsKey is the task settings entry holding rules keyed by schedule id.
const SettingsKey = "recurrence"

// Schema is the JSON schema a rule document must satisfy before it is stored.
const Schema = `{
	"type": "object",
	"properties": {
		"pattern": {"type": "string", "enum": ["daily", "weekly", "monthly", "yearly"]},
		"interval": {"type": "integer", "minimum": 1},
		"selectedDays": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}},
		"selectedMonthDays": {"type": "array", "items": {"type": "integer", "minimum": 1, "maximum": 31}},
		"selectedMonths": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 11}}
	},
	"required": ["pattern", "interval"]
}`

// CheckDocument validates a raw rule document against Schema.
func CheckDocument(doc string) error {
	if err := validation.ValidateJSONWithSchema(Schema, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// FromSettings reads the rule stored for scheduleID. Older tasks keep a single
// rule directly under settings.recurrence; that rule applies to every schedule.
func FromSettings(settings map[string]any, scheduleID models.ID) (Rule, bool, error) {
	raw, ok := settings[SettingsKey].(map[string]any)
	if !ok {
		return Rule{}, false, nil
	}
	var entry any = raw[scheduleID.String()]
	if entry == nil {
		if _, legacy := raw["pattern"]; !legacy {
			return Rule{}, false, nil
		}
		entry = raw
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return Rule{}, false, fmt.Errorf("encode stored recurrence: %w", err)
	}
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return Rule{}, false, fmt.Errorf("decode stored recurrence for schedule %s: %w", scheduleID, err)
	}
	return r, true, nil
}

// WithRule returns a copy of settings with the rule for scheduleID set. A legacy
// task-wide rule is dropped because it is superseded by per-schedule entries.
func WithRule(settings map[string]any, scheduleID models.ID, r Rule) (map[string]any, error) {
	data, err := json.Marshal(r.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode recurrence: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode recurrence: %w", err)
	}

	out := models.CloneMap(settings)
	if out == nil {
		out = map[string]any{}
	}
	rules, ok := out[SettingsKey].(map[string]any)
	if !ok {
		rules = map[string]any{}
	}
	if _, legacy := rules["pattern"]; legacy {
		rules = map[string]any{}
	}
	rules[scheduleID.String()] = doc
	out[SettingsKey] = rules
	return out, nil
}

package recurrence

import (
	"fmt"

	"github.com/teambition/rrule-go"
)

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

var frequencies = map[Pattern]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

// ROption converts the rule into rrule-go options without a DTSTART.
func (r Rule) ROption() (*rrule.ROption, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	n := r.Normalize()
	opt := &rrule.ROption{
		Freq:     frequencies[n.Pattern],
		Interval: n.Interval,
	}
	for _, d := range n.SelectedDays {
		opt.Byweekday = append(opt.Byweekday, weekdays[d])
	}
	opt.Bymonthday = append(opt.Bymonthday, n.SelectedMonthDays...)
	for _, m := range n.SelectedMonths {
		opt.Bymonth = append(opt.Bymonth, m+1)
	}
	return opt, nil
}

// RRule renders the rule as an RFC 5545 RRULE value, e.g. FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE.
func (r Rule) RRule() (string, error) {
	opt, err := r.ROption()
	if err != nil {
		return "", err
	}
	return opt.String(), nil
}

// FromRRule parses an RRULE value back into a Rule. Parts the rule model has no
// room for (COUNT, UNTIL, BYHOUR, ...) are dropped.
func FromRRule(value string) (Rule, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	var r Rule
	for p, f := range frequencies {
		if f == opt.Freq {
			r.Pattern = p
		}
	}
	if r.Pattern == "" {
		return Rule{}, fmt.Errorf("%w (frequency %v)", ErrInvalidPattern, opt.Freq)
	}
	r.Interval = opt.Interval
	for _, wd := range opt.Byweekday {
		r.SelectedDays = append(r.SelectedDays, wd.Day())
	}
	r.SelectedMonthDays = append(r.SelectedMonthDays, opt.Bymonthday...)
	for _, m := range opt.Bymonth {
		r.SelectedMonths = append(r.SelectedMonths, m-1)
	}
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

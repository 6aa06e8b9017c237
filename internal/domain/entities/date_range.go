package entities

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// DayLayout is the calendar day format used for custom ranges and day buckets.
const DayLayout = "2006-01-02"

// RangePreset names a report date window.
type RangePreset string

const (
	RangeToday  RangePreset = "today"
	RangeWeek   RangePreset = "week"
	RangeMonth  RangePreset = "month"
	RangeYear   RangePreset = "year"
	RangeCustom RangePreset = "custom"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of calendar days the range spans, never less than one.
func (r DateRange) Days() int {
	return SpanDays(r.Start, r.End)
}

// SpanDays returns max(1, ceil((end-start)/24h)).
func SpanDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// ParseRangePreset maps a user supplied name to a preset. An empty name
// selects today.
func ParseRangePreset(name string) (RangePreset, error) {
	switch preset := RangePreset(strings.ToLower(strings.TrimSpace(name))); preset {
	case "":
		return RangeToday, nil
	case RangeToday, RangeWeek, RangeMonth, RangeYear, RangeCustom:
		return preset, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown date range %q", name))
	}
}

// ResolveRange turns a preset into concrete bounds relative to now. Custom
// ranges use start and end, which are widened to whole days before they are
// compared; the other presets ignore them.
func ResolveRange(preset RangePreset, now, start, end time.Time) (DateRange, error) {
	endOfToday := EndOfDay(now)

	switch preset {
	case RangeToday, "":
		return DateRange{Start: StartOfDay(now), End: endOfToday}, nil
	case RangeWeek:
		return DateRange{Start: StartOfDay(now.AddDate(0, 0, -7)), End: endOfToday}, nil
	case RangeMonth:
		y, m, _ := now.Date()
		return DateRange{Start: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), End: endOfToday}, nil
	case RangeYear:
		return DateRange{Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), End: endOfToday}, nil
	case RangeCustom:
		if start.IsZero() || end.IsZero() {
			return DateRange{}, apperrors.NewValidationError("custom range needs both a start and an end date")
		}
		r := DateRange{Start: StartOfDay(start), End: EndOfDay(end)}
		if r.Start.After(r.End) {
			return DateRange{}, apperrors.NewInvalidDateRangeError(
				fmt.Sprintf("start %s is after end %s", start.Format(DayLayout), end.Format(DayLayout)))
		}
		return r, nil
	default:
		return DateRange{}, apperrors.NewValidationError(fmt.Sprintf("unknown date range %q", preset))
	}
}

// ParseDate reads either a calendar day (2006-01-02) in loc or an RFC 3339
// timestamp. An empty string yields the zero time.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(DayLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD or RFC 3339", value))
	}
	return t.In(loc), nil
}

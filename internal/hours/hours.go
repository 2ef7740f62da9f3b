// Package hours evaluates per-weekday business-hours windows.
//
// Every function here is pure: the caller supplies the schedule and the
// current time, and the result depends on nothing else. Times are evaluated
// in their own location; callers convert to the configured zone first.
package hours

import (
	"time"

	"github.com/ppiankov/offhours/internal/model"
)

// IsWithinBusinessHours reports whether now falls inside the window of its weekday.
//
// Both bounds are inclusive. When start > end the window wraps past midnight
// and covers [start, 23:59] plus [00:00, end] of the same weekday. A disabled
// day is never open. start == end yields a single open minute.
func IsWithinBusinessHours(schedule model.WeeklySchedule, now time.Time) bool {
	return DayOpen(schedule.Day(now.Weekday()), model.TimeOfDayOf(now))
}

// DayOpen applies the window rule of one day to a minute of that day.
func DayOpen(ds model.DaySchedule, at model.TimeOfDay) bool {
	if !ds.Enabled {
		return false
	}
	if ds.Start <= ds.End {
		return ds.Start <= at && at <= ds.End
	}
	return at >= ds.Start || at <= ds.End
}

// NextOpening returns the first minute after now at which the schedule goes
// from closed to open, searching one week ahead. ok is false when every day
// is disabled or the schedule never closes.
func NextOpening(schedule model.WeeklySchedule, now time.Time) (time.Time, bool) {
	now = now.Truncate(time.Minute)
	for offset := 0; offset <= 7; offset++ {
		day := time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, now.Location())
		ds := schedule.Day(day.Weekday())
		if !ds.Enabled {
			continue
		}
		for _, start := range intervalStarts(ds) {
			at := day.Add(time.Duration(start) * time.Minute)
			if !at.After(now) {
				continue
			}
			if !IsWithinBusinessHours(schedule, at.Add(-time.Minute)) {
				return at, true
			}
		}
	}
	return time.Time{}, false
}

func intervalStarts(ds model.DaySchedule) []model.TimeOfDay {
	if ds.Overnight() {
		return []model.TimeOfDay{0, ds.Start}
	}
	return []model.TimeOfDay{ds.Start}
}

// Describe renders a day's window for display.
func Describe(ds model.DaySchedule) string {
	if !ds.Enabled {
		return "closed"
	}
	s := ds.Start.String() + "-" + ds.End.String()
	if ds.Overnight() {
		s += " (overnight)"
	}
	return s
}

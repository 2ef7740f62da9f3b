package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds TimeOfDay: valid values are 0..MinutesPerDay-1.
const MinutesPerDay = 24 * 60

// TimeOfDay is minutes since local midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute pair.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// TimeOfDayOf returns the wall-clock minute of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("time of day %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time of day %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q: minute out of range", s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// DaySchedule is the business-hours window for one weekday.
// Start > End means the window wraps past midnight.
type DaySchedule struct {
	Enabled bool      `json:"enabled" yaml:"enabled"`
	Start   TimeOfDay `json:"start" yaml:"start"`
	End     TimeOfDay `json:"end" yaml:"end"`
}

// Overnight reports whether the window wraps past midnight.
func (d DaySchedule) Overnight() bool {
	return d.Start > d.End
}

// DefaultDaySchedule is an enabled 09:00-17:00 window.
func DefaultDaySchedule() DaySchedule {
	return DaySchedule{
		Enabled: true,
		Start:   NewTimeOfDay(9, 0),
		End:     NewTimeOfDay(17, 0),
	}
}

// WeeklySchedule maps weekdays to their windows. Absent days use DefaultDaySchedule.
type WeeklySchedule map[time.Weekday]DaySchedule

// DefaultWeeklySchedule returns the default window for every weekday.
func DefaultWeeklySchedule() WeeklySchedule {
	ws := make(WeeklySchedule, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		ws[d] = DefaultDaySchedule()
	}
	return ws
}

// Day returns the schedule for d, falling back to the default window.
func (w WeeklySchedule) Day(d time.Weekday) DaySchedule {
	if ds, ok := w[d]; ok {
		return ds
	}
	return DefaultDaySchedule()
}

// DayName returns the lower-case weekday name used in setting keys.
func DayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseWeekday accepts full or three-letter weekday names, any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := DayName(d)
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

package hours

import (
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/model"
)

// 2026-10-12 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
}

func mondayOnly(ds model.DaySchedule) model.WeeklySchedule {
	ws := model.DefaultWeeklySchedule()
	ws[time.Monday] = ds
	return ws
}

func TestSameDayWindowMatchesInclusiveRange(t *testing.T) {
	windows := []model.DaySchedule{
		{Enabled: true, Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(17, 0)},
		{Enabled: true, Start: 0, End: 1439},
		{Enabled: true, Start: model.NewTimeOfDay(12, 30), End: model.NewTimeOfDay(12, 30)},
		{Enabled: true, Start: 0, End: 0},
	}
	for _, ds := range windows {
		ws := mondayOnly(ds)
		for m := 0; m < model.MinutesPerDay; m++ {
			now := at(12, m/60, m%60)
			want := int(ds.Start) <= m && m <= int(ds.End)
			if got := IsWithinBusinessHours(ws, now); got != want {
				t.Fatalf("window %s minute %d: got %v, want %v", Describe(ds), m, got, want)
			}
		}
	}
}

func TestOvernightWindowWraps(t *testing.T) {
	windows := []model.DaySchedule{
		{Enabled: true, Start: model.NewTimeOfDay(22, 0), End: model.NewTimeOfDay(6, 0)},
		{Enabled: true, Start: 1439, End: 0},
		{Enabled: true, Start: model.NewTimeOfDay(0, 1), End: 0},
	}
	for _, ds := range windows {
		ws := mondayOnly(ds)
		for m := 0; m < model.MinutesPerDay; m++ {
			now := at(12, m/60, m%60)
			want := m >= int(ds.Start) || m <= int(ds.End)
			if got := IsWithinBusinessHours(ws, now); got != want {
				t.Fatalf("window %s minute %d: got %v, want %v", Describe(ds), m, got, want)
			}
		}
	}
}

func TestDisabledDayNeverOpen(t *testing.T) {
	for _, ds := range []model.DaySchedule{
		{Enabled: false, Start: 0, End: 1439},
		{Enabled: false, Start: model.NewTimeOfDay(22, 0), End: model.NewTimeOfDay(6, 0)},
	} {
		ws := mondayOnly(ds)
		for m := 0; m < model.MinutesPerDay; m++ {
			if IsWithinBusinessHours(ws, at(12, m/60, m%60)) {
				t.Fatalf("disabled day open at minute %d", m)
			}
		}
	}
}

func TestUsesWeekdayOfNow(t *testing.T) {
	ws := model.DefaultWeeklySchedule()
	ws[time.Tuesday] = model.DaySchedule{Enabled: true, Start: model.NewTimeOfDay(22, 0), End: model.NewTimeOfDay(6, 0)}

	if !IsWithinBusinessHours(ws, at(13, 2, 0)) {
		t.Error("Tue 02:00 should be open under Tuesday's overnight window")
	}
	if IsWithinBusinessHours(ws, at(13, 12, 0)) {
		t.Error("Tue 12:00 should be closed")
	}
	if !IsWithinBusinessHours(ws, at(12, 10, 0)) {
		t.Error("Mon 10:00 should be open under the default window")
	}
}

func TestMissingDayUsesDefault(t *testing.T) {
	ws := model.WeeklySchedule{}
	if !IsWithinBusinessHours(ws, at(14, 9, 0)) {
		t.Error("09:00 should be open by default")
	}
	if IsWithinBusinessHours(ws, at(14, 17, 1)) {
		t.Error("17:01 should be closed by default")
	}
}

func TestNextOpening(t *testing.T) {
	ws := model.DefaultWeeklySchedule()
	ws[time.Saturday] = model.DaySchedule{Enabled: false}
	ws[time.Sunday] = model.DaySchedule{Enabled: false}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday evening", at(12, 20, 0), at(13, 9, 0)},
		{"monday early", at(12, 7, 30), at(12, 9, 0)},
		{"friday evening skips weekend", at(16, 18, 0), at(19, 9, 0)},
		{"during hours finds tomorrow", at(12, 10, 0), at(13, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOpening(ws, tt.now)
			if !ok || !got.Equal(tt.want) {
				t.Errorf("NextOpening = %v, %v; want %v", got, ok, tt.want)
			}
		})
	}
}

func TestNextOpeningOvernightContinuation(t *testing.T) {
	ws := model.WeeklySchedule{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		ws[d] = model.DaySchedule{Enabled: true, Start: model.NewTimeOfDay(22, 0), End: model.NewTimeOfDay(6, 0)}
	}
	got, ok := NextOpening(ws, at(12, 12, 0))
	if !ok || !got.Equal(at(12, 22, 0)) {
		t.Errorf("NextOpening = %v, %v; want Mon 22:00", got, ok)
	}
}

func TestNextOpeningNeverOpen(t *testing.T) {
	ws := model.WeeklySchedule{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		ws[d] = model.DaySchedule{Enabled: false}
	}
	if _, ok := NextOpening(ws, at(12, 12, 0)); ok {
		t.Error("expected no opening")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(model.DaySchedule{}); got != "closed" {
		t.Errorf("Describe(disabled) = %q", got)
	}
	if got := Describe(model.DefaultDaySchedule()); got != "09:00-17:00" {
		t.Errorf("Describe(default) = %q", got)
	}
	ds := model.DaySchedule{Enabled: true, Start: model.NewTimeOfDay(22, 0), End: model.NewTimeOfDay(6, 0)}
	if got := Describe(ds); got != "22:00-06:00 (overnight)" {
		t.Errorf("Describe(overnight) = %q", got)
	}
}

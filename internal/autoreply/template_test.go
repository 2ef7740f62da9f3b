package autoreply

import (
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/model"
)

func TestRender(t *testing.T) {
	data := Data{Sender: "+1555", Opens: "Mon 09:00", Day: "saturday"}
	cases := []struct {
		text, want string
	}{
		{"We are closed.", "We are closed."},
		{"Back {{.Opens}}", "Back Mon 09:00"},
		{"Hi {{.Sender}}, it's {{.Day}}", "Hi +1555, it's saturday"},
		{"broken {{.Opens", "broken {{.Opens"},
		{"unknown {{.Nope}}", "unknown {{.Nope}}"},
	}
	for _, tc := range cases {
		if got := Render(tc.text, data); got != tc.want {
			t.Errorf("Render(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestNewData(t *testing.T) {
	// Saturday evening; weekend days disabled.
	ws := model.DefaultWeeklySchedule()
	ws[time.Saturday] = model.DaySchedule{}
	ws[time.Sunday] = model.DaySchedule{}

	d := NewData("+1555", ws, time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC))
	if d.Day != "saturday" {
		t.Errorf("day = %q", d.Day)
	}
	if d.Opens != "Mon 09:00" {
		t.Errorf("opens = %q, want Mon 09:00", d.Opens)
	}
}

func TestNewDataNeverOpens(t *testing.T) {
	ws := model.WeeklySchedule{}
	for _, day := range []time.Weekday{0, 1, 2, 3, 4, 5, 6} {
		ws[day] = model.DaySchedule{}
	}
	if d := NewData("x", ws, time.Now()); d.Opens != "" {
		t.Errorf("opens = %q, want empty", d.Opens)
	}
}

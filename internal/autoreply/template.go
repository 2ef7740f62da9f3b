package autoreply

import (
	"strings"
	"text/template"
	"time"

	"github.com/ppiankov/offhours/internal/hours"
	"github.com/ppiankov/offhours/internal/model"
)

// Data is the template context for a reply.
type Data struct {
	Sender string

	// Opens is the next opening as "Mon 09:00", empty when no day is enabled.
	Opens string

	// Day is the lowercase weekday the message arrived on.
	Day string
}

// NewData builds the template context for a message received at at.
func NewData(sender string, schedule model.WeeklySchedule, at time.Time) Data {
	d := Data{Sender: sender, Day: model.DayName(at.Weekday())}
	if next, ok := hours.NextOpening(schedule, at); ok {
		d.Opens = next.Format("Mon 15:04")
	}
	return d
}

// Render executes text as a template over data. Text that fails to parse
// or execute is returned unchanged.
func Render(text string, data Data) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("reply").Option("missingkey=error").Parse(text)
	if err != nil {
		return text
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return text
	}
	return b.String()
}

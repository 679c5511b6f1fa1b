package layout

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/beekhof/dashboard/internal/calendar"
)

// dayKeys maps time.Weekday (Sunday = 0) to grid bucket names.
var dayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Grid describes the weekly grid's geometry: the first displayed hour,
// the pixel height of one hour, and the columns it shows.
type Grid struct {
	StartHour  int
	HourHeight int
	Days       []string
}

// DefaultGrid is the dashboard's grid: seven columns starting at 07:00,
// 30px per hour.
func DefaultGrid() Grid {
	return Grid{StartHour: 7, HourHeight: 30, Days: dayKeys[:]}
}

// Placement is an event's computed position within the grid.
type Placement struct {
	Day    string
	Top    float64
	Height float64
}

// Place computes the grid position for one event. The day bucket comes
// from the start timestamp's local weekday; ok is false when the grid has
// no column for that day, which callers treat as a silent skip.
//
// Events that cross midnight are not split across days: they keep the
// start day's bucket and the raw (possibly negative) height the clock
// arithmetic produces. Changing that is a product decision, not a bug
// fix.
func (g Grid) Place(ev calendar.Event) (Placement, bool) {
	day := dayKeys[int(ev.Start.Weekday())]
	if !g.hasDay(day) {
		return Placement{}, false
	}

	hour := float64(g.HourHeight)
	top := float64(ev.Start.Hour()-g.StartHour)*hour + float64(ev.Start.Minute())/60*hour

	durationHours := float64(ev.End.Hour()-ev.Start.Hour()) + float64(ev.End.Minute()-ev.Start.Minute())/60

	return Placement{Day: day, Top: top, Height: durationHours * hour}, true
}

func (g Grid) hasDay(day string) bool {
	for _, d := range g.Days {
		if d == day {
			return true
		}
	}
	return false
}

// placedEvent is the template's view of one positioned event.
type placedEvent struct {
	Title   string
	Link    string
	Tooltip string
	Top     string
	Height  string
	Color   Color
}

// dayColumn is the template's view of one grid column.
type dayColumn struct {
	Day    string
	Events []placedEvent
}

var weekTemplate = template.Must(template.New("week").Parse(`<div class="calendar-week">
{{- range . }}
  <div class="calendar-day" data-day="{{ .Day }}">
    <div class="day-label">{{ .Day }}</div>
    <div class="day-grid">
    {{- range .Events }}
      <a class="calendar-event" href="{{ .Link }}" target="_blank" rel="noopener" title="{{ .Tooltip }}" style="top: {{ .Top }}px; height: {{ .Height }}px; background-color: {{ .Color.Background }}; color: {{ .Color.Foreground }}">{{ .Title }}</a>
    {{- end }}
    </div>
  </div>
{{- end }}
</div>
`))

// RenderWeek renders the full grid fragment for a week of events. The
// fragment replaces whatever was rendered before it, so rendering the
// same input twice yields the same single set of blocks. Events whose
// day has no grid column are skipped silently.
func (g Grid) RenderWeek(events []calendar.Event) (template.HTML, error) {
	columns := make([]dayColumn, len(g.Days))
	index := make(map[string]int, len(g.Days))
	for i, day := range g.Days {
		columns[i] = dayColumn{Day: day}
		index[day] = i
	}

	for _, ev := range events {
		pl, ok := g.Place(ev)
		if !ok {
			continue
		}

		tooltip := fmt.Sprintf("%s\n%s – %s", ev.Title, formatClock(ev.Start), formatClock(ev.End))
		i := index[pl.Day]
		columns[i].Events = append(columns[i].Events, placedEvent{
			Title:   ev.Title,
			Link:    ev.Link,
			Tooltip: tooltip,
			Top:     formatPx(pl.Top),
			Height:  formatPx(pl.Height),
			Color:   ColorFor(ev.Color),
		})
	}

	var buf bytes.Buffer
	if err := weekTemplate.Execute(&buf, columns); err != nil {
		return "", fmt.Errorf("failed to render week grid: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

func formatPx(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

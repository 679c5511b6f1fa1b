package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

// ExportICS serializes a week's events as an iCalendar feed so other
// calendar applications can subscribe to the dashboard's view.
func ExportICS(events []Event) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dashboard//week export//EN")

	now := time.Now()
	for _, ev := range events {
		item := cal.AddEvent(ev.ID)
		item.SetDtStampTime(now)
		item.SetStartAt(ev.Start)
		item.SetEndAt(ev.End)
		item.SetSummary(ev.Title)
		if ev.Link != "" {
			item.SetURL(ev.Link)
		}
	}

	return cal.Serialize()
}

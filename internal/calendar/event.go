// Package calendar fetches the current week's events from the Google
// Calendar API and normalizes them for the dashboard.
package calendar

import (
	"errors"
	"time"
)

// ErrAuthRequired is returned when an operation needs a token bundle and
// the session has none.
var ErrAuthRequired = errors.New("authentication required")

// Event is a normalized calendar event. Events are immutable once
// fetched and live for a single render cycle.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Link  string    `json:"link"`
	Color string    `json:"color"`
}

// WeekWindow computes the boundaries of the calendar week containing now:
// Monday 00:00:00.000 through Sunday 23:59:59.999 in now's location. A
// Sunday belongs to the week that started the previous Monday.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7

	year, month, day := now.Date()
	start := time.Date(year, month, day-daysSinceMonday, 0, 0, 0, 0, now.Location())

	sunday := start.AddDate(0, 0, 6)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 999000000, now.Location())

	return start, end
}

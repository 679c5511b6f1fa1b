package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client is a wrapper around the Google Calendar API service for one
// authenticated user.
type Client struct {
	service *calendar.Service
	loc     *time.Location
}

// NewClient creates a new Google Calendar API client using the provided
// HTTP client. Extra options are appended after the HTTP client option,
// which lets tests point the service at a fake endpoint.
func NewClient(ctx context.Context, httpClient *http.Client, loc *time.Location, opts ...option.ClientOption) (*Client, error) {
	allOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := calendar.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	return &Client{service: service, loc: loc}, nil
}

// FetchWeek retrieves the primary calendar's events for the week
// containing now, with recurring events expanded to individual instances
// and results ordered chronologically.
func (c *Client) FetchWeek(ctx context.Context, now time.Time) ([]Event, error) {
	start, end := WeekWindow(now.In(c.loc))

	list, err := c.service.Events.List("primary").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true). // Expand recurring events
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, normalize(item, c.loc))
	}
	return events, nil
}

// normalize converts an upstream item into the dashboard Event shape:
// id and link pass through, the title may be empty, timestamps prefer the
// precise DateTime field over the date-only fallback, and the color
// defaults to identifier "1" when the item has none.
func normalize(item *calendar.Event, loc *time.Location) Event {
	ev := Event{
		ID:    item.Id,
		Title: item.Summary,
		Link:  item.HtmlLink,
		Color: item.ColorId,
	}
	if ev.Color == "" {
		ev.Color = "1"
	}
	ev.Start = parseEventTime(item.Start, loc)
	ev.End = parseEventTime(item.End, loc)
	return ev
}

func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return ts.In(loc)
		}
	}
	if edt.Date != "" {
		if ts, err := time.ParseInLocation("2006-01-02", edt.Date, loc); err == nil {
			return ts
		}
	}
	return time.Time{}
}

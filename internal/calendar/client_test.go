package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestFetchWeek_QueriesWindowAndNormalizes(t *testing.T) {
	var gotQuery map[string]string

	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"kind": "calendar#events",
			"items": [
				{
					"id": "evt-1",
					"summary": "Team standup",
					"htmlLink": "https://calendar.google.com/event?eid=evt-1",
					"colorId": "9",
					"start": {"dateTime": "2025-01-15T09:00:00Z"},
					"end": {"dateTime": "2025-01-15T10:30:00Z"}
				},
				{
					"id": "evt-2",
					"start": {"date": "2025-01-16"},
					"end": {"date": "2025-01-17"}
				}
			]
		}`)
	}))
	defer fake.Close()

	client, err := NewClient(context.Background(), fake.Client(), time.UTC, option.WithEndpoint(fake.URL))
	if err != nil {
		t.Fatalf("NewClient() returned an error: %v", err)
	}

	now := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	events, err := client.FetchWeek(context.Background(), now)
	if err != nil {
		t.Fatalf("FetchWeek() returned an error: %v", err)
	}

	if gotQuery["singleEvents"] != "true" {
		t.Errorf("Expected singleEvents=true, got %q", gotQuery["singleEvents"])
	}
	if gotQuery["orderBy"] != "startTime" {
		t.Errorf("Expected orderBy=startTime, got %q", gotQuery["orderBy"])
	}

	wantMin, _ := WeekWindow(now)
	if gotQuery["timeMin"] != wantMin.Format(time.RFC3339) {
		t.Errorf("Expected timeMin %q, got %q", wantMin.Format(time.RFC3339), gotQuery["timeMin"])
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.ID != "evt-1" || first.Title != "Team standup" || first.Color != "9" {
		t.Errorf("unexpected normalization of first event: %+v", first)
	}
	if !first.Start.Equal(time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected start 09:00, got %v", first.Start)
	}

	// Second event exercises the fallbacks: no summary, no color,
	// date-only timestamps.
	second := events[1]
	if second.Title != "" {
		t.Errorf("Expected empty title, got %q", second.Title)
	}
	if second.Color != "1" {
		t.Errorf("Expected color to default to '1', got %q", second.Color)
	}
	if !second.Start.Equal(time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected date-only start at midnight, got %v", second.Start)
	}
}

func TestFetchWeek_UpstreamError(t *testing.T) {
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500}}`, http.StatusInternalServerError)
	}))
	defer fake.Close()

	client, err := NewClient(context.Background(), fake.Client(), time.UTC, option.WithEndpoint(fake.URL))
	if err != nil {
		t.Fatalf("NewClient() returned an error: %v", err)
	}

	if _, err := client.FetchWeek(context.Background(), time.Now()); err == nil {
		t.Error("FetchWeek() should surface an upstream failure as an error")
	}
}

func TestNormalize_PrefersDateTime(t *testing.T) {
	item := &calendarapi.Event{
		Id: "evt-3",
		Start: &calendarapi.EventDateTime{
			DateTime: "2025-01-15T09:00:00Z",
			Date:     "2025-01-15",
		},
		End: &calendarapi.EventDateTime{DateTime: "2025-01-15T10:00:00Z"},
	}

	ev := normalize(item, time.UTC)
	if ev.Start.Hour() != 9 {
		t.Errorf("Expected the precise timestamp to win over the date field, got %v", ev.Start)
	}
}

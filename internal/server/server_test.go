package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/beekhof/dashboard/internal/auth"
	"github.com/beekhof/dashboard/internal/config"
	"github.com/beekhof/dashboard/internal/session"
)

// testFixture bundles a server with direct access to its session store
// and cookie codec, so tests can mint authenticated sessions without
// driving the full OAuth flow.
type testFixture struct {
	server *Server
	store  *session.MemoryStore
	codec  *session.CookieCodec
}

func newTestFixture(t *testing.T, calendarOpts ...option.ClientOption) *testFixture {
	t.Helper()

	cfg := &config.Config{
		Port:            "3000",
		SessionSecret:   "test-secret",
		SessionTTLHours: 1,
		Timezone:        "UTC",
		Google: config.GoogleConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURL:  "http://localhost:3000/auth/google/callback",
		},
	}

	store := session.NewMemoryStore()
	codec := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL())
	gateway := auth.NewGateway(auth.OAuthConfig(cfg), store, codec)

	srv := New(cfg, gateway, calendarOpts...)
	srv.now = func() time.Time {
		return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	}

	return &testFixture{server: srv, store: store, codec: codec}
}

// authCookie stores an authenticated session and returns its cookie.
func (f *testFixture) authCookie(t *testing.T) *http.Cookie {
	t.Helper()

	s := session.New()
	s.Token = &oauth2.Token{
		AccessToken: "test-access-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	f.store.Put(s)

	rec := httptest.NewRecorder()
	if err := f.codec.Write(rec, s.ID); err != nil {
		t.Fatalf("failed to write session cookie: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func (f *testFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// fakeCalendarAPI serves a canned events list for any request.
func fakeCalendarAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"kind": "calendar#events",
			"items": [{
				"id": "evt-1",
				"summary": "Team standup",
				"htmlLink": "https://calendar.google.com/event?eid=evt-1",
				"colorId": "9",
				"start": {"dateTime": "2025-01-15T09:00:00Z"},
				"end": {"dateTime": "2025-01-15T10:30:00Z"}
			}]
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	f := newTestFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from health, got %d", rec.Code)
	}

	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", body.Status)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("Expected an RFC3339 timestamp, got '%s': %v", body.Timestamp, err)
	}
}

func TestEvents_RequiresAuth(t *testing.T) {
	f := newTestFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a session, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error == "" {
		t.Error("Expected an error message in the 401 body")
	}
}

func TestEvents_Authenticated(t *testing.T) {
	upstream := fakeCalendarAPI(t)
	f := newTestFixture(t, option.WithEndpoint(upstream.URL))
	cookie := f.authCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var events []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("failed to decode events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ID != "evt-1" || events[0].Title != "Team standup" || events[0].Color != "9" {
		t.Errorf("unexpected event payload: %+v", events[0])
	}
}

func TestEvents_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":503}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	f := newTestFixture(t, option.WithEndpoint(upstream.URL))
	cookie := f.authCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 on upstream failure, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if strings.Contains(body.Error, "503") {
		t.Error("upstream details should not leak to the client")
	}
}

func TestView_RendersGrid(t *testing.T) {
	upstream := fakeCalendarAPI(t)
	f := newTestFixture(t, option.WithEndpoint(upstream.URL))
	cookie := f.authCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/view", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	html := rec.Body.String()
	if got := strings.Count(html, `class="calendar-event"`); got != 1 {
		t.Errorf("Expected exactly 1 event block, got %d", got)
	}
	if !strings.Contains(html, `data-day="wed"`) {
		t.Error("Expected the event in the wed column")
	}

	// A second fetch replaces, not accumulates: same single block.
	req = httptest.NewRequest(http.MethodGet, "/api/calendar/view", nil)
	req.AddCookie(cookie)
	again := f.do(req)
	if got := strings.Count(again.Body.String(), `class="calendar-event"`); got != 1 {
		t.Errorf("Expected exactly 1 event block on refetch, got %d", got)
	}
}

func TestExport_RequiresAuth(t *testing.T) {
	f := newTestFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/calendar/export.ics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a session, got %d", rec.Code)
	}
}

func TestExport_ReturnsICS(t *testing.T) {
	upstream := fakeCalendarAPI(t)
	f := newTestFixture(t, option.WithEndpoint(upstream.URL))
	cookie := f.authCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/export.ics", nil)
	req.AddCookie(cookie)
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Expected text/calendar content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "SUMMARY:Team standup") {
		t.Error("Expected the event summary in the ICS body")
	}
}

func TestChat_WhitespaceIsNoOp(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"   "}`))
	rec := f.do(req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for whitespace-only input, got %d", rec.Code)
	}
}

func TestChat_AcceptsTrimmedMessage(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":" hi "}`))
	rec := f.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if body.Status != "accepted" {
		t.Errorf("Expected status 'accepted', got '%s'", body.Status)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json"))
	rec := f.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid body, got %d", rec.Code)
	}
}

func TestStatic_ServesIndex(t *testing.T) {
	f := newTestFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for the index page, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ai-input") {
		t.Error("Expected the index page to contain the chat input")
	}
}

func TestStatic_APIDoesNotFallThrough(t *testing.T) {
	f := newTestFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/no-such-endpoint", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown API path, got %d", rec.Code)
	}
}

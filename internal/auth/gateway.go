// Package auth implements the OAuth2 authorization-code flow against
// Google, keeping token bundles in server-side sessions.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/beekhof/dashboard/internal/calendar"
	"github.com/beekhof/dashboard/internal/config"
	"github.com/beekhof/dashboard/internal/log"
	"github.com/beekhof/dashboard/internal/session"
)

// OAuthConfig builds the oauth2 client configuration for the Google
// authorization-code flow, requesting read-only calendar access.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes: []string{
			gcal.CalendarReadonlyScope,
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// Gateway wraps the OAuth2 web flow behind a session store. Exchange
// failures never surface provider details to the client; the browser is
// sent back to the root with an error flag.
type Gateway struct {
	oauth   *oauth2.Config
	store   session.Store
	cookies *session.CookieCodec
}

// NewGateway creates a Gateway using the given oauth2 configuration,
// session store and cookie codec.
func NewGateway(oauthConfig *oauth2.Config, store session.Store, cookies *session.CookieCodec) *Gateway {
	return &Gateway{oauth: oauthConfig, store: store, cookies: cookies}
}

// Session resolves the request's session, if any.
func (g *Gateway) Session(r *http.Request) (*session.Session, bool) {
	return g.cookies.FromRequest(r, g.store)
}

// HandleLogin starts the authorization-code flow: it ensures the browser
// has a session, records a one-time state value in it, and redirects to
// the provider's consent screen requesting offline access (so a refresh
// token is issued).
func (g *Gateway) HandleLogin(w http.ResponseWriter, r *http.Request) {
	s, ok := g.Session(r)
	if !ok {
		s = session.New()
		if err := g.cookies.Write(w, s.ID); err != nil {
			log.Error("failed to set session cookie", err)
			http.Error(w, "failed to start login", http.StatusInternalServerError)
			return
		}
	}

	s.State = uuid.NewString()
	g.store.Put(s)

	authURL := g.oauth.AuthCodeURL(s.State, oauth2.AccessTypeOffline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback exchanges the one-time code for a token bundle and
// stores it in the session. Any failure (missing session, state
// mismatch, exchange error) redirects to "/?error=auth_failed" and the
// session stays anonymous.
func (g *Gateway) HandleCallback(w http.ResponseWriter, r *http.Request) {
	s, ok := g.Session(r)
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if !ok || code == "" || state == "" || state != s.State {
		log.Info("oauth callback rejected", "have_session", ok, "have_code", code != "")
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	token, err := g.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.Error("failed to exchange authorization code", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	s.State = ""
	s.Token = token
	g.store.Put(s)

	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout destroys the session and clears the cookie.
func (g *Gateway) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s, ok := g.Session(r); ok {
		g.store.Delete(s.ID)
	}
	g.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleStatus reports whether the session holds a token bundle. It never
// validates or refreshes the token against the provider.
func (g *Gateway) HandleStatus(w http.ResponseWriter, r *http.Request) {
	s, _ := g.Session(r)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"authenticated": s.Authenticated()}); err != nil {
		log.Error("failed to write auth status", err)
	}
}

// sessionTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back into the session, so a refresh during one request survives
// for the next.
type sessionTokenSource struct {
	source oauth2.TokenSource
	store  session.Store
	sess   *session.Session
}

// Token implements oauth2.TokenSource.
func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if s.sess.Token == nil || s.sess.Token.AccessToken != token.AccessToken {
		s.sess.Token = token
		s.store.Put(s.sess)
	}

	return token, nil
}

// HTTPClient returns an HTTP client authenticated as the session's user.
// Transparent token refreshes are persisted back into the session.
func (g *Gateway) HTTPClient(ctx context.Context, s *session.Session) (*http.Client, error) {
	if !s.Authenticated() {
		return nil, fmt.Errorf("session has no token bundle: %w", calendar.ErrAuthRequired)
	}

	source := &sessionTokenSource{
		source: oauth2.ReuseTokenSource(s.Token, g.oauth.TokenSource(ctx, s.Token)),
		store:  g.store,
		sess:   s,
	}
	return oauth2.NewClient(ctx, source), nil
}

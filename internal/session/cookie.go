package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the name of the dashboard session cookie.
const CookieName = "dashboard_session"

// CookieCodec signs and verifies the session cookie. The cookie value is
// an HS256 JWT whose subject is the session id; a tampered or expired
// cookie decodes to nothing and the request is treated as anonymous.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewCookieCodec creates a codec signing with the given secret. Cookies
// expire after ttl.
func NewCookieCodec(secret string, ttl time.Duration) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), ttl: ttl}
}

// Encode wraps a session id into a signed cookie value.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("session cookie has no subject")
	}
	return claims.Subject, nil
}

// Write sets the session cookie for the given session id.
func (c *CookieCodec) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.Encode(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the request's session via the cookie and store.
// Any cookie problem (absent, tampered, expired, unknown id) yields
// (nil, false): the request is simply anonymous.
func (c *CookieCodec) FromRequest(r *http.Request, store Store) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}

	id, err := c.Decode(cookie.Value)
	if err != nil {
		return nil, false
	}

	return store.Get(id)
}

package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TokenCookieName is the cookie that carries the session token for browsers.
const TokenCookieName = "token"

// CookieConfig controls the attributes of the token cookie.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// Cookies writes and clears the token cookie.
//
// The cookie is always HttpOnly: page scripts cannot read it, so an XSS bug
// cannot exfiltrate the session.
type Cookies struct {
	cfg    CookieConfig
	maxAge time.Duration
}

// NewCookies creates a cookie writer whose cookies live for ttl, normally
// TokenService.TTL(). An unset SameSite becomes Lax.
func NewCookies(cfg CookieConfig, ttl time.Duration) *Cookies {
	if cfg.SameSite == 0 || cfg.SameSite == http.SameSiteDefaultMode {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Cookies{cfg: cfg, maxAge: ttl}
}

// Set stores token in the client's cookie jar.
func (c *Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   int(c.maxAge.Seconds()),
		Expires:  time.Now().Add(c.maxAge),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// Clear tells the browser to delete the token cookie immediately.
// The token itself stays valid until it expires.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// ParseSameSite converts "lax", "strict" or "none" to an http.SameSite.
// An empty string means lax.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("auth: unknown SameSite mode %q", s)
}

package credentials

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// CookieTTL is how long the access token cookie lives. It is deliberately
// longer than the token so the UI stays signed in until the next 401.
const CookieTTL = 7 * 24 * time.Hour

// CookieLocation keeps a value as a cookie in a jar, scoped to origin.
type CookieLocation struct {
	mu      sync.Mutex
	jar     http.CookieJar
	origin  *url.URL
	name    string
	expires time.Time
	nowFunc func() time.Time
}

var _ Location = (*CookieLocation)(nil)

func NewCookieLocation(jar http.CookieJar, origin *url.URL, name string) *CookieLocation {
	return &CookieLocation{jar: jar, origin: origin, name: name, nowFunc: time.Now}
}

// WithNowFunc sets the clock used for the cookie expiry.
func (c *CookieLocation) WithNowFunc(f func() time.Time) *CookieLocation {
	c.nowFunc = f
	return c
}

func (c *CookieLocation) Load() (string, bool, error) {
	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name == c.name {
			v, err := url.QueryUnescape(ck.Value)
			if err != nil {
				return "", false, err
			}
			return v, true, nil
		}
	}
	return "", false, nil
}

func (c *CookieLocation) Store(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(url.QueryEscape(value), c.nowFunc().Add(CookieTTL))
	return nil
}

func (c *CookieLocation) Remove() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires = time.Time{}
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:   c.name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})
	return nil
}

// Export serialises the cookie as a Set-Cookie line, expiry included, so a
// jar that lives only in memory can be restored by a later process.
func (c *CookieLocation) Export() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name != c.name {
			continue
		}
		expires := c.expires
		if expires.IsZero() {
			expires = c.nowFunc().Add(CookieTTL)
		}
		out := &http.Cookie{Name: c.name, Value: ck.Value, Path: "/", Expires: expires}
		return out.String(), true
	}
	return "", false
}

// Import puts back a cookie produced by Export. An expired cookie is
// dropped without error.
func (c *CookieLocation) Import(line string) error {
	ck, err := http.ParseSetCookie(line)
	if err != nil {
		return fmt.Errorf("parse saved cookie: %w", err)
	}
	if ck.Name != c.name {
		return fmt.Errorf("saved cookie is %q, want %q", ck.Name, c.name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ck.Expires.IsZero() || !ck.Expires.After(c.nowFunc()) {
		return nil
	}
	c.set(ck.Value, ck.Expires)
	return nil
}

func (c *CookieLocation) set(raw string, expires time.Time) {
	c.expires = expires
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:     c.name,
		Value:    raw,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteStrictMode,
	}})
}

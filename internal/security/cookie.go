package security

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieManager scopes the token cookies. SameSite derives from the
// secure flag: None for cross-site HTTPS deployments, Lax otherwise
// (browsers reject SameSite=None without Secure).
type CookieManager struct {
	Domain string
	Secure bool
}

func NewCookieManager(domain string, secure bool) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure}
}

func (c *CookieManager) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c *CookieManager) SetTokenCookies(w http.ResponseWriter, accessToken, refreshToken string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	http.SetCookie(w, &http.Cookie{Name: AccessTokenCookie, Value: accessToken, Path: "/", HttpOnly: true, Secure: c.Secure, SameSite: c.sameSite(), Domain: c.Domain, MaxAge: maxAge})
	http.SetCookie(w, &http.Cookie{Name: RefreshTokenCookie, Value: refreshToken, Path: "/", HttpOnly: true, Secure: c.Secure, SameSite: c.sameSite(), Domain: c.Domain, MaxAge: maxAge})
}

func (c *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Path: "/", Value: "", MaxAge: -1, HttpOnly: true, Secure: c.Secure, SameSite: c.sameSite(), Domain: c.Domain})
	}
}

func GetCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// NewRandomToken returns n bytes of URL-safe randomness, used for
// verification and password-reset tokens.
func NewRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

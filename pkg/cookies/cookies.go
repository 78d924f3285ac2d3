package cookies

import (
	"net/http"
	"time"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// The refresh cookie is only ever sent back to the refresh endpoint.
	RefreshCookiePath = "/api/v1/auth/refresh-token"
)

// Manager writes and clears the two session cookies. The access cookie covers
// the whole API; the refresh cookie is path-scoped so the long-lived token
// never rides along on ordinary requests.
type Manager struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secure bool, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secure:     secure,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *Manager) SetSession(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(m.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     RefreshCookiePath,
		MaxAge:   int(m.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSession overwrites both cookies with empty values and a negative
// max-age so clients drop them immediately. Path scoping must match the
// originals or browsers keep the old cookies around.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

package utils

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// SetAuthCookies writes the access and refresh cookies plus the security
// headers every token-bearing response carries. The refresh cookie is
// scoped to refreshPath so it only travels to the refresh endpoint.
//
// With highSecurity off (local front end on another origin) both cookies
// are SameSite=None and Partitioned.
func SetAuthCookies(
	w http.ResponseWriter,
	accessToken string,
	refreshToken string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	refreshPath string,
	highSecurity bool,
) {
	if accessToken == "" || refreshToken == "" {
		return
	}

	accessSameSite, refreshSameSite := sameSitePolicies(highSecurity)
	partitioned := !highSecurity
	utils.Logger.Debugf("[cookies] set: accessSameSite=%s refreshSameSite=%s partitioned=%t refreshPath=%s",
		accessSameSite, refreshSameSite, partitioned, refreshPath)

	writeCookie(w, middleware.AccessTokenCookieName, accessToken, "/", int(accessTTL.Seconds()), accessSameSite, partitioned)
	writeCookie(w, middleware.RefreshTokenCookieName, refreshToken, refreshPath, int(refreshTTL.Seconds()), refreshSameSite, partitioned)

	addSecurityHeaders(w)
}

// ClearAuthCookies expires both cookies on logout.
func ClearAuthCookies(w http.ResponseWriter, refreshPath string, highSecurity bool) {
	expired := time.Now().Add(-1 * time.Hour).UTC().Format(http.TimeFormat)
	accessSameSite, refreshSameSite := sameSitePolicies(highSecurity)
	partitioned := !highSecurity

	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=; Path=/; Expires=%s; Max-Age=0; SameSite=%s; Secure; HttpOnly%s",
			middleware.AccessTokenCookieName, expired, accessSameSite, partitionAttr(partitioned)))
	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=; Path=%s; Expires=%s; Max-Age=0; SameSite=%s; Secure; HttpOnly%s",
			middleware.RefreshTokenCookieName, refreshPath, expired, refreshSameSite, partitionAttr(partitioned)))

	addSecurityHeaders(w)
}

// RefreshTokenFromRequest prefers the cookie and falls back to the body
// value for non-browser clients.
func RefreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if c, err := r.Cookie(middleware.RefreshTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bodyToken
}

func sameSitePolicies(highSecurity bool) (access, refresh string) {
	if !highSecurity {
		return "None", "None"
	}
	return "Lax", "Strict"
}

func writeCookie(w http.ResponseWriter, name, value, path string, maxAge int, sameSite string, partitioned bool) {
	expires := time.Now().Add(time.Duration(maxAge) * time.Second).UTC().Format(http.TimeFormat)
	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=%s; Path=%s; Max-Age=%d; Expires=%s; SameSite=%s; Secure; HttpOnly%s",
			name, value, path, maxAge, expires, sameSite, partitionAttr(partitioned)))
}

func partitionAttr(on bool) string {
	if on {
		return "; Partitioned"
	}
	return ""
}

func addSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

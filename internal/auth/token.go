package auth

import (
	"net/http"
	"strings"
)

const SessionHeader = "X-Session-ID"

func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ExtractSessionID returns the ordering client's session id: header first,
// then the session_id query parameter (used by websocket clients).
func ExtractSessionID(r *http.Request) string {
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
		return sid
	}
	return strings.TrimSpace(r.URL.Query().Get("session_id"))
}

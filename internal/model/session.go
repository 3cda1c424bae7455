package model

// SessionState tracks where a session is in the OIDC lifecycle.
type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionPendingRedirect SessionState = "pending_redirect"
	SessionAuthenticated   SessionState = "authenticated"
	SessionRefreshPending  SessionState = "refresh_pending"
	SessionExpired         SessionState = "expired"
)

// Session holds the OIDC token pair for one browser session. It lives only
// in process memory and is destroyed on logout or a failed refresh.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	State        SessionState
}

// Authenticated reports whether the session can issue engine queries.
// An authenticated session always carries a non-empty access token.
func (s *Session) Authenticated() bool {
	return s.State == SessionAuthenticated && s.AccessToken != ""
}

// ClearTokens wipes the token pair.
func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
}

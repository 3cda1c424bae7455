package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/Alkira-Consulting/skylight-web/internal/auth"
	"github.com/Alkira-Consulting/skylight-web/internal/config"
	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// SessionService owns the token-pair lifecycle: login redirect, code
// exchange, the single-shot refresh, and logout. Sessions live only in
// process memory.
type SessionService interface {
	// Create registers a fresh unauthenticated session.
	Create() *model.Session

	// WithSession runs fn with the session's cycle lock held. Render
	// cycles for one session never overlap; a caller arriving mid-cycle
	// waits for the current one to finish.
	WithSession(id string, fn func(*model.Session) error) error

	// BeginLogin asks the provider to prepare a login and returns the
	// redirect URL the browser must follow.
	BeginLogin(ctx context.Context, sess *model.Session) (string, error)

	// CompleteLogin exchanges an authorization code for the token pair.
	CompleteLogin(ctx context.Context, sess *model.Session, code, state string) error

	// EnsureLive probes the engine with the current token and, on probe
	// failure, refreshes at most once before retrying the probe. A failed
	// refresh expires the session and forces a logout.
	EnsureLive(ctx context.Context, sess *model.Session, probe func(accessToken string) error) error

	// Logout invalidates the token pair (best effort), clears it, and
	// returns the configured post-logout URL.
	Logout(ctx context.Context, sess *model.Session) string
}

type sessionEntry struct {
	sess  *model.Session
	cycle sync.Mutex
}

type sessionService struct {
	auth         auth.Client
	redirectPath string
	logoutURL    string

	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

// NewSessionService constructs a SessionService over the identity client.
func NewSessionService(authClient auth.Client, cfg *config.Config) SessionService {
	return &sessionService{
		auth:         authClient,
		redirectPath: cfg.AuthRedirectPath,
		logoutURL:    cfg.LogoutURL,
		entries:      make(map[string]*sessionEntry),
	}
}

func (s *sessionService) Create() *model.Session {
	sess := &model.Session{
		ID:    uuid.NewString(),
		State: model.SessionUnauthenticated,
	}
	s.mu.Lock()
	s.entries[sess.ID] = &sessionEntry{sess: sess}
	s.mu.Unlock()
	return sess
}

func (s *sessionService) WithSession(id string, fn func(*model.Session) error) error {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.cycle.Lock()
	defer entry.cycle.Unlock()
	return fn(entry.sess)
}

func (s *sessionService) BeginLogin(ctx context.Context, sess *model.Session) (string, error) {
	res, err := s.auth.Prepare(ctx)
	if err != nil {
		return "", &AuthInitError{Reason: "prepare request failed", Err: err}
	}
	if res.Redirect == "" || res.Nonce == "" {
		return "", &AuthInitError{Reason: "prepare response missing redirect or nonce"}
	}

	sess.State = model.SessionPendingRedirect
	return res.Redirect, nil
}

func (s *sessionService) CompleteLogin(ctx context.Context, sess *model.Session, code, state string) error {
	if code == "" || state == "" {
		return &AuthExchangeError{Reason: "missing code or state"}
	}

	redirectURI := fmt.Sprintf("%s?code=%s&state=%s", s.redirectPath, code, state)
	res, err := s.auth.Authenticate(ctx, redirectURI, state)
	if err != nil {
		return &AuthExchangeError{Reason: "authenticate request failed", Err: err}
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		// The session stays unauthenticated; the caller must not be
		// advanced past login.
		return &AuthExchangeError{Reason: "exchange response missing tokens"}
	}

	sess.AccessToken = res.AccessToken
	sess.RefreshToken = res.RefreshToken
	sess.State = model.SessionAuthenticated
	return nil
}

func (s *sessionService) EnsureLive(ctx context.Context, sess *model.Session, probe func(accessToken string) error) error {
	if err := probe(sess.AccessToken); err == nil {
		return nil
	}

	sess.State = model.SessionRefreshPending
	res, err := s.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil || res.Failed() || res.AccessToken == "" || res.RefreshToken == "" {
		sess.State = model.SessionExpired
		s.Logout(ctx, sess)
		return &RefreshError{Err: err}
	}

	sess.AccessToken = res.AccessToken
	sess.RefreshToken = res.RefreshToken
	sess.State = model.SessionAuthenticated

	// One retry with the new token; a second failure surfaces as-is and
	// never triggers another refresh.
	return probe(sess.AccessToken)
}

func (s *sessionService) Logout(ctx context.Context, sess *model.Session) string {
	if sess.AccessToken != "" || sess.RefreshToken != "" {
		if _, err := s.auth.Logout(ctx, sess.AccessToken, sess.RefreshToken); err != nil {
			log.Printf("logout call failed: %v", err)
		}
	}

	sess.ClearTokens()
	// An expired session stays expired; anything else returns to the
	// post-logout unauthenticated state.
	if sess.State != model.SessionExpired {
		sess.State = model.SessionUnauthenticated
	}

	return s.logoutURL
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Alkira-Consulting/skylight-web/internal/auth"
	"github.com/Alkira-Consulting/skylight-web/internal/config"
	"github.com/Alkira-Consulting/skylight-web/internal/model"
	mockauth "github.com/Alkira-Consulting/skylight-web/internal/testdata/mockauth"
)

type SessionServiceTestSuite struct {
	suite.Suite

	auth *mockauth.Client

	// Concrete struct so tests can reach the store directly.
	service *sessionService
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}

func (s *SessionServiceTestSuite) SetupTest() {
	s.auth = &mockauth.Client{}
	cfg := &config.Config{
		AuthRedirectPath: "www/",
		LogoutURL:        "https://intranet.example.com/goodbye",
	}
	svc := NewSessionService(s.auth, cfg)
	s.service = svc.(*sessionService)
}

func (s *SessionServiceTestSuite) TestCreateStartsUnauthenticated() {
	sess := s.service.Create()

	s.NotEmpty(sess.ID)
	s.Equal(model.SessionUnauthenticated, sess.State)
	s.Empty(sess.AccessToken)
	s.Empty(sess.RefreshToken)
}

func (s *SessionServiceTestSuite) TestWithSessionUnknownID() {
	err := s.service.WithSession("missing", func(*model.Session) error { return nil })
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionServiceTestSuite) TestBeginLoginSuccess() {
	sess := s.service.Create()
	s.auth.On("Prepare", mock.Anything).Return(auth.PrepareResponse{
		Redirect: "https://idp.example.com/authorize?x=1",
		Nonce:    "fixed-nonce",
	}, nil)

	redirect, err := s.service.BeginLogin(context.Background(), sess)

	s.NoError(err)
	s.Equal("https://idp.example.com/authorize?x=1", redirect)
	s.Equal(model.SessionPendingRedirect, sess.State)
}

func (s *SessionServiceTestSuite) TestBeginLoginMalformedResponse() {
	tests := []struct {
		name string
		res  auth.PrepareResponse
	}{
		{name: "MissingRedirect", res: auth.PrepareResponse{Nonce: "n"}},
		{name: "MissingNonce", res: auth.PrepareResponse{Redirect: "https://idp"}},
		{name: "Empty", res: auth.PrepareResponse{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			sess := s.service.Create()
			s.auth.On("Prepare", mock.Anything).Return(tt.res, nil)

			_, err := s.service.BeginLogin(context.Background(), sess)

			s.Error(err)
			var initErr *AuthInitError
			s.ErrorAs(err, &initErr)
			s.Equal(model.SessionUnauthenticated, sess.State)
		})
	}
}

func (s *SessionServiceTestSuite) TestBeginLoginProviderUnreachable() {
	sess := s.service.Create()
	s.auth.On("Prepare", mock.Anything).Return(auth.PrepareResponse{}, errors.New("connection refused"))

	_, err := s.service.BeginLogin(context.Background(), sess)

	var initErr *AuthInitError
	s.ErrorAs(err, &initErr)
}

// TestCompleteLoginRoundTrip: beginLogin then completeLogin with a valid
// code/state lands the session in Authenticated with both tokens held.
func (s *SessionServiceTestSuite) TestCompleteLoginRoundTrip() {
	sess := s.service.Create()
	s.auth.On("Prepare", mock.Anything).Return(auth.PrepareResponse{Redirect: "https://idp", Nonce: "n"}, nil)
	s.auth.On("Authenticate", mock.Anything, "www/?code=abc&state=xyz", "xyz").Return(auth.TokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil)

	_, err := s.service.BeginLogin(context.Background(), sess)
	s.Require().NoError(err)

	err = s.service.CompleteLogin(context.Background(), sess, "abc", "xyz")

	s.NoError(err)
	s.Equal(model.SessionAuthenticated, sess.State)
	s.Equal("access-1", sess.AccessToken)
	s.Equal("refresh-1", sess.RefreshToken)
	s.True(sess.Authenticated())
}

// TestCompleteLoginMissingTokens: an exchange response without tokens
// leaves the session unauthenticated; the user is not advanced past login.
func (s *SessionServiceTestSuite) TestCompleteLoginMissingTokens() {
	sess := s.service.Create()
	s.auth.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(auth.TokenResponse{}, nil)

	err := s.service.CompleteLogin(context.Background(), sess, "abc", "xyz")

	var exchErr *AuthExchangeError
	s.ErrorAs(err, &exchErr)
	s.NotEqual(model.SessionAuthenticated, sess.State)
	s.Empty(sess.AccessToken)
	s.Empty(sess.RefreshToken)
}

func (s *SessionServiceTestSuite) TestCompleteLoginMissingCode() {
	sess := s.service.Create()

	err := s.service.CompleteLogin(context.Background(), sess, "", "xyz")

	var exchErr *AuthExchangeError
	s.ErrorAs(err, &exchErr)
	s.auth.AssertNotCalled(s.T(), "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SessionServiceTestSuite) authenticatedSession() *model.Session {
	sess := s.service.Create()
	sess.AccessToken = "access-old"
	sess.RefreshToken = "refresh-old"
	sess.State = model.SessionAuthenticated
	return sess
}

func (s *SessionServiceTestSuite) TestEnsureLiveProbeHealthy() {
	sess := s.authenticatedSession()

	calls := 0
	err := s.service.EnsureLive(context.Background(), sess, func(token string) error {
		calls++
		s.Equal("access-old", token)
		return nil
	})

	s.NoError(err)
	s.Equal(1, calls)
	s.Equal(model.SessionAuthenticated, sess.State)
	s.auth.AssertNotCalled(s.T(), "Refresh", mock.Anything, mock.Anything)
}

func (s *SessionServiceTestSuite) TestEnsureLiveRefreshSuccess() {
	sess := s.authenticatedSession()
	s.auth.On("Refresh", mock.Anything, "refresh-old").Return(auth.TokenResponse{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
	}, nil)

	var tokens []string
	err := s.service.EnsureLive(context.Background(), sess, func(token string) error {
		tokens = append(tokens, token)
		if len(tokens) == 1 {
			return errors.New("401 unauthorized")
		}
		return nil
	})

	s.NoError(err)
	s.Equal([]string{"access-old", "access-new"}, tokens)
	s.Equal(model.SessionAuthenticated, sess.State)
	s.Equal("access-new", sess.AccessToken)
	s.Equal("refresh-new", sess.RefreshToken)
}

// TestEnsureLiveRefreshFailure: a probe failure followed by a failing
// refresh leaves exactly one session in Expired state and triggers exactly
// one logout call. There is no refresh loop.
func (s *SessionServiceTestSuite) TestEnsureLiveRefreshFailure() {
	tests := []struct {
		name string
		res  auth.TokenResponse
		err  error
	}{
		{name: "TransportError", err: errors.New("connection reset")},
		{name: "ErrorField", res: auth.TokenResponse{Error: []byte(`{"reason": "token expired"}`)}},
		{name: "MissingTokens", res: auth.TokenResponse{AccessToken: "only-access"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			sess := s.authenticatedSession()
			s.auth.On("Refresh", mock.Anything, "refresh-old").Return(tt.res, tt.err)
			s.auth.On("Logout", mock.Anything, "access-old", "refresh-old").Return(auth.LogoutResponse{}, nil)

			probeCalls := 0
			err := s.service.EnsureLive(context.Background(), sess, func(string) error {
				probeCalls++
				return errors.New("401 unauthorized")
			})

			var refreshErr *RefreshError
			s.ErrorAs(err, &refreshErr)
			s.Equal(1, probeCalls, "failed refresh must not retry the operation")
			s.Equal(model.SessionExpired, sess.State)
			s.Empty(sess.AccessToken)
			s.Empty(sess.RefreshToken)
			s.auth.AssertNumberOfCalls(s.T(), "Refresh", 1)
			s.auth.AssertNumberOfCalls(s.T(), "Logout", 1)
		})
	}
}

func (s *SessionServiceTestSuite) TestEnsureLiveRetriedProbeFailureSurfaces() {
	sess := s.authenticatedSession()
	s.auth.On("Refresh", mock.Anything, "refresh-old").Return(auth.TokenResponse{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
	}, nil)

	probeErr := errors.New("engine unavailable")
	calls := 0
	err := s.service.EnsureLive(context.Background(), sess, func(string) error {
		calls++
		return probeErr
	})

	s.ErrorIs(err, probeErr)
	s.Equal(2, calls)
	// Only one refresh even though the retried probe failed again.
	s.auth.AssertNumberOfCalls(s.T(), "Refresh", 1)
}

func (s *SessionServiceTestSuite) TestLogout() {
	sess := s.authenticatedSession()
	s.auth.On("Logout", mock.Anything, "access-old", "refresh-old").Return(auth.LogoutResponse{}, nil)

	redirect := s.service.Logout(context.Background(), sess)

	s.Equal("https://intranet.example.com/goodbye", redirect)
	s.Empty(sess.AccessToken)
	s.Empty(sess.RefreshToken)
	s.Equal(model.SessionUnauthenticated, sess.State)
}

func (s *SessionServiceTestSuite) TestLogoutProviderErrorIsNotFatal() {
	sess := s.authenticatedSession()
	s.auth.On("Logout", mock.Anything, "access-old", "refresh-old").Return(auth.LogoutResponse{}, errors.New("502"))

	redirect := s.service.Logout(context.Background(), sess)

	s.Equal("https://intranet.example.com/goodbye", redirect)
	s.Empty(sess.AccessToken)
}

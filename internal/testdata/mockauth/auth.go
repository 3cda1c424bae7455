package mockauth

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Alkira-Consulting/skylight-web/internal/auth"
)

type Client struct {
	mock.Mock
}

// Interface compliance check
var _ auth.Client = &Client{}

func (m *Client) Prepare(ctx context.Context) (auth.PrepareResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(auth.PrepareResponse), args.Error(1)
}

func (m *Client) Authenticate(ctx context.Context, redirectURI, state string) (auth.TokenResponse, error) {
	args := m.Called(ctx, redirectURI, state)
	return args.Get(0).(auth.TokenResponse), args.Error(1)
}

func (m *Client) Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.TokenResponse), args.Error(1)
}

func (m *Client) Logout(ctx context.Context, token, refreshToken string) (auth.LogoutResponse, error) {
	args := m.Called(ctx, token, refreshToken)
	return args.Get(0).(auth.LogoutResponse), args.Error(1)
}

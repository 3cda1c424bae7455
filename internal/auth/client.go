package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/olivere/elastic/v7"

	"github.com/Alkira-Consulting/skylight-web/internal/config"
)

// PrepareResponse is the identity provider's reply to a login preparation.
type PrepareResponse struct {
	Redirect string `json:"redirect"`
	Nonce    string `json:"nonce"`
	State    string `json:"state"`
}

// TokenResponse is the reply to a code exchange or a token refresh. The
// provider reports refresh failures through the error field rather than a
// transport failure.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Error        json.RawMessage `json:"error"`
}

// Failed reports whether the provider returned an explicit error field.
func (r TokenResponse) Failed() bool {
	return len(r.Error) > 0 && !bytes.Equal(r.Error, []byte("null"))
}

// LogoutResponse is the reply to a token invalidation.
type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// Client talks to the identity provider's OIDC endpoints. All calls carry
// the static service API key; user tokens only ever travel in payloads.
type Client interface {
	Prepare(ctx context.Context) (PrepareResponse, error)
	Authenticate(ctx context.Context, redirectURI, state string) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	Logout(ctx context.Context, token, refreshToken string) (LogoutResponse, error)
}

type client struct {
	es     *elastic.Client
	apiKey string
	realm  string
	nonce  string
}

// NewClient builds a Client against the configured provider base URL. The
// security endpoints have no typed API in the driver, so calls go through
// PerformRequest.
func NewClient(cfg *config.Config) (Client, error) {
	es, err := elastic.NewClient(
		elastic.SetURL(cfg.AuthBaseURL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("build auth client: %w", err)
	}
	return &client{
		es:     es,
		apiKey: cfg.AuthAPIKey,
		realm:  cfg.AuthRealm,
		nonce:  cfg.AuthNonce,
	}, nil
}

func (c *client) Prepare(ctx context.Context) (PrepareResponse, error) {
	var out PrepareResponse
	err := c.post(ctx, "/_security/oidc/prepare", map[string]any{
		"realm": c.realm,
		"nonce": c.nonce,
	}, &out)
	return out, err
}

func (c *client) Authenticate(ctx context.Context, redirectURI, state string) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/_security/oidc/authenticate", map[string]any{
		"redirect_uri": redirectURI,
		"state":        state,
		"nonce":        c.nonce,
		"realm":        c.realm,
	}, &out)
	return out, err
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/_security/oauth2/token", map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, &out)
	return out, err
}

func (c *client) Logout(ctx context.Context, token, refreshToken string) (LogoutResponse, error) {
	var out LogoutResponse
	err := c.post(ctx, "/_security/oidc/logout", map[string]any{
		"token":         token,
		"refresh_token": refreshToken,
	}, &out)
	return out, err
}

func (c *client) post(ctx context.Context, path string, body map[string]any, out any) error {
	res, err := c.es.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Headers: http.Header{"Authorization": []string{c.apiKey}},
	})
	if err != nil {
		return fmt.Errorf("identity provider %s: %w", path, err)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("identity provider %s: decode response: %w", path, err)
	}
	return nil
}

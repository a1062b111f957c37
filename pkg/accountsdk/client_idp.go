package accountsdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// SignIn exchanges a password for an ID token at the local identity provider.
func (c *Client) SignIn(ctx context.Context, email, password string) (*IDTokenResponse, error) {
	var out IDTokenResponse
	req := SignInRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/idp/v1/signin", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Exchange redeems an exchange token from Login or LoginTFA for an ID token.
func (c *Client) Exchange(ctx context.Context, exchangeToken string) (*IDTokenResponse, error) {
	var out IDTokenResponse
	if err := c.do(ctx, http.MethodPost, "/idp/v1/exchange", "", ExchangeRequest{Token: exchangeToken}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmEmail redeems a verification link token.
func (c *Client) ConfirmEmail(ctx context.Context, token string) (*MessageResponse, error) {
	var out MessageResponse
	path := "/idp/v1/verify-email?token=" + url.QueryEscape(token)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JWKS(ctx context.Context) (*jwtx.JWKS, error) {
	var out jwtx.JWKS
	if err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

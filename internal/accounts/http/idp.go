package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity/local"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const EmailConfirmedMessage = "Your email address has been verified."

// IDPHandler serves the built-in identity provider.
type IDPHandler struct {
	IDP LocalIdentityProvider
}

func (h *IDPHandler) writeIDToken(w http.ResponseWriter, token string) {
	httpx.WriteJSON(w, http.StatusOK, accountsdk.IDTokenResponse{
		IDToken:   token,
		ExpiresIn: int(h.IDP.IDTokenTTL().Seconds()),
	})
}

// writeIDPError maps provider errors. Credential and token failures are 401,
// everything else is internal.
func writeIDPError(w http.ResponseWriter, r *http.Request, err error) {
	var desc string
	switch {
	case errors.Is(err, local.ErrInvalidCredentials):
		desc = "invalid email or password"
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrAccountNotFound):
		desc = "invalid or expired token"
	default:
		writeError(w, r, err)
		return
	}
	(&accountsdk.APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        accountsdk.CodeUnauthorized,
		Description: desc,
	}).WriteError(w)
}

// HandleSignIn godoc
//
//	@Summary		Sign in with a password
//	@Tags			Identity Provider
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	accountsdk.IDTokenResponse
//	@Failure		400		{object}	accountsdk.APIError
//	@Failure		401		{object}	accountsdk.APIError	"Invalid email or password"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Router			/idp/v1/signin [post]
func (h *IDPHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.IDP.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeIDPError(w, r, err)
		return
	}
	h.writeIDToken(w, token)
}

// HandleExchange godoc
//
//	@Summary		Redeem an exchange token
//	@Description	Trades the token returned by /auth/login or /auth/loginTfa for an ID token.
//	@Tags			Identity Provider
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.ExchangeRequest	true	"Exchange token"
//	@Success		200		{object}	accountsdk.IDTokenResponse
//	@Failure		400		{object}	accountsdk.APIError
//	@Failure		401		{object}	accountsdk.APIError	"Invalid or expired token"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Router			/idp/v1/exchange [post]
func (h *IDPHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.ExchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.IDP.RedeemExchangeToken(r.Context(), req.Token)
	if err != nil {
		writeIDPError(w, r, err)
		return
	}
	h.writeIDToken(w, token)
}

// HandleConfirmEmail godoc
//
//	@Summary		Confirm an email address
//	@Description	Target of the verification link sent by /auth/verify-email.
//	@Tags			Identity Provider
//	@Produce		json
//	@Param			token	query		string	true	"Verification token"
//	@Success		200		{object}	accountsdk.MessageResponse
//	@Failure		401		{object}	accountsdk.APIError	"Invalid or expired token"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Router			/idp/v1/verify-email [get]
func (h *IDPHandler) HandleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.IDP.ConfirmEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeIDPError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountsdk.MessageResponse{Message: EmailConfirmedMessage})
}

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify ID tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(idp LocalIdentityProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, idp.JWKS())
	}
}

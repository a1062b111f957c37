package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

type LoginHandler struct {
	LoginService *service.LoginService
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchanges a verified ID token for a single use exchange token. When TFA is enabled no token is issued and tfaRequired is set; finish with /auth/loginTfa.
//	@Tags			Login
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	accountsdk.LoginResponse
//	@Failure		401	{object}	accountsdk.APIError
//	@Failure		404	{object}	accountsdk.APIError	"No profile for the token subject"
//	@Failure		429	{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500	{object}	accountsdk.APIError
//	@Router			/auth/login [post]
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	bearer, _ := httpx.BearerFromContext(r.Context())

	res, err := h.LoginService.Login(r.Context(), bearer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, accountsdk.LoginResponse{
		TFARequired:   res.TFARequired,
		Token:         res.Token,
		Authenticated: res.Authenticated,
	})
}

// HandleLoginTFA godoc
//
//	@Summary		Log in with a TOTP code
//	@Description	Completes a login that requires TFA. Every failure returns the same 401.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		accountsdk.CodeRequest	true	"6 digit TOTP code"
//	@Success		200		{object}	accountsdk.LoginTFAResponse
//	@Failure		401		{object}	accountsdk.APIError
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Router			/auth/loginTfa [post]
func (h *LoginHandler) HandleLoginTFA(w http.ResponseWriter, r *http.Request) {
	bearer, _ := httpx.BearerFromContext(r.Context())

	var req accountsdk.CodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.LoginService.LoginWithTFACode(r.Context(), bearer, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, accountsdk.LoginTFAResponse{
		CustomToken:   res.Token,
		Authenticated: res.Authenticated,
	})
}

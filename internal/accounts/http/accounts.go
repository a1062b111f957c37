package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// AccountHandler serves registration, password recovery and email
// verification.
type AccountHandler struct {
	RegistrationService *service.RegistrationService
	RecoveryService     *service.RecoveryService
	ProfileService      *service.ProfileService
}

// decodeBody decodes the JSON body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		slogx.FromContext(r.Context()).InfoContext(r.Context(), "malformed request body", slog.Any("error", err))
		errInvalidBody.WriteError(w)
		return false
	}
	return true
}

// HandleRegister godoc
//
//	@Summary		Register an account
//	@Description	Creates an identity provider account and its profile. If the profile cannot be stored the account is removed again.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.RegisterRequest	true	"New account"
//	@Success		201		{object}	accountsdk.RegisterResponse
//	@Failure		400		{object}	accountsdk.APIError	"Validation failed"
//	@Failure		409		{object}	accountsdk.APIError	"Username or email already taken"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/register [post]
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reg, err := h.RegistrationService.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		Username:        req.Username,
		Phone:           req.Phone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, accountsdk.RegisterResponse{
		UID:   reg.IdentityRef,
		Email: reg.Email,
	})
}

// HandleRequestReset godoc
//
//	@Summary		Request a password reset code
//	@Description	Sends a one-time reset code when a profile exists for the email. The response never reveals whether it does.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.EmailRequest	true	"Account email"
//	@Success		200		{object}	accountsdk.MessageResponse
//	@Failure		400		{object}	accountsdk.APIError
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/password/request [post]
func (h *AccountHandler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.RecoveryService.RequestReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountsdk.MessageResponse{Message: msg})
}

// HandleConfirmReset godoc
//
//	@Summary		Reset a password
//	@Description	Redeems a reset code and sets a new password. The code is single use.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.ResetPasswordRequest	true	"Code and new password"
//	@Success		200		{object}	accountsdk.MessageResponse
//	@Failure		400		{object}	accountsdk.APIError	"code_mismatch, password_mismatch or weak_password"
//	@Failure		404		{object}	accountsdk.APIError	"No profile for that email"
//	@Failure		410		{object}	accountsdk.APIError	"code_expired"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/password/reset [post]
func (h *AccountHandler) HandleConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.RecoveryService.ConfirmReset(r.Context(), service.ConfirmResetInput{
		Email:              req.Email,
		Code:               req.Code,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountsdk.MessageResponse{Message: msg})
}

// HandleSendVerification godoc
//
//	@Summary		Send an email verification link
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.EmailRequest	true	"Account email"
//	@Success		200		{object}	accountsdk.MessageResponse
//	@Failure		400		{object}	accountsdk.APIError
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/verify-email [post]
func (h *AccountHandler) HandleSendVerification(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.ProfileService.SendEmailVerification(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountsdk.MessageResponse{Message: msg})
}

// HandleVerifyToken godoc
//
//	@Summary		Describe the caller
//	@Description	Verifies the bearer ID token and returns the caller's profile.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	accountsdk.TokenProfileResponse
//	@Failure		401	{object}	accountsdk.APIError
//	@Failure		404	{object}	accountsdk.APIError	"No profile for the token subject"
//	@Failure		429	{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Router			/auth/verify-token [get]
func (h *AccountHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	bearer, _ := httpx.BearerFromContext(r.Context())

	p, err := h.ProfileService.VerifyToken(r.Context(), bearer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, accountsdk.TokenProfileResponse{
		UID:           p.IdentityRef,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		PhoneNumber:   p.Phone,
		Name:          p.Name,
		UserName:      p.Username,
		TFAEnabled:    p.TFAEnabled,
	})
}

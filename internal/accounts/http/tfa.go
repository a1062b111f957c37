package http

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/pquerna/otp"
)

const (
	qrCodeSize = 256

	TFAEnabledMessage = "Two-factor authentication is enabled."
)

type TFAHandler struct {
	TFAService *service.TFAService
	Provider   identity.Provider

	// ExposeSecret includes the raw secret in JSON responses.
	ExposeSecret bool
}

// caller resolves the bearer token to an identity reference, writing a 401
// when it does not verify.
func (h *TFAHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	bearer, _ := httpx.BearerFromContext(r.Context())
	claims, err := h.Provider.VerifyBearerToken(r.Context(), bearer)
	if err != nil {
		slogx.FromContext(r.Context()).InfoContext(r.Context(), "bearer rejected", slog.Any("error", err))
		writeError(w, r, service.ErrUnauthorized)
		return "", false
	}
	return claims.Subject, true
}

// HandleGenerate godoc
//
//	@Summary		Start TFA enrollment
//	@Description	Generates a new TOTP secret, replacing any unconfirmed one. Returns a QR code PNG of the provisioning URI, or JSON with format=json.
//	@Tags			TFA
//	@Produce		png
//	@Produce		json
//	@Security		BearerAuth
//	@Param			format	query		string	false	"json for a JSON body"	Enums(json)
//	@Success		200		{object}	accountsdk.TFAGenerateResponse	"QR code PNG, or JSON when format=json"
//	@Failure		400		{object}	accountsdk.APIError	"already_enabled"
//	@Failure		401		{object}	accountsdk.APIError
//	@Failure		404		{object}	accountsdk.APIError	"No profile for the token subject"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/tfa/generate [post]
func (h *TFAHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	identityRef, ok := h.caller(w, r)
	if !ok {
		return
	}

	enrollment, err := h.TFAService.GenerateSecret(r.Context(), identityRef)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		resp := accountsdk.TFAGenerateResponse{OTPAuthURL: enrollment.URI}
		if h.ExposeSecret {
			resp.Secret = enrollment.Secret
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
		return
	}

	buf, err := qrCode(enrollment.URI)
	if err != nil {
		writeError(w, r, fmt.Errorf("render qr code: %w", err))
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf)
}

func qrCode(uri string) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, err
	}
	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HandleConfirm godoc
//
//	@Summary		Confirm TFA enrollment
//	@Description	Enables TFA once a code from the new secret validates.
//	@Tags			TFA
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		accountsdk.CodeRequest	true	"6 digit TOTP code"
//	@Success		200		{object}	accountsdk.TFAConfirmResponse
//	@Failure		400		{object}	accountsdk.APIError	"code_required, bad_code or not_started"
//	@Failure		401		{object}	accountsdk.APIError
//	@Failure		404		{object}	accountsdk.APIError	"No profile for the token subject"
//	@Failure		429		{object}	accountsdk.APIError	"Rate limit exceeded"
//	@Failure		500		{object}	accountsdk.APIError
//	@Router			/auth/tfa/confirm [post]
func (h *TFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	identityRef, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req accountsdk.CodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.TFAService.ConfirmEnrollment(r.Context(), identityRef, req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, accountsdk.TFAConfirmResponse{
		Success: true,
		Message: TFAEnabledMessage,
	})
}

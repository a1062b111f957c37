package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var errInvalidBody = &accountsdk.APIError{
	StatusCode:  http.StatusBadRequest,
	Code:        accountsdk.CodeInvalidInput,
	Description: "request body must be a JSON object",
}

var kindStatus = map[service.Kind]int{
	service.KindInvalidInput: http.StatusBadRequest,
	service.KindConflict:     http.StatusConflict,
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindNotFound:     http.StatusNotFound,
	service.KindExpired:      http.StatusGone,
	service.KindInternal:     http.StatusInternalServerError,
}

var kindCode = map[service.Kind]string{
	service.KindInvalidInput: accountsdk.CodeInvalidInput,
	service.KindConflict:     accountsdk.CodeConflict,
	service.KindUnauthorized: accountsdk.CodeUnauthorized,
	service.KindNotFound:     accountsdk.CodeNotFound,
	service.KindExpired:      accountsdk.CodeExpired,
	service.KindInternal:     accountsdk.CodeInternal,
}

// toAPIError renders a service error for the wire. The cause never leaves
// the process; internal errors always read the same.
func toAPIError(err error) *accountsdk.APIError {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = service.ErrInternal
	}

	apiErr := &accountsdk.APIError{
		StatusCode:  kindStatus[svcErr.Kind],
		Code:        svcErr.Code,
		Description: svcErr.Message,
	}
	if apiErr.Code == "" {
		apiErr.Code = kindCode[svcErr.Kind]
	}
	if svcErr.Kind == service.KindInternal {
		apiErr.Code = accountsdk.CodeInternal
		apiErr.Description = service.ErrInternal.Message
	}
	for _, f := range svcErr.Fields {
		apiErr.Fields = append(apiErr.Fields, accountsdk.FieldError{Field: f.Field, Reason: f.Reason})
	}
	return apiErr
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())
	apiErr := toAPIError(err)

	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	} else {
		log.InfoContext(r.Context(), "request rejected",
			slog.String("code", apiErr.Code),
			slog.Any("error", err),
		)
	}
	apiErr.WriteError(w)
}

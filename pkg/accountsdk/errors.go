package accountsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// Error codes written in the "error" field. Kind level codes are used when
// no more specific code applies.
const (
	CodeInvalidInput = "invalid_input"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeExpired      = "expired"
	CodeInternal     = "internal_error"
	CodeRateLimited  = "rate_limit_exceeded"

	CodeUsernameTaken    = "username_taken"
	CodeEmailExists      = "email_exists"
	CodeCodeMismatch     = "code_mismatch"
	CodeCodeExpired      = "code_expired"
	CodePasswordMismatch = "password_mismatch"
	CodeWeakPassword     = "weak_password"
	CodeAlreadyEnabled   = "already_enabled"
	CodeNotStarted       = "not_started"
	CodeCodeRequired     = "code_required"
	CodeBadCode          = "bad_code"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError is the JSON error body of every failed request.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string       `json:"error"`
	Description string       `json:"error_description"`
	Fields      []FieldError `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Description, strings.Join(parts, "; "))
}

// HasField reports whether field was among the rejected fields.
func (e *APIError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// WriteError writes e as the response. 401s carry a Bearer challenge.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.StatusCode == http.StatusUnauthorized {
		httpx.WriteBearerChallenge(w, e.Description)
	}
	httpx.WriteJSON(w, e.StatusCode, e)
}

// parseErrorResponse turns a failed response into *APIError, falling back to
// the status text when the body is not ours (e.g. a proxy error page).
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr = &APIError{
			Code:        CodeInternal,
			Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

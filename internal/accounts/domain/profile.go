package domain

import (
	"strings"
	"time"
)

// DefaultRole is assigned to every self-registered profile.
const DefaultRole = "free"

// Profile is the local record kept for each identity provider account.
type Profile struct {
	IdentityRef string
	Email       string
	Username    string
	FullName    string
	Phone       string
	Role        string

	// Reset is nil unless a recovery code has been issued and not yet used.
	Reset *ResetCode

	// TFASecret is the stored (normally encrypted) TOTP secret, empty until
	// enrollment starts.
	TFASecret  string
	TFAEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetCode is a pending password recovery code.
type ResetCode struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (r ResetCode) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TFAState is where a profile sits in two-factor enrollment.
type TFAState int

const (
	TFANotEnrolled TFAState = iota
	TFAPendingConfirmation
	TFAEnabled
)

func (s TFAState) String() string {
	switch s {
	case TFANotEnrolled:
		return "not_enrolled"
	case TFAPendingConfirmation:
		return "pending_confirmation"
	case TFAEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

func (p Profile) TFAState() TFAState {
	switch {
	case p.TFASecret == "":
		return TFANotEnrolled
	case !p.TFAEnabled:
		return TFAPendingConfirmation
	default:
		return TFAEnabled
	}
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims and lower-cases a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

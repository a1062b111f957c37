package accountsdk

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
	Username        string `json:"username"`
	Phone           string `json:"phone,omitempty"`
}

type RegisterResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

// MessageResponse carries a human readable outcome. Enumeration safe
// endpoints always return the same message.
type MessageResponse struct {
	Message string `json:"message"`
}

type ResetPasswordRequest struct {
	Email              string `json:"email"`
	Code               string `json:"code"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// TokenProfileResponse is the verified caller as seen by GET /auth/verify-token.
type TokenProfileResponse struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Name          string `json:"name"`
	UserName      string `json:"userName"`
	TFAEnabled    bool   `json:"tfaEnabled"`
}

// LoginResponse is returned by POST /auth/login. Token is empty when
// TFARequired is set.
type LoginResponse struct {
	TFARequired   bool   `json:"tfaRequired"`
	Token         string `json:"token"`
	Authenticated bool   `json:"authenticated"`
}

type CodeRequest struct {
	Code string `json:"code"`
}

type LoginTFAResponse struct {
	CustomToken   string `json:"customToken"`
	Authenticated bool   `json:"authenticated"`
}

// TFAGenerateResponse is the JSON form of POST /auth/tfa/generate. Secret is
// only present when the server exposes it.
type TFAGenerateResponse struct {
	OTPAuthURL string `json:"otpauthUrl"`
	Secret     string `json:"secret,omitempty"`
}

type TFAConfirmResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Local identity provider.

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ExchangeRequest struct {
	Token string `json:"token"`
}

type IDTokenResponse struct {
	IDToken   string `json:"idToken"`
	ExpiresIn int    `json:"expiresIn"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

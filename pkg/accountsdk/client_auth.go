package accountsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Register creates an identity provider account and its profile.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a recovery code. The response is identical
// whether or not the email is known.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/password/request", "", EmailRequest{Email: email}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/password/reset", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendEmailVerification(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", "", EmailRequest{Email: email}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) VerifyToken(ctx context.Context) (*TokenProfileResponse, error) {
	var out TokenProfileResponse
	if err := s.client.do(ctx, http.MethodGet, "/auth/verify-token", s.token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login returns an exchange token, or TFARequired when a code is needed.
func (s *Session) Login(ctx context.Context) (*LoginResponse, error) {
	var out LoginResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/login", s.token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) LoginTFA(ctx context.Context, code string) (*LoginTFAResponse, error) {
	var out LoginTFAResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/loginTfa", s.token, CodeRequest{Code: code}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTFA starts enrollment and returns the provisioning URI.
func (s *Session) GenerateTFA(ctx context.Context) (*TFAGenerateResponse, error) {
	var out TFAGenerateResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/tfa/generate?format=json", s.token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTFAQRCode starts enrollment and returns the QR code as PNG bytes.
func (s *Session) GenerateTFAQRCode(ctx context.Context) ([]byte, error) {
	resp, err := s.client.send(ctx, http.MethodPost, "/auth/tfa/generate", s.token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp, raw)
	}
	return raw, nil
}

func (s *Session) ConfirmTFA(ctx context.Context, code string) (*TFAConfirmResponse, error) {
	var out TFAConfirmResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/tfa/confirm", s.token, CodeRequest{Code: code}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 30
)

// validEmail accepts a bare address only, not "Name <addr>" forms.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func strongEnough(password string) bool {
	return utf8.RuneCountInString(password) >= minPasswordLength
}

// validateRegistration reports every rejected field, not just the first.
func validateRegistration(in RegisterInput) []FieldError {
	var fields []FieldError

	if !validEmail(in.Email) {
		fields = append(fields, FieldError{Field: "email", Reason: "must be a valid email address"})
	}
	if !strongEnough(in.Password) {
		fields = append(fields, FieldError{Field: "password", Reason: "must be at least 8 characters"})
	}
	if in.Password != in.ConfirmPassword {
		fields = append(fields, FieldError{Field: "confirmPassword", Reason: "must match password"})
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Username)); n < minUsernameLength || n > maxUsernameLength {
		fields = append(fields, FieldError{Field: "username", Reason: "must be between 3 and 30 characters"})
	}

	return fields
}

package auth

import (
	"errors"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Response codes carried by failed service replies.
const (
	CodeMissingCredentials = "missing_credentials"
	CodeWeakPassword       = "weak_password"
	CodeUsernameTaken      = "username_taken"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidToken       = "invalid_token"
	CodeExpiredToken       = "expired_token"
)

// CredentialsRequest is the body of both signup and login requests.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Token string          `json:"token,omitempty"`
	User  domain.Identity `json:"user"`
	Code  string          `json:"code,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Code     string `json:"code,omitempty"`
}

var codeErrors = map[string]error{
	CodeMissingCredentials: ErrMissingCredentials,
	CodeWeakPassword:       ErrWeakPassword,
	CodeUsernameTaken:      ErrUsernameTaken,
	CodeInvalidCredentials: ErrInvalidCredentials,
	CodeInvalidToken:       ErrInvalidToken,
	CodeExpiredToken:       ErrExpiredToken,
}

// errorCode returns the reply code for a business error, or "" when err is
// not one.
func errorCode(err error) string {
	for code, sentinel := range codeErrors {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

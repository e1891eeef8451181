package api

import domain "github.com/example/realtime-chat/domain/chat"

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

// CreateChannelRequest is the API request to create a channel.
type CreateChannelRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

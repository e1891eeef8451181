package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is what other modules use to reach the auth module.
type AuthPort interface {
	Signup(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	ValidateToken(ctx context.Context, token string) (domain.Identity, error)
}

// AuthAdapter implements AuthPort using the service container. Reply codes
// come back as the package's sentinel errors.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// Signup creates an account.
func (a *AuthAdapter) Signup(ctx context.Context, username, password string) (*Session, error) {
	return a.session(ctx, "signup", username, password)
}

// Login authenticates an existing account.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*Session, error) {
	return a.session(ctx, "login", username, password)
}

// ValidateToken validates a token and returns the identity it carries.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (domain.Identity, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Identity{}, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return domain.Identity{}, codeError(resp.Code, ErrInvalidToken)
	}

	return domain.Identity{UserID: resp.UserID, Username: resp.Username}, nil
}

func (a *AuthAdapter) session(ctx context.Context, service, username, password string) (*Session, error) {
	req := CredentialsRequest{Username: username, Password: password}
	var resp SessionResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", service, err)
	}

	if resp.Code != "" {
		return nil, codeError(resp.Code, fmt.Errorf("%s failed: %s", service, resp.Code))
	}

	return &Session{Token: resp.Token, User: resp.User}, nil
}

func codeError(code string, fallback error) error {
	if err, ok := codeErrors[code]; ok {
		return err
	}
	return fallback
}

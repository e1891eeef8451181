package api

import (
	"errors"
	"strings"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	// IdentityKey is the Fiber locals key holding the authenticated identity.
	IdentityKey = "identity"
)

var (
	// ErrNoToken is returned when a request carries no token.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken is returned when the token does not verify.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthMiddleware rejects requests without a valid Bearer token (or, for the
// socket handshake, a ?token= query parameter) and stores the caller's
// identity under IdentityKey.
func AuthMiddleware(authPort auth.AuthPort, logger types.Logger, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if allowQuery && token == "" {
			token = c.Query("token")
		}

		identity, err := authenticate(c, authPort, token)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				logger.Debug("Rejected token", "path", c.Path(), "error", err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: publicMessage(err),
			})
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, authPort auth.AuthPort, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrNoToken
	}
	identity, err := authPort.ValidateToken(c.UserContext(), token)
	if err != nil {
		return domain.Identity{}, errors.Join(ErrInvalidToken, err)
	}
	return identity, nil
}

// publicMessage is the rejection text sent to the client.
func publicMessage(err error) string {
	if errors.Is(err, ErrNoToken) {
		return "No token provided"
	}
	return "Invalid token"
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func identityFrom(c *fiber.Ctx) domain.Identity {
	identity, _ := c.Locals(IdentityKey).(domain.Identity)
	return identity
}

package api

import (
	"errors"
	"strconv"

	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/store"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", m.healthHandler)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", m.signup)
	authGroup.Post("/login", m.login)

	protected := AuthMiddleware(m.authAdapter, m.logger, false)
	api.Get("/channels", protected, m.listChannels)
	api.Post("/channels", protected, m.createChannel)
	api.Get("/messages/:channelId", protected, m.listMessages)

	// The token is checked before the upgrade so rejected handshakes get a
	// plain 401.
	app.Use("/socket", AuthMiddleware(m.authAdapter, m.logger, true), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/socket", websocket.New(m.handleSocket))
}

// healthHandler handles GET /api/health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

// signup handles POST /api/auth/signup.
func (m *APIModule) signup(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := m.authAdapter.Signup(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return m.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token: session.Token,
		User:  session.User,
	})
}

// login handles POST /api/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := m.authAdapter.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return m.handleError(c, err)
	}

	return c.JSON(AuthResponse{
		Token: session.Token,
		User:  session.User,
	})
}

// listChannels handles GET /api/channels.
func (m *APIModule) listChannels(c *fiber.Ctx) error {
	channels, err := m.storeAdapter.ListChannels(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(channels)
}

// createChannel handles POST /api/channels.
func (m *APIModule) createChannel(c *fiber.Ctx) error {
	var req CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	channel, err := m.storeAdapter.CreateChannel(c.UserContext(), req.Name)
	if err != nil {
		return m.handleError(c, err)
	}

	m.logger.Info("Channel created", "channelID", channel.ID, "name", channel.Name, "by", identityFrom(c).Username)
	return c.Status(fiber.StatusCreated).JSON(channel)
}

// listMessages handles GET /api/messages/:channelId.
func (m *APIModule) listMessages(c *fiber.Ctx) error {
	channelID, err := strconv.ParseInt(c.Params("channelId"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid channel id")
	}

	messages, err := m.storeAdapter.ListMessages(c.UserContext(), channelID, c.QueryInt("limit", 0))
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(messages)
}

// handleError maps service errors to HTTP responses without exposing
// internals.
func (m *APIModule) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return badRequest(c, "Username and password are required")
	case errors.Is(err, auth.ErrWeakPassword):
		return badRequest(c, "Password must be at least 6 characters")
	case errors.Is(err, auth.ErrUsernameTaken):
		return conflict(c, "Username already taken")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid credentials",
		})
	case errors.Is(err, store.ErrChannelNameRequired):
		return badRequest(c, "Channel name is required")
	case errors.Is(err, store.ErrChannelExists):
		return conflict(c, "Channel already exists")
	default:
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Server error",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func conflict(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
		Error:   "conflict",
		Message: message,
	})
}

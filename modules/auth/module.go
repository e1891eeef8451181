package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/internal/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// AuthModule provides signup, login and token validation services.
type AuthModule struct {
	db      *gorm.DB
	service *AuthService
	dbPath  string
	jwt     JWTConfig
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule configured from the environment.
func NewModule(logger types.Logger) *AuthModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = database.DefaultPath
	}
	return &AuthModule{
		dbPath: dbPath,
		jwt:    loadJWTConfig(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the database and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbPath)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewAuthService(
		NewUserRepository(db),
		NewPasswordHasher(0),
		NewJWTManager(m.jwt),
	)

	m.logger.Info("Auth module started", "database", m.dbPath, "tokenTTL", m.jwt.TokenDuration.String())
	return nil
}

// Stop closes the database.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Auth module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "signup", json.Unmarshal, json.Marshal, m.handleSignup,
	); err != nil {
		return fmt.Errorf("failed to register signup service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	m.logger.Info("Registered services", "services", "signup, login, validate-token")
	return nil
}

func (m *AuthModule) handleSignup(ctx context.Context, req CredentialsRequest, _ *mono.Msg) (SessionResponse, error) {
	return sessionReply(m.service.Signup(ctx, req.Username, req.Password))
}

func (m *AuthModule) handleLogin(ctx context.Context, req CredentialsRequest, _ *mono.Msg) (SessionResponse, error) {
	return sessionReply(m.service.Login(ctx, req.Username, req.Password))
}

// handleValidateToken reports rejected tokens in the reply, not as an error.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	identity, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		code := CodeInvalidToken
		if errors.Is(err, ErrExpiredToken) {
			code = CodeExpiredToken
		}
		return ValidateTokenResponse{Valid: false, Code: code}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   identity.UserID,
		Username: identity.Username,
	}, nil
}

func sessionReply(session *Session, err error) (SessionResponse, error) {
	if err != nil {
		if code := errorCode(err); code != "" {
			return SessionResponse{Code: code}, nil
		}
		return SessionResponse{}, err
	}
	return SessionResponse{Token: session.Token, User: session.User}, nil
}

// loadJWTConfig loads JWT configuration from environment variables.
func loadJWTConfig(log types.Logger) JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.SecretKey = secret
	}

	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			log.Warn("Ignoring invalid JWT_TTL", "value", ttl)
		} else {
			config.TokenDuration = d
		}
	}

	return config
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/config"
	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/repository"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// AuthService verifies credentials and mints bearer tokens.
type AuthService struct {
	store  repository.Store
	tokens *auth.TokenManager
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, store repository.Store, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:    cfg,
		logger: logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login checks the password and issues a token carrying username and role.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// ListUsers returns all accounts, for assignee pickers.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().List(ctx)
}

// EnsureDefaultUsers seeds one account per role when the users table is
// empty, so a fresh deployment is usable immediately.
func (s *AuthService) EnsureDefaultUsers(ctx context.Context) error {
	count, err := s.store.Users().Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		username string
		password string
		role     domain.Role
	}{
		{"admin", "admin", domain.RoleAdmin},
		{"manager", "manager", domain.RoleManager},
		{"engineer", "engineer", domain.RoleEngineer},
	}
	for _, d := range defaults {
		hash, err := auth.HashPassword(d.password, s.cfg.BcryptCost)
		if err != nil {
			return err
		}
		user := &domain.User{Username: d.username, PasswordHash: hash, Role: d.role}
		if err := s.store.Users().Create(ctx, user); err != nil {
			return err
		}
		s.logger.Info("seeded default user", zap.String("username", d.username), zap.String("role", string(d.role)))
	}
	return nil
}

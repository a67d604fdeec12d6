package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
	"github.com/jwalitptl/opd-scheduler/pkg/auth"
	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/security"
)

// Service handles portal login and account bootstrap.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens auth.JWTService
	log    *logger.Logger
}

func NewService(
	users repository.UserRepository,
	hasher security.PasswordHasher,
	tokens auth.JWTService,
	log *logger.Logger,
) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, apperrors.Unauthorized(errors.New("unknown user"))
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Active {
		return "", nil, apperrors.Unauthorized(errors.New("account disabled"))
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, apperrors.Unauthorized(errors.New("bad credentials"))
	}
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.log.Info("user logged in", "username", user.Username, "role", user.Role)
	return token, user, nil
}

// EnsureDefaultAdmin creates the initial admin account when no user with
// the given username exists yet.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check admin account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	user := &model.User{
		Username:     username,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	s.log.Info("default admin created", "username", username)
	return nil
}

// CreateUser registers a portal account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, name, password, role string) (*model.User, error) {
	switch role {
	case model.RoleAdmin, model.RolePR, model.RoleMedicalAdmin, model.RoleViewOnly:
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown role %q", role), nil)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}
	user := &model.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

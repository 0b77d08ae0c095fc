package user

import (
	"context"
	"errors"

	"resto-be/internal/auth"
	"resto-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, password, role string) (User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	HasRole(ctx context.Context, userID uint, roles []string) (bool, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{repo: repo, jwtSecret: jwtSecret}
}

// Register creates an active account. There is no public sign-up; staff
// accounts are created from the command line.
func (s *service) Register(ctx context.Context, email, password, role string) (User, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Register"))

	switch role {
	case auth.RoleAdmin, auth.RoleStaff, auth.RoleCustomer:
	default:
		return User{}, ErrInvalidRole
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, email, hashed, role)
	if err != nil {
		return User{}, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Login"))

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login rejected: unknown email")
			return "", User{}, ErrInvalidCredentials
		}
		log.Error("failed to load user", zap.Error(err))
		return "", User{}, err
	}

	if !u.Active || !CheckPasswordHash(password, u.Password) {
		log.Info("login rejected", zap.Uint("user_id", u.ID))
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateJWT(s.jwtSecret, u.ID, u.Role, u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", User{}, err
	}

	u.Password = ""
	return token, u, nil
}

// HasRole answers from the user store, not from token claims, so a demoted or
// deactivated user loses access before their token expires.
func (s *service) HasRole(ctx context.Context, userID uint, roles []string) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	role, err := s.repo.GetRole(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

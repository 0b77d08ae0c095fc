package user

import (
	"context"
	"database/sql"
	"errors"

	"resto-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, email, passwordHash, role string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	GetRole(ctx context.Context, userID uint) (string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, email, passwordHash, role string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password, role) VALUES ($1, $2, $3) RETURNING id, email, role, active",
		email, passwordHash, role,
	).Scan(&u.ID, &u.Email, &u.Role, &u.Active)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return User{}, ErrEmailExists
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert user",
			zap.String("email", email),
			zap.Error(err),
		)
		return User{}, err
	}
	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password, role, active FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.Active)

	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

func (r *repository) GetRole(ctx context.Context, userID uint) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM users WHERE id = $1 AND active = TRUE",
		userID,
	).Scan(&role)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user role",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return "", err
	}
	return role, nil
}

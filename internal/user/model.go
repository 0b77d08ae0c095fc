package user

import "errors"

type User struct {
	ID       uint
	Email    string
	Password string
	Role     string
	Active   bool
}

const pgUniqueViolation = "23505"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidRole        = errors.New("unknown role")
)

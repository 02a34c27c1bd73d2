package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is not set")
	ErrInvalidToken       = errors.New("invalid token")

	pgUniqueViolation = "23505"
)

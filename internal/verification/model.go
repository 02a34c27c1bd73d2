package verification

import (
	"errors"
	"time"
)

const (
	CodeDigits = 6
	// MaxAttempts is how many wrong guesses a code survives.
	MaxAttempts = 5
)

var (
	ErrInvalidCode     = errors.New("invalid or expired verification code")
	ErrTooManyAttempts = errors.New("too many wrong codes, request a new one")
	ErrMissingEmail    = errors.New("email is required")
)

// Code is a single-use email verification code.
type Code struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

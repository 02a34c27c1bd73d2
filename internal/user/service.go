package user

import (
	"context"
	"errors"
	"net/mail"

	"esl-be/internal/logger"
	"esl-be/internal/utils"

	"go.uber.org/zap"
)

const minPasswordLen = 8

type Service interface {
	Register(ctx context.Context, email, password string) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	MarkEmailVerified(ctx context.Context, email string) error
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{repo: repo, jwtSecret: jwtSecret}
}

func (s *service) Register(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx)
	email = utils.NormalizeEmail(email)

	if _, err := mail.ParseAddress(email); err != nil {
		return "", nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return "", nil, ErrWeakPassword
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, email, hashed, string(RoleUser))
	if err != nil {
		if !errors.Is(err, ErrEmailExists) {
			log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		}
		return "", nil, err
	}

	token, err := GenerateJWT(s.jwtSecret, u.ID, string(u.Role), u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("register service completed",
		zap.Uint("user_id", u.ID),
		zap.String("email", email),
	)

	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx)
	email = utils.NormalizeEmail(email)

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login: email not found")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("login: password mismatch", zap.Uint("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateJWT(s.jwtSecret, u.ID, string(u.Role), u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
}

func (s *service) MarkEmailVerified(ctx context.Context, email string) error {
	return s.repo.MarkEmailVerified(ctx, utils.NormalizeEmail(email))
}

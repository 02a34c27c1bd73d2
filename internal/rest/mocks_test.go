package rest

import (
	"context"

	"esl-be/internal/checkout"
	"esl-be/internal/payment"
	"esl-be/internal/user"
	"esl-be/internal/verification"

	"github.com/stretchr/testify/mock"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Initiate(ctx context.Context, caller checkout.Caller, in checkout.InitiateInput) (*checkout.InitiateResult, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.InitiateResult), args.Error(1)
}

func (m *MockCheckoutService) Verify(ctx context.Context, caller checkout.Caller, in checkout.VerifyInput) (*payment.Verification, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Verification), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) MarkEmailVerified(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Issue(ctx context.Context, email string) (*verification.Code, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.Code), args.Error(1)
}

func (m *MockVerificationService) Verify(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

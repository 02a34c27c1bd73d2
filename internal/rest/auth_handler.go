package rest

import (
	"errors"
	"net/http"
	"time"

	"esl-be/internal/auth"
	"esl-be/internal/logger"
	"esl-be/internal/user"
	"esl-be/internal/utils"
	"esl-be/internal/verification"

	"go.uber.org/zap"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

type CodeIssuedResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expires_at"`
	Code      string    `json:"code,omitempty"`
}

type AuthHandler struct {
	Users user.Service
	Codes verification.Service
	// Production hides issued codes and marks the session cookie secure.
	Production bool
}

func NewAuthHandler(users user.Service, codes verification.Service, production bool) *AuthHandler {
	return &AuthHandler{Users: users, Codes: codes, Production: production}
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, u, err := h.Users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrWeakPassword):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, user.ErrEmailExists):
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		default:
			logger.FromCtx(r.Context()).Error("register failed", zap.Error(err))
			utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	auth.SetAccessTokenCookie(w, token, user.TokenTTL, h.Production)
	utils.WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(u)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, u, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		logger.FromCtx(r.Context()).Error("login failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	auth.SetAccessTokenCookie(w, token, user.TokenTTL, h.Production)
	utils.WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserResponse(u)})
}

// RequestCode issues an email verification code. The code itself is only
// echoed back outside production.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.Codes.Issue(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, verification.ErrMissingEmail) {
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := CodeIssuedResponse{Success: true, ExpiresAt: c.ExpiresAt.UTC()}
	if !h.Production {
		resp.Code = c.Code
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) ConfirmCode(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Codes.Verify(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, verification.ErrInvalidCode), errors.Is(err, verification.ErrMissingEmail):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, verification.ErrTooManyAttempts):
			utils.WriteJSONError(w, err.Error(), http.StatusTooManyRequests)
		default:
			logger.FromCtx(r.Context()).Error("verify code failed", zap.Error(err))
			utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.Users.MarkEmailVerified(r.Context(), req.Email); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.FromCtx(r.Context()).Error("mark email verified failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

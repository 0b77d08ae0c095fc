package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"resto-be/internal/logger"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	svc    Service
	secure bool
}

// NewHandler serves the login endpoint. secure marks the access_token cookie
// Secure, which production deployments behind TLS want.
func NewHandler(svc Service, secure bool) *Handler {
	return &Handler{svc: svc, secure: secure}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.Login)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&input); err != nil {
		utils.WriteJSONError(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.WriteJSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Login(r.Context(), input.Email, input.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.FromCtx(r.Context()).Error("login failed", zap.String("layer", "handler"), zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSON(w, http.StatusOK, authResponse{
		Token: token,
		User: userResponse{
			ID:    fmt.Sprint(u.ID),
			Email: u.Email,
			Role:  u.Role,
		},
	})
}

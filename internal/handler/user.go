package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/identity"
	"github.com/danuwirya/homechore/internal/store"
)

type UserHandler struct {
	users    *store.UserStore
	identity *identity.Service
	logger   *slog.Logger
}

func NewUserHandler(us *store.UserStore, svc *identity.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, identity: svc, logger: logger}
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.FullName == nil && req.AvatarURL == nil {
		writeError(w, fmt.Errorf("no valid fields to update: %w", apperr.ErrValidation))
		return
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		writeError(w, fmt.Errorf("full_name cannot be empty: %w", apperr.ErrValidation))
		return
	}

	user, err := h.users.UpdateProfile(userID, req.FullName, req.AvatarURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword requires the current password before setting the new one.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.NewPassword == "" {
		writeError(w, fmt.Errorf("new_password is required: %w", apperr.ErrValidation))
		return
	}

	if err := h.identity.VerifyPassword(userID, req.CurrentPassword); err != nil {
		writeError(w, fmt.Errorf("current password is incorrect: %w", apperr.ErrValidation))
		return
	}
	if err := h.identity.SetPassword(userID, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "password updated")
}

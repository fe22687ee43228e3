package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/household"
	"github.com/danuwirya/homechore/internal/identity"
	"github.com/danuwirya/homechore/internal/middleware"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

const (
	accessCookieTTL  = 7 * 24 * time.Hour
	refreshCookieTTL = 30 * 24 * time.Hour
)

type AuthHandler struct {
	identity      *identity.Service
	users         *store.UserStore
	directory     *household.Directory
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(svc *identity.Service, us *store.UserStore, d *household.Directory, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:      svc,
		users:         us,
		directory:     d,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Action     string `json:"action"`
	GroupName  string `json:"group_name"`
	InviteCode string `json:"invite_code"`
}

type sessionPayload struct {
	User       *model.User       `json:"user"`
	HouseGroup *model.HouseGroup `json:"house_group,omitempty"`
}

// Register creates an account and either founds a new house group or joins
// an existing one via invite code. If group setup fails after the identity
// was created, the identity is deleted so the email can be retried.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		writeError(w, fmt.Errorf("full_name is required: %w", apperr.ErrValidation))
		return
	}

	switch req.Action {
	case "create":
		if strings.TrimSpace(req.GroupName) == "" {
			writeError(w, fmt.Errorf("group_name is required: %w", apperr.ErrValidation))
			return
		}
	case "join":
		if strings.TrimSpace(req.InviteCode) == "" {
			writeError(w, fmt.Errorf("invite_code is required: %w", apperr.ErrValidation))
			return
		}
	default:
		writeError(w, fmt.Errorf("action must be create or join: %w", apperr.ErrValidation))
		return
	}

	cred, err := h.identity.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user, group, err := h.setupMembership(cred.UserID, cred.Email, req)
	if err != nil {
		if delErr := h.identity.Delete(cred.UserID); delErr != nil {
			h.logger.Error("cleanup identity after failed registration", "user_id", cred.UserID, "error", delErr)
		}
		writeError(w, err)
		return
	}

	sess, err := h.identity.Authenticate(cred.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSessionCookies(w, sess)

	writeData(w, http.StatusOK, sessionPayload{User: user, HouseGroup: group})
}

func (h *AuthHandler) setupMembership(userID, email string, req registerRequest) (*model.User, *model.HouseGroup, error) {
	if req.Action == "create" {
		group, err := h.directory.CreateGroup(req.GroupName, userID)
		if err != nil {
			return nil, nil, err
		}
		user, err := h.users.Create(userID, req.FullName, email, group.ID, model.RoleAdmin)
		if err != nil {
			return nil, nil, fmt.Errorf("create user: %w", err)
		}
		return user, group, nil
	}

	group, validation, err := h.directory.ResolveJoinCode(req.InviteCode)
	if err != nil {
		return nil, nil, err
	}
	user, err := h.directory.JoinGroup(group.ID, userID, req.FullName, email, validation)
	if err != nil {
		return nil, nil, err
	}
	return user, group, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.identity.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByID(sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, fmt.Errorf("account has no profile: %w", apperr.ErrUnauthenticated))
		return
	}

	h.setSessionCookies(w, sess)
	writeData(w, http.StatusOK, h.payloadFor(user))
}

// Logout revokes the session if one exists and always clears the cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.AccessCookieName); err == nil && cookie.Value != "" {
		if err := h.identity.Revoke(cookie.Value); err != nil {
			h.logger.Warn("revoke session", "error", err)
		}
	}
	middleware.ClearSessionCookies(w)
	writeMessage(w, http.StatusOK, nil, "logged out")
}

// Session returns the authenticated user and their house group. Mounted
// behind the auth middleware, which handles the 401 path.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	user, err := h.users.GetByID(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		middleware.ClearSessionCookies(w)
		writeError(w, fmt.Errorf("not authenticated: %w", apperr.ErrUnauthenticated))
		return
	}
	writeData(w, http.StatusOK, h.payloadFor(user))
}

// Refresh rotates the session using the refresh-token cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		middleware.ClearSessionCookies(w)
		writeError(w, fmt.Errorf("not authenticated: %w", apperr.ErrUnauthenticated))
		return
	}

	sess, err := h.identity.Refresh(cookie.Value)
	if err != nil {
		middleware.ClearSessionCookies(w)
		writeError(w, err)
		return
	}

	h.setSessionCookies(w, sess)
	writeMessage(w, http.StatusOK, nil, "session refreshed")
}

func (h *AuthHandler) payloadFor(user *model.User) sessionPayload {
	payload := sessionPayload{User: user}
	if user.HouseGroupID != nil {
		if summary, err := h.directory.GetGroup(*user.HouseGroupID); err == nil && summary != nil {
			payload.HouseGroup = &summary.HouseGroup
		}
	}
	return payload
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		MaxAge:   int(accessCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    sess.RefreshToken,
		Path:     "/",
		MaxAge:   int(refreshCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/invite"
	"github.com/danuwirya/homechore/internal/policy"
)

type InviteHandler struct {
	issuer *invite.Issuer
	logger *slog.Logger
}

func NewInviteHandler(i *invite.Issuer, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{issuer: i, logger: logger}
}

type createInviteRequest struct {
	Email         *string `json:"email"`
	ExpiresInDays int     `json:"expires_in_days"`
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpIssueInvite, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.issuer.Issue(ac.HouseGroupID, ac.UserID, req.Email, req.ExpiresInDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, inv)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpListInvites, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	invites, err := h.issuer.ListActive(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, invites)
}

type validateResponse struct {
	Valid           bool   `json:"valid"`
	Reason          string `json:"reason,omitempty"`
	HouseGroupID    string `json:"house_group_id,omitempty"`
	GroupInviteCode string `json:"group_invite_code,omitempty"`
}

// Validate is public: the registration form checks a code before the
// account exists. It reports validity without touching the invite.
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	v, err := h.issuer.Validate(code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, validateResponse{
		Valid:           v.Valid,
		Reason:          v.Reason,
		HouseGroupID:    v.HouseGroupID,
		GroupInviteCode: v.GroupInviteCode,
	})
}

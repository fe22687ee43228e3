package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/household"
	"github.com/danuwirya/homechore/internal/identity"
	"github.com/danuwirya/homechore/internal/policy"
	"github.com/danuwirya/homechore/internal/websocket"
)

type MemberHandler struct {
	directory *household.Directory
	identity  *identity.Service
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewMemberHandler(d *household.Directory, svc *identity.Service, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{directory: d, identity: svc, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(groupID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	members, err := h.directory.ListMembers(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, members)
}

type changeRoleRequest struct {
	Action string `json:"action"`
}

// ChangeRole promotes or demotes another member. Demoting the last admin
// is rejected so the group always has one.
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpChangeRole, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Action != "promote" && req.Action != "demote" {
		writeError(w, fmt.Errorf("action must be promote or demote: %w", apperr.ErrValidation))
		return
	}

	updated, err := h.directory.ChangeRole(ac.HouseGroupID, ac.UserID, r.PathValue("id"), req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("member", "role_changed", updated.ID, map[string]any{"role": updated.Role}))
	writeData(w, http.StatusOK, updated)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpRemoveMember, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	targetID := r.PathValue("id")
	if err := h.directory.RemoveMember(ac.HouseGroupID, ac.UserID, targetID); err != nil {
		writeError(w, err)
		return
	}

	// Best effort: the directory row is gone, so free the credential too or
	// the email can never register again.
	if err := h.identity.Delete(targetID); err != nil {
		h.logger.Warn("failed to delete identity for removed member", "user_id", targetID, "error", err)
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("member", "removed", targetID, nil))
	writeMessage(w, http.StatusOK, nil, "member removed")
}

// Leave lets the caller exit their own group. The last admin cannot leave.
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.directory.LeaveGroup(ac.HouseGroupID, ac.UserID); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("member", "removed", ac.UserID, nil))
	writeMessage(w, http.StatusOK, nil, "left house group")
}

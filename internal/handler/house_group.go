package handler

import (
	"log/slog"
	"net/http"

	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/household"
	"github.com/danuwirya/homechore/internal/policy"
)

type HouseGroupHandler struct {
	directory *household.Directory
	logger    *slog.Logger
}

func NewHouseGroupHandler(d *household.Directory, logger *slog.Logger) *HouseGroupHandler {
	return &HouseGroupHandler{directory: d, logger: logger}
}

func (h *HouseGroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	summary, err := h.directory.GetGroup(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

// RegenerateCode replaces the group's shared invite code. The old code stops
// working immediately; standalone invites are unaffected.
func (h *HouseGroupHandler) RegenerateCode(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpRegenerateCode, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.directory.RegenerateInviteCode(ac.HouseGroupID); err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.directory.GetGroup(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

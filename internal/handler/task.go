package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/policy"
	"github.com/danuwirya/homechore/internal/task"
	"github.com/danuwirya/homechore/internal/websocket"
)

type TaskHandler struct {
	manager *task.Manager
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewTaskHandler(m *task.Manager, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{manager: m, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(groupID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssignedTo  string  `json:"assigned_to"`
	Deadline    string  `json:"deadline"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpCreateTask, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.manager.Create(ac.HouseGroupID, ac.UserID, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Deadline:    deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task", "created", created.ID, nil))
	writeData(w, http.StatusOK, created)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	opts := task.ListOptions{
		Status:   r.URL.Query().Get("status"),
		OnlyMine: r.URL.Query().Get("my_tasks") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("limit must be a non-negative integer: %w", apperr.ErrValidation))
			return
		}
		opts.Limit = n
	}

	tasks, err := h.manager.List(ac.HouseGroupID, ac.UserID, ac.Role, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	t, err := h.manager.Get(r.PathValue("id"), ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// Update applies a role-dependent patch. Admins may change any field;
// members may only attach proof and mark their task completed.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpUpdateTask, ac.Role); err != nil {
		writeError(w, err)
		return
	}
	taskID := r.PathValue("id")

	if auth.IsAdmin(r.Context()) {
		var patch task.AdminPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.manager.UpdateAdmin(taskID, ac.HouseGroupID, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		h.broadcast(ac.HouseGroupID, websocket.NewMessage("task", "updated", updated.ID, nil))
		writeData(w, http.StatusOK, updated)
		return
	}

	var patch task.MemberPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.manager.UpdateMember(taskID, ac.HouseGroupID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task", "updated", updated.ID, nil))
	writeData(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpDeleteTask, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	taskID := r.PathValue("id")
	if err := h.manager.Delete(taskID, ac.HouseGroupID); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task", "deleted", taskID, nil))
	writeMessage(w, http.StatusOK, nil, "task deleted")
}

func parseDeadline(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("deadline is required: %w", apperr.ErrValidation)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("deadline must be RFC 3339 or YYYY-MM-DD: %w", apperr.ErrValidation)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/policy"
	"github.com/danuwirya/homechore/internal/task"
	"github.com/danuwirya/homechore/internal/websocket"
)

type TaskRequestHandler struct {
	workflow *task.Workflow
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTaskRequestHandler(w *task.Workflow, hub *websocket.Hub, logger *slog.Logger) *TaskRequestHandler {
	return &TaskRequestHandler{workflow: w, hub: hub, logger: logger}
}

func (h *TaskRequestHandler) broadcast(groupID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

type submitRequestBody struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assigned_to"`
	Deadline    *time.Time `json:"deadline"`
}

func (h *TaskRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpSubmitRequest, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	var req submitRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.workflow.Submit(ac.HouseGroupID, ac.UserID, task.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task_request", "created", created.ID, nil))
	writeData(w, http.StatusOK, created)
}

func (h *TaskRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	requests, err := h.workflow.List(ac.HouseGroupID, ac.UserID, ac.Role, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, requests)
}

type reviewRequestBody struct {
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason"`
	AssignedTo      *string    `json:"assigned_to"`
	Deadline        *time.Time `json:"deadline"`
}

// Review approves or rejects a pending request. Approval promotes it into
// a task; the result carries both the request and the created task.
func (h *TaskRequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpReviewRequest, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	var req reviewRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.workflow.Review(r.PathValue("id"), ac.HouseGroupID, ac.UserID, task.Decision{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		AssignedTo:      req.AssignedTo,
		Deadline:        req.Deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task_request", result.Request.Status, result.Request.ID, nil))
	if result.Task != nil {
		h.broadcast(ac.HouseGroupID, websocket.NewMessage("task", "created", result.Task.ID, nil))
	}
	writeData(w, http.StatusOK, result)
}

func (h *TaskRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := policy.Authorize(policy.OpDeleteRequest, ac.Role); err != nil {
		writeError(w, err)
		return
	}

	requestID := r.PathValue("id")
	if err := h.workflow.Delete(requestID, ac.HouseGroupID); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(ac.HouseGroupID, websocket.NewMessage("task_request", "deleted", requestID, nil))
	writeMessage(w, http.StatusOK, nil, "task request deleted")
}

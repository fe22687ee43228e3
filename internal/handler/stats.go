package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/model"
	"github.com/danuwirya/homechore/internal/store"
)

type StatsHandler struct {
	tasks    *store.TaskStore
	requests *store.TaskRequestStore
	users    *store.UserStore
	logger   *slog.Logger
}

func NewStatsHandler(ts *store.TaskStore, rs *store.TaskRequestStore, us *store.UserStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{tasks: ts, requests: rs, users: us, logger: logger}
}

type dashboardStats struct {
	TotalTasks      int `json:"total_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	VerifiedTasks   int `json:"verified_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`
	PendingRequests int `json:"pending_requests"`
	MemberCount     int `json:"member_count"`
}

// Dashboard returns group-wide counts for admins and per-assignee counts
// for members.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	assignedTo := ""
	if ac.Role != model.RoleAdmin {
		assignedTo = ac.UserID
	}

	counts, err := h.tasks.StatusCounts(ac.HouseGroupID, assignedTo)
	if err != nil {
		writeError(w, err)
		return
	}
	overdue, err := h.tasks.CountOverdue(ac.HouseGroupID, assignedTo, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	pendingReqs, err := h.requests.CountPending(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := h.users.CountByGroup(ac.HouseGroupID)
	if err != nil {
		writeError(w, err)
		return
	}

	stats := dashboardStats{
		PendingTasks:    counts[model.TaskStatusPending],
		CompletedTasks:  counts[model.TaskStatusCompleted],
		VerifiedTasks:   counts[model.TaskStatusVerified],
		OverdueTasks:    overdue,
		PendingRequests: pendingReqs,
		MemberCount:     members,
	}
	stats.TotalTasks = stats.PendingTasks + stats.CompletedTasks + stats.VerifiedTasks

	writeData(w, http.StatusOK, stats)
}

type userStats struct {
	AssignedTasks  int `json:"assigned_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	VerifiedTasks  int `json:"verified_tasks"`
}

// User returns counts for tasks assigned to the caller.
func (h *StatsHandler) User(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	counts, err := h.tasks.AssigneeStatusCounts(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	stats := userStats{
		PendingTasks:   counts[model.TaskStatusPending],
		CompletedTasks: counts[model.TaskStatusCompleted],
		VerifiedTasks:  counts[model.TaskStatusVerified],
	}
	stats.AssignedTasks = stats.PendingTasks + stats.CompletedTasks + stats.VerifiedTasks

	writeData(w, http.StatusOK, stats)
}

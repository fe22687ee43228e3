package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danuwirya/homechore/internal/handler"
	"github.com/danuwirya/homechore/internal/household"
	"github.com/danuwirya/homechore/internal/identity"
	"github.com/danuwirya/homechore/internal/invite"
	"github.com/danuwirya/homechore/internal/middleware"
	"github.com/danuwirya/homechore/internal/storage"
	"github.com/danuwirya/homechore/internal/store"
	"github.com/danuwirya/homechore/internal/task"
	ws "github.com/danuwirya/homechore/internal/websocket"
)

// Config carries the server-level settings main reads from the environment.
type Config struct {
	SecureCookies bool
	Storage       storage.Config
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	taskH        *handler.TaskHandler
	requestH     *handler.TaskRequestHandler
	memberH      *handler.MemberHandler
	inviteH      *handler.InviteHandler
	houseGroupH  *handler.HouseGroupHandler
	userH        *handler.UserHandler
	uploadH      *handler.UploadHandler
	statsH       *handler.StatsHandler
	identitySvc  *identity.Service
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	groupStore := store.NewHouseGroupStore(db)
	inviteStore := store.NewInviteStore(db)
	taskStore := store.NewTaskStore(db)
	requestStore := store.NewTaskRequestStore(db)
	sessionStore := store.NewSessionStore(db)
	credentialStore := store.NewCredentialStore(db)

	identitySvc := identity.NewService(credentialStore, sessionStore)
	issuer := invite.NewIssuer(inviteStore, groupStore)
	directory := household.NewDirectory(groupStore, userStore, issuer)
	taskManager := task.NewManager(taskStore, userStore)
	workflow := task.NewWorkflow(requestStore)
	uploader := storage.NewUploader(cfg.Storage)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(identitySvc, userStore, directory, cfg.SecureCookies, logger.With("component", "auth")),
		taskH:        handler.NewTaskHandler(taskManager, hub, logger.With("component", "task")),
		requestH:     handler.NewTaskRequestHandler(workflow, hub, logger.With("component", "task_request")),
		memberH:      handler.NewMemberHandler(directory, identitySvc, hub, logger.With("component", "member")),
		inviteH:      handler.NewInviteHandler(issuer, logger.With("component", "invite")),
		houseGroupH:  handler.NewHouseGroupHandler(directory, logger.With("component", "house_group")),
		userH:        handler.NewUserHandler(userStore, identitySvc, logger.With("component", "user")),
		uploadH:      handler.NewUploadHandler(uploader, logger.With("component", "upload")),
		statsH:       handler.NewStatsHandler(taskStore, requestStore, userStore, logger.With("component", "stats")),
		identitySvc:  identitySvc,
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/refresh", s.rateLimitedHandler(s.authH.Refresh))
	outerMux.HandleFunc("POST /auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /invites/validate", s.inviteH.Validate)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.identitySvc, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session and profile routes work without a house group
	mux.HandleFunc("GET /auth/session", s.authH.Session)
	mux.HandleFunc("PUT /user", s.userH.UpdateProfile)
	mux.HandleFunc("PUT /user/password", s.userH.ChangePassword)

	// Everything below needs group membership
	grouped := http.NewServeMux()

	grouped.HandleFunc("GET /tasks", s.taskH.List)
	grouped.HandleFunc("POST /tasks", s.taskH.Create)
	grouped.HandleFunc("GET /tasks/{id}", s.taskH.Get)
	grouped.HandleFunc("PUT /tasks/{id}", s.taskH.Update)
	grouped.HandleFunc("DELETE /tasks/{id}", s.taskH.Delete)

	grouped.HandleFunc("GET /task-requests", s.requestH.List)
	grouped.HandleFunc("POST /task-requests", s.requestH.Submit)
	grouped.HandleFunc("PUT /task-requests/{id}", s.requestH.Review)
	grouped.HandleFunc("DELETE /task-requests/{id}", s.requestH.Delete)

	grouped.HandleFunc("GET /members", s.memberH.List)
	grouped.HandleFunc("PUT /members/{id}", s.memberH.ChangeRole)
	grouped.HandleFunc("DELETE /members/{id}", s.memberH.Remove)
	grouped.HandleFunc("POST /members/leave", s.memberH.Leave)

	grouped.HandleFunc("GET /invites", s.inviteH.List)
	grouped.HandleFunc("POST /invites", s.inviteH.Create)

	grouped.HandleFunc("GET /house-group", s.houseGroupH.Get)
	grouped.HandleFunc("POST /house-group/regenerate", s.houseGroupH.RegenerateCode)

	grouped.HandleFunc("POST /upload", s.uploadH.Upload)

	grouped.HandleFunc("GET /dashboard/stats", s.statsH.Dashboard)
	grouped.HandleFunc("GET /user/stats", s.statsH.User)

	grouped.Handle("GET /ws", ws.HandleWebSocket(s.hub))

	mux.Handle("/", middleware.RequireGroup(grouped))
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danuwirya/homechore/internal/database"
	"github.com/danuwirya/homechore/internal/logging"
	"github.com/danuwirya/homechore/internal/server"
	"github.com/danuwirya/homechore/internal/storage"
)

func main() {
	logger := logging.Setup(os.Getenv("HOMECHORE_LOG_LEVEL"))

	port := os.Getenv("HOMECHORE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOMECHORE_DB_PATH")
	if dbPath == "" {
		dbPath = "homechore.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		SecureCookies: os.Getenv("HOMECHORE_ENV") == "production",
		Storage: storage.Config{
			Endpoint:      os.Getenv("HOMECHORE_S3_ENDPOINT"),
			Region:        os.Getenv("HOMECHORE_S3_REGION"),
			AccessKey:     os.Getenv("HOMECHORE_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("HOMECHORE_S3_SECRET_KEY"),
			DefaultBucket: os.Getenv("HOMECHORE_S3_BUCKET"),
			PublicBaseURL: os.Getenv("HOMECHORE_S3_PUBLIC_URL"),
		},
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("homechore starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

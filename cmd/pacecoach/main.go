package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carmody/pacecoach/internal/auth"
	"github.com/carmody/pacecoach/internal/database"
	"github.com/carmody/pacecoach/internal/handlers"
	"github.com/carmody/pacecoach/internal/middleware"
)

func main() {
	dbPath := envOr("PACECOACH_DB_PATH", "./data/pacecoach.db")
	addr := envOr("PACECOACH_ADDR", ":8080")
	env := envOr("PACECOACH_ENV", "development")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("main: open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("main: migrations: %v", err)
	}

	// A configured identity provider URL switches token verification to the
	// hosted service; otherwise tokens resolve against the local table.
	var verifier auth.Verifier
	if verifyURL := os.Getenv("PACECOACH_AUTH_URL"); verifyURL != "" {
		verifier = auth.NewRemoteVerifier(verifyURL)
		log.Printf("main: using remote token verification at %s", verifyURL)
	} else {
		verifier = auth.NewLocalVerifier(db)
		log.Printf("main: using local token verification")
	}

	originCfg := middleware.OriginConfig{
		PublicOrigin: os.Getenv("PACECOACH_PUBLIC_ORIGIN"),
		AuthOrigins:  splitOrigins(os.Getenv("PACECOACH_AUTH_ORIGINS")),
		Development:  env != "production",
	}

	// Generation endpoints cost an LLM call each; keep the per-user cap low.
	limiter := middleware.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	messages := &handlers.Messages{DB: db, Env: env}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recover)
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.BodyLimit(middleware.MaxRequestBody))
		api.Use(middleware.VerifyOrigin(originCfg))
		api.Use(middleware.RequireAuth(verifier))
		api.Use(limiter.Middleware)

		api.Post("/generate-coaching-message", messages.GenerateWeekly)
		api.Post("/generate-daily-coach-message", messages.GenerateDaily)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation can hold a request open for the full LLM call.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("main: listening on %s (env=%s)", addr, env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main: server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("main: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("main: shutdown: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

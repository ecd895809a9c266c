package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"glowme.io/internal/account"
	"glowme.io/internal/config"
	"glowme.io/internal/csrf"
	"glowme.io/internal/httpapi"
	"glowme.io/internal/obs"
	"glowme.io/internal/ratelimit"
	"glowme.io/internal/session"
)

var (
	version = "1.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Stores: Postgres when a DSN is configured, in-process otherwise
	// (local development only — memory state dies with the process).
	var (
		sessions session.Store
		accounts account.Store
	)
	if db != nil {
		sessions = session.NewPGStore(db)
		accounts = account.NewPGStore(db)
	} else {
		log.Println("no DSN configured, using in-memory stores")
		sessions = session.NewMemoryStore()
		accounts = account.NewMemoryStore()
	}

	limiterCfg := ratelimit.Config{
		Enabled:  cfg.LoginRateLimitEnabled,
		MaxFails: cfg.LoginMaxFails,
		Window:   cfg.LoginWindow,
	}
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedis(limiterCfg, rdb)
	} else {
		limiter = ratelimit.NewMemory(limiterCfg)
	}

	csrfMgr := csrf.NewManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CSRFMaxAge, cfg.CSRFEnforce)

	api := httpapi.New(cfg, sessions, accounts, csrfMgr, limiter, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting glow-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

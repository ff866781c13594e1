package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/config"
	"datenwacht.org/internal/httpapi"
	"datenwacht.org/internal/inventory"
	"datenwacht.org/internal/obs"
	"datenwacht.org/internal/policy"
	"datenwacht.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	generator, err := policy.NewGenerator(cfg.AIProvider, cfg.AIModel, cfg.AIAPIKey)
	if err != nil {
		log.Fatalf("init policy generator: %v", err)
	}

	// Wiring: Postgres when a DSN is configured, process memory otherwise.
	var (
		inv      *inventory.Service
		policies *policy.Service
		dir      auth.Directory
		probe    httpapi.ReadyProbe
		closeFn  func() error
	)
	if cfg.PostgresDSN != "" {
		store, err := pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		inv = inventory.NewService(store, inventory.WithReferenceChecker(store))
		dir = store
		policies = policy.NewService(store, store, generator, inv, policy.WithRateLimit(cfg.AIRatePerMinute))
		probe = httpapi.ReadyProbe{DB: store.DB()}
		closeFn = store.Close
	} else {
		inv = inventory.NewService(inventory.NewInMemory())
		dir = auth.NewInMemoryDirectory()
		policies = policy.NewService(dir, policy.NewInMemoryStore(), generator, inv, policy.WithRateLimit(cfg.AIRatePerMinute))
	}

	api := httpapi.New(probe, version, inv, policies, dir,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting datenwacht-api %s on %s", version, srv.Addr)

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
	if closeFn != nil {
		_ = closeFn()
	}
	log.Println("Stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/api"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/config"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/repository"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(cfg.PostgresDSN)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close repository: %v", err)
		}
	}()

	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	store, err := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close session store: %v", err)
		}
	}()

	registry := session.NewRegistry(repo, store, cfg.PageSize)
	go startMetricsCollector(ctx, repo, registry, cfg.MetricsInterval, cfg.SessionTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewAPI(repo, registry, cfg.PageSize),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut down server: %v", err)
		}
	}()

	log.Printf("Server starting on :%s", cfg.Port)
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	log.Println("Server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/userdesk/internal/config"
	"github.com/vedran77/userdesk/internal/credential"
	"github.com/vedran77/userdesk/internal/database"
	"github.com/vedran77/userdesk/internal/repository"
	"github.com/vedran77/userdesk/internal/repository/memory"
	postgresrepo "github.com/vedran77/userdesk/internal/repository/postgres"
	"github.com/vedran77/userdesk/internal/service"
	"github.com/vedran77/userdesk/internal/transport/http/handlers"
	"github.com/vedran77/userdesk/internal/transport/http/router"
	"github.com/vedran77/userdesk/internal/transport/ws"
	"github.com/vedran77/userdesk/pkg/logger"
	"github.com/vedran77/userdesk/web"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(logger.SetLevel(cfg.LogLevel), logger.SetFormat(cfg.LogFormat))
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logg *zap.Logger) error {
	// Repositories
	userRepo, closeStore, err := openStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Services
	hasher := credential.NewHasher(credential.Params{
		Memory:  cfg.Argon2.MemoryKiB,
		Time:    cfg.Argon2.Iterations,
		Threads: cfg.Argon2.Threads,
	})
	userService := service.NewUserService(userRepo, hasher, logg)

	// Live feed
	hub := ws.NewHub(logg)
	go hub.Run(ctx)
	userService.SetNotifier(ws.NewHubNotifier(hub, logg))

	// Handlers
	userHandler := handlers.NewUserHandler(userService, logg)

	srv := &http.Server{
		Addr: cfg.ServerAddress,
		Handler: router.New(router.Config{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			Static:             web.Static(),
			Live:               ws.ServeWS(hub, cfg.CORSAllowedOrigins, logg),
		}, userHandler, logg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("addr", cfg.ServerAddress), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logg.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logg *zap.Logger) (repository.UserRepository, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logg.Warn("Using in-memory storage, data will not survive a restart")
		return memory.NewUserRepo(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	logg.Info("Connected to database", zap.String("host", cfg.DB.Host), zap.String("name", cfg.DB.Name))

	db := database.OpenDB(pool)
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		pool.Close()
		return nil, nil, err
	}

	return postgresrepo.NewUserRepo(db), func() {
		db.Close()
		pool.Close()
	}, nil
}

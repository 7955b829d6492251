package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"notekeeper/internal/backup"
	"notekeeper/internal/config"
	"notekeeper/internal/handler"
	"notekeeper/internal/logger"
	"notekeeper/internal/markdown"
	"notekeeper/internal/repository"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/repository/sqlite"
	"notekeeper/internal/service"
	"notekeeper/internal/storage"
	"notekeeper/internal/version"

	"go.uber.org/zap"
)

const dbFile = "notekeeper.db"

func main() {
	configFile := flag.String("config", "config.yml", "configuration file")
	envFile := flag.String("env", ".env", "environment file")
	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 1. Initialize data directory
	data, err := storage.NewFileSystem(cfg.Server.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	logDir := cfg.Logger.Dir
	if logDir == "" {
		logDir = filepath.Join(data.Dir(), "logs")
	}
	if err := logger.InitLogger(logger.Options{Dir: logDir, File: cfg.Logger.File, Level: cfg.Logger.Level, Console: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.L().Info("Starting notekeeper server",
		zap.String("version", version.Version),
		zap.String("data_dir", data.Dir()),
		zap.String("db", cfg.Server.DB),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the repository
	repo, err := openRepository(ctx, cfg.Server, data)
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	// 4. Services and handlers
	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret = randomSecret()
		zap.L().Warn("server.jwt_secret not set, using a random secret; tokens will not survive a restart")
	}
	svc := service.New(repo, service.NewTokens(secret, cfg.Server.JWTExpiry), data.Fs(), zap.L().Named("service"))
	h := handler.NewHandler(svc, markdown.New(), cfg.Server.Location())

	// 5. Backups
	targets, err := backup.Targets(ctx, *cfg.Backup)
	if err != nil {
		zap.L().Fatal("Failed to configure backups", zap.Error(err))
	}
	backups := backup.NewManager(data, []string{dbFile, service.AvatarDir}, zap.L().Named("backup"))
	if cp, ok := repo.(repository.Checkpointer); ok {
		backups.BeforeBackup(cp.Checkpoint)
	}
	if len(targets) > 0 {
		h.SetBackups(backups, targets)
	}
	if cfg.Backup.Enabled {
		scheduler, err := backup.NewScheduler(backups, targets, cfg.Backup.Schedule, zap.L().Named("backup"))
		if err != nil {
			zap.L().Fatal("Failed to start backup scheduler", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	e := handler.NewServer(h, handler.ServerOptions{
		BodyLimit:   cfg.Server.BodyLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	e.StdLogger = log.New(logger.Writer(), "", 0)

	// 6. Serve until interrupted
	addr := ":" + strconv.Itoa(cfg.Server.Port)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg *config.ServerConfig, data *storage.FileSystem) (repository.Repository, error) {
	if cfg.DB == "memory" {
		zap.L().Warn("Using in-memory database; data is lost on exit")
		return memory.NewRepository(), nil
	}
	path := filepath.Join(data.Dir(), dbFile)
	zap.L().Info("Using database", zap.String("path", path))
	return sqlite.Open(ctx, sqlite.DSN(path))
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

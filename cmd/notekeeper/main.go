package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"notekeeper/internal/app"
	"notekeeper/internal/cli"
	"notekeeper/internal/config"
	"notekeeper/internal/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "notekeeper:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("notekeeper", flag.ContinueOnError)
	configFile := flags.String("config", "config.yml", "configuration file")
	envFile := flags.String("env", ".env", "environment file")
	flags.Usage = func() {
		cli.Usage(flags.Output())
		fmt.Fprintln(flags.Output(), "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", cli.ErrUsage, err)
	}

	if err := config.LoadEnv(*envFile); err != nil {
		return err
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// command output goes to stdout, logs to the data directory
	logDir := cfg.Logger.Dir
	if logDir == "" {
		logDir = filepath.Join(cfg.Client.DataDir, "logs")
	}
	if err := logger.InitLogger(logger.Options{
		Dir:     logDir,
		File:    cfg.Logger.File,
		Level:   cfg.Logger.Level,
		Console: cfg.Logger.Console,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: zap.L(), Notices: os.Stderr})
	if err != nil {
		return err
	}
	runErr := cli.Run(ctx, a, flags.Args(), os.Stdout)
	if err := a.Close(); err != nil {
		zap.L().Warn("close failed", zap.Error(err))
	}
	return runErr
}

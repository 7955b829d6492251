// Package app wires the client core from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"notekeeper/internal/apperr"
	"notekeeper/internal/auth"
	"notekeeper/internal/autosave"
	"notekeeper/internal/backup"
	"notekeeper/internal/config"
	"notekeeper/internal/events"
	"notekeeper/internal/kvstore"
	"notekeeper/internal/markdown"
	"notekeeper/internal/notes"
	"notekeeper/internal/remote"
	"notekeeper/internal/remote/httpapi"
	"notekeeper/internal/remote/local"
	"notekeeper/internal/repository"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/repository/sqlite"
	"notekeeper/internal/service"
	"notekeeper/internal/storage"
	"notekeeper/internal/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mockDB    = "mock.db"
	keySecret = "mock_jwt_secret"
)

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	// Data is the client data directory; nil opens cfg.Client.DataDir.
	Data *storage.FileSystem
	// MemoryBackend keeps the mock backend in memory instead of mock.db.
	MemoryBackend bool
	Logger        *zap.Logger
	// Notices receives messages meant for the user, such as a failed
	// background save. nil discards them.
	Notices io.Writer
}

// App is the assembled client.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Data     *storage.FileSystem
	KV       *kvstore.Store
	Remote   remote.Client
	Session  *auth.Session
	Notes    *notes.Store
	Trash    *notes.Trash
	Autosave *autosave.Coordinator
	Tasks    *tasks.Manager
	Events   *events.Calendar
	Markdown *markdown.Renderer
	Backup   *backup.Manager
	Targets  []backup.Target

	closers    []func() error
	checkpoint func(ctx context.Context) error
}

// New builds the client described by cfg. The persisted session, if any, is
// resumed and the last note snapshot loaded; nothing is fetched yet.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	data := opts.Data
	if data == nil {
		var err error
		if data, err = storage.NewFileSystem(cfg.Client.DataDir); err != nil {
			return nil, err
		}
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Data:     data,
		KV:       kvstore.New(data),
		Markdown: markdown.New(),
	}

	roots := []string{"kv"}
	switch remote.Mode(cfg.Client.RemoteMode) {
	case remote.ModeHTTP:
		a.Remote = httpapi.NewClient(httpapi.Options{
			BaseURL:   cfg.Client.BaseURL,
			Timeout:   cfg.Client.Timeout,
			RateLimit: cfg.Client.RateLimit,
			Burst:     cfg.Client.RateBurst,
			Logger:    log.Named("http"),
		})
	case remote.ModeMock:
		c, err := a.mockRemote(ctx, opts.MemoryBackend)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Remote = c
		roots = append(roots, mockDB, service.AvatarDir)
	default:
		return nil, apperr.Validation("client.remote_mode", "must be http or mock")
	}

	a.Session = auth.NewSession(a.Remote, a.KV, log.Named("auth"))
	if _, err := a.Session.Restore(); err != nil && !errors.Is(err, apperr.ErrUnauthorized) {
		a.Close()
		return nil, err
	}

	policy, err := notes.ParseOrphanPolicy(cfg.Client.OrphanPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Notes = notes.NewStore(a.Remote, a.KV, policy, log.Named("notes"))
	if err := a.Notes.Load(); err != nil {
		log.Warn("note snapshot unreadable, starting empty", zap.Error(err))
	}
	a.Trash = notes.NewTrash(a.Notes, cfg.Client.BulkConcurrency, log.Named("trash"))
	a.Autosave = autosave.New(a.Notes, autosave.Options{
		Delay:       cfg.Client.AutosaveDelay,
		SaveTimeout: cfg.Client.Timeout,
		Notify:      saveNotifier(opts.Notices),
		Logger:      log.Named("autosave"),
	})

	a.Tasks = tasks.NewManager(a.Remote, a.KV, tasks.Options{
		DailyLimit:  cfg.Client.DailyTaskLimit,
		Concurrency: cfg.Client.BulkConcurrency,
		Owner:       a.ownerEmail,
		Logger:      log.Named("tasks"),
	})
	a.Events = events.NewCalendar(a.Remote, cfg.Client.Location(), log.Named("events"))

	a.Backup = backup.NewManager(data, roots, log.Named("backup"))
	if a.checkpoint != nil {
		a.Backup.BeforeBackup(a.checkpoint)
	}
	if a.Targets, err = backup.Targets(ctx, *cfg.Backup); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// mockRemote runs the backend services in process, over mock.db in the data
// directory or over memory.
func (a *App) mockRemote(ctx context.Context, inMemory bool) (*local.Client, error) {
	var repo repository.Repository
	if inMemory {
		repo = memory.NewRepository()
	} else {
		var err error
		repo, err = sqlite.Open(ctx, sqlite.DSN(filepath.Join(a.Data.Dir(), mockDB)))
		if err != nil {
			return nil, err
		}
	}
	a.closers = append(a.closers, repo.Close)
	if cp, ok := repo.(repository.Checkpointer); ok {
		a.checkpoint = cp.Checkpoint
	}

	secret, err := a.mockSecret()
	if err != nil {
		return nil, err
	}
	tokens := service.NewTokens(secret, a.Config.Server.JWTExpiry)
	a.Log.Debug("using in-process backend", zap.Bool("memory", inMemory))
	return local.New(service.New(repo, tokens, a.Data.Fs(), a.Log.Named("mock"))), nil
}

// mockSecret returns the signing secret of the in-process backend. It is
// kept in the data directory so sessions survive restarts.
func (a *App) mockSecret() (string, error) {
	if a.Config.Server.JWTSecret != "" {
		return a.Config.Server.JWTSecret, nil
	}
	var secret string
	err := a.KV.Get(keySecret, &secret)
	if err == nil && secret != "" {
		return secret, nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	secret = uuid.NewString() + uuid.NewString()
	if err := a.KV.Set(keySecret, secret); err != nil {
		return "", fmt.Errorf("store mock secret: %w", err)
	}
	return secret, nil
}

func saveNotifier(w io.Writer) autosave.Notifier {
	if w == nil {
		return nil
	}
	return func(id string, err error) {
		fmt.Fprintf(w, "could not save note %s: %v\n", id, err)
	}
}

func (a *App) ownerEmail() string {
	u, ok := a.Session.Current()
	if !ok {
		return ""
	}
	return u.Email
}

// RequireUser returns the signed-in user or ErrUnauthorized.
func (a *App) RequireUser() (string, error) {
	email := a.ownerEmail()
	if email == "" {
		return "", apperr.Unauthorized("not logged in")
	}
	return email, nil
}

// Sync fetches notes and events from the backend.
func (a *App) Sync(ctx context.Context) error {
	if _, err := a.RequireUser(); err != nil {
		return err
	}
	if err := a.Notes.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh notes: %w", err)
	}
	if err := a.Events.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	return nil
}

// Target returns the backup target called name, or the first configured
// one when name is empty.
func (a *App) Target(name string) (backup.Target, error) {
	if len(a.Targets) == 0 {
		return nil, apperr.Validation("backup", "no backup target configured")
	}
	if name == "" {
		return a.Targets[0], nil
	}
	for _, t := range a.Targets {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, apperr.Validation("target", fmt.Sprintf("unknown backup target %q", name))
}

// Close flushes pending edits and releases the backend.
func (a *App) Close() error {
	var errs []error
	if a.Autosave != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Client.Timeout)
		errs = append(errs, a.Autosave.Flush(ctx))
		cancel()
		a.Autosave.Close()
		a.Autosave = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

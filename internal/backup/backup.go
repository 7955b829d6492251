// Package backup archives a data directory and keeps the archives on
// WebDAV, S3 or a local directory.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	filePrefix  = "notekeeper_backup_"
	fileSuffix  = ".tar.gz"
	stampLayout = "20060102_150405"
	preRestore  = "backups/notekeeper_pre_restore_"
)

// Config selects the backup targets and the automatic schedule.
type Config struct {
	Enabled  bool         `mapstructure:"enabled"`
	Schedule string       `mapstructure:"schedule"`
	WebDAV   WebDAVConfig `mapstructure:"webdav"`
	S3       S3Config     `mapstructure:"s3"`
	// Dir keeps backups in a local directory when set.
	Dir string `mapstructure:"dir"`
}

// Targets builds the targets cfg configures, in the order dir, webdav, s3.
func Targets(ctx context.Context, cfg Config) ([]Target, error) {
	var targets []Target
	if cfg.Dir != "" {
		fs, err := storage.NewFileSystem(cfg.Dir)
		if err != nil {
			return nil, err
		}
		targets = append(targets, NewDir(fs.Fs(), "."))
	}
	if cfg.WebDAV.URL != "" {
		t, err := NewWebDAV(cfg.WebDAV)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if cfg.S3.Bucket != "" {
		t, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Manager backs up and restores the given roots of a data directory.
type Manager struct {
	fs      *storage.FileSystem
	roots   []string
	prepare []func(ctx context.Context) error
	log     *zap.Logger
	now     func() time.Time
}

func NewManager(fs *storage.FileSystem, roots []string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{fs: fs, roots: roots, log: log, now: time.Now}
}

// BeforeBackup registers f to run before each backup archive is built,
// e.g. to checkpoint a database. An error from f aborts the backup.
func (m *Manager) BeforeBackup(f func(ctx context.Context) error) {
	m.prepare = append(m.prepare, f)
}

// Create archives the data directory.
func (m *Manager) Create() ([]byte, error) {
	var buf bytes.Buffer
	if err := Archive(m.fs.Fs(), &buf, m.roots...); err != nil {
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}
	return buf.Bytes(), nil
}

// Backup uploads a fresh archive to t and returns its name.
func (m *Manager) Backup(ctx context.Context, t Target) (string, error) {
	for _, f := range m.prepare {
		if err := f(ctx); err != nil {
			return "", fmt.Errorf("failed to prepare backup: %w", err)
		}
	}
	data, err := m.Create()
	if err != nil {
		return "", err
	}
	name := filePrefix + m.now().Format(stampLayout) + fileSuffix
	if err := t.Upload(ctx, name, data); err != nil {
		return "", err
	}
	m.log.Info("backup uploaded", zap.String("target", t.Name()), zap.String("file", name), zap.Int("bytes", len(data)))
	return name, nil
}

// List returns the backups on t, newest first.
func (m *Manager) List(ctx context.Context, t Target) ([]Entry, error) {
	all, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.HasPrefix(e.Name, filePrefix) && strings.HasSuffix(e.Name, fileSuffix) {
			out = append(out, e)
		}
	}
	// names embed the timestamp
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Verify downloads a backup and lists the files it holds.
func (m *Manager) Verify(ctx context.Context, t Target, name string) ([]string, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := t.Download(ctx, name)
	if err != nil {
		return nil, err
	}
	return Inspect(data)
}

// Restore replaces the data directory contents with a backup. The current
// contents are first archived locally under backups/; the name of that
// archive is returned.
func (m *Manager) Restore(ctx context.Context, t Target, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	data, err := t.Download(ctx, name)
	if err != nil {
		return "", err
	}
	if _, err := Inspect(data); err != nil {
		return "", apperr.Validation("filename", err.Error())
	}

	current, err := m.Create()
	if err != nil {
		return "", err
	}
	safety := preRestore + m.now().Format(stampLayout) + fileSuffix
	if err := m.fs.WriteFile(safety, current); err != nil {
		return "", fmt.Errorf("failed to save pre-restore backup: %w", err)
	}

	if err := Extract(m.fs.Fs(), data); err != nil {
		return safety, fmt.Errorf("failed to extract backup: %w", err)
	}
	m.log.Info("backup restored", zap.String("target", t.Name()), zap.String("file", name), zap.String("pre_restore", safety))
	return safety, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return apperr.Validation("filename", "must be a backup file name")
	}
	return nil
}

// Scheduler runs backups on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	manager *Manager
	targets []Target
	timeout time.Duration
	log     *zap.Logger
}

// NewScheduler backs up to every target on spec, a standard five field cron
// expression.
func NewScheduler(m *Manager, targets []Target, spec string, log *zap.Logger) (*Scheduler, error) {
	if len(targets) == 0 {
		return nil, errors.New("no backup target configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{cron: cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(log.Named("cron"))))), manager: m, targets: targets, timeout: 10 * time.Minute, log: log}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, apperr.Validation("schedule", fmt.Sprintf("invalid cron expression %q: %v", spec, err))
	}
	return s, nil
}

// RunOnce backs up to every target. Failures are logged.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for _, t := range s.targets {
		if _, err := s.manager.Backup(ctx, t); err != nil {
			s.log.Error("scheduled backup failed", zap.String("target", t.Name()), zap.Error(err))
		}
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("backup scheduler started", zap.Int("targets", len(s.targets)))
}

// Stop stops the schedule and waits for a running backup, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

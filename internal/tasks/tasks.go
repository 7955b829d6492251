// Package tasks manages the daily to-do list of the signed-in account.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"notekeeper/internal/apperr"
	"notekeeper/internal/bulk"
	"notekeeper/internal/kvstore"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"

	"go.uber.org/zap"
)

// DefaultDailyLimit caps the tasks of one day.
const DefaultDailyLimit = 20

// historyDays bounds the persisted statistics per account.
const historyDays = 90

// KV is the persistence for statistics history.
type KV interface {
	Get(key string, v any) error
	Set(key string, v any) error
}

// Stats summarizes one day.
type Stats struct {
	Day            model.Day `json:"day"`
	Total          int       `json:"total"`
	Completed      int       `json:"completed"`
	Remaining      int       `json:"remaining"`
	Limit          int       `json:"limit"`
	CompletionRate float64   `json:"completion_rate"`
}

func computeStats(day model.Day, tasks []model.DailyTask, limit int) Stats {
	s := Stats{Day: day, Total: len(tasks), Limit: limit}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Remaining = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}
	return s
}

type Options struct {
	DailyLimit  int
	Concurrency int
	// Owner returns the email statistics are recorded for; "" skips recording.
	Owner  func() string
	Logger *zap.Logger
}

// Manager keeps the tasks of the days it has loaded.
type Manager struct {
	remote      remote.Tasks
	kv          KV
	limit       int
	concurrency int
	owner       func() string
	log         *zap.Logger

	mu    sync.RWMutex
	byDay map[model.Day][]model.DailyTask

	histMu sync.Mutex
}

func NewManager(r remote.Tasks, kv KV, opts Options) *Manager {
	m := &Manager{
		remote:      r,
		kv:          kv,
		limit:       opts.DailyLimit,
		concurrency: opts.Concurrency,
		owner:       opts.Owner,
		log:         opts.Logger,
		byDay:       make(map[model.Day][]model.DailyTask),
	}
	if m.limit <= 0 {
		m.limit = DefaultDailyLimit
	}
	if m.owner == nil {
		m.owner = func() string { return "" }
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// Limit returns the daily task limit.
func (m *Manager) Limit() int { return m.limit }

// List loads the tasks of day from the backend.
func (m *Manager) List(ctx context.Context, day model.Day) ([]model.DailyTask, error) {
	if !day.Valid() {
		return nil, apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	tasks, err := m.remote.ListTasks(ctx, day)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.byDay[day] = tasks
	m.mu.Unlock()
	m.record(day)
	return append([]model.DailyTask(nil), tasks...), nil
}

// Add creates a task unless day already holds the daily limit.
func (m *Manager) Add(ctx context.Context, day model.Day, text string) (model.DailyTask, error) {
	draft := model.TaskDraft{Text: text, Date: day}
	if err := draft.Validate(); err != nil {
		return model.DailyTask{}, err
	}
	current, err := m.List(ctx, day)
	if err != nil {
		return model.DailyTask{}, err
	}
	if len(current) >= m.limit {
		return model.DailyTask{}, apperr.Validation("date", fmt.Sprintf("daily limit of %d tasks reached", m.limit))
	}

	t, err := m.remote.CreateTask(ctx, draft)
	if err != nil {
		return model.DailyTask{}, err
	}
	m.mu.Lock()
	m.byDay[day] = append(m.byDay[day], t)
	m.mu.Unlock()
	m.record(day)
	return t, nil
}

// Toggle flips the completion of a loaded task.
func (m *Manager) Toggle(ctx context.Context, id string) (model.DailyTask, error) {
	t, err := m.find(id)
	if err != nil {
		return model.DailyTask{}, err
	}
	return m.update(ctx, t.Date, id, model.TaskPatch{Completed: model.BoolPtr(!t.Completed)})
}

// Rename changes the text of a loaded task.
func (m *Manager) Rename(ctx context.Context, id, text string) (model.DailyTask, error) {
	patch := model.TaskPatch{Text: &text}
	if err := patch.Validate(); err != nil {
		return model.DailyTask{}, err
	}
	t, err := m.find(id)
	if err != nil {
		return model.DailyTask{}, err
	}
	return m.update(ctx, t.Date, id, patch)
}

func (m *Manager) update(ctx context.Context, day model.Day, id string, patch model.TaskPatch) (model.DailyTask, error) {
	updated, err := m.remote.UpdateTask(ctx, id, patch)
	if err != nil {
		return model.DailyTask{}, err
	}
	m.mu.Lock()
	for i, t := range m.byDay[day] {
		if t.ID == id {
			m.byDay[day][i] = updated
		}
	}
	m.mu.Unlock()
	m.record(day)
	return updated, nil
}

// Delete removes a task.
func (m *Manager) Delete(ctx context.Context, id string) error {
	t, err := m.find(id)
	if err != nil {
		return err
	}
	if err := m.remote.DeleteTask(ctx, id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	m.forget(t.Date, id)
	m.record(t.Date)
	return nil
}

// ClearCompleted deletes the completed tasks of day. Failed deletions are
// reported in a *bulk.Error and those tasks are kept.
func (m *Manager) ClearCompleted(ctx context.Context, day model.Day) ([]string, error) {
	current, err := m.List(ctx, day)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range current {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}

	done, err := bulk.Run(ctx, "clear completed tasks", ids, m.concurrency, func(ctx context.Context, id string) error {
		if err := m.remote.DeleteTask(ctx, id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		m.forget(day, id)
		return nil
	})
	m.record(day)
	m.log.Info("completed tasks cleared", zap.String("day", day.String()), zap.Int("removed", len(done)), zap.Error(err))
	return done, err
}

// Stats summarizes the loaded tasks of day.
func (m *Manager) Stats(day model.Day) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return computeStats(day, m.byDay[day], m.limit)
}

// History returns the recorded statistics of the current account, oldest
// day first.
func (m *Manager) History() ([]Stats, error) {
	owner := m.owner()
	if owner == "" || m.kv == nil {
		return []Stats{}, nil
	}
	hist, err := m.loadHistory(owner)
	if err != nil {
		return nil, err
	}
	out := make([]Stats, 0, len(hist))
	for _, s := range hist {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *Manager) loadHistory(owner string) (map[model.Day]Stats, error) {
	hist := make(map[model.Day]Stats)
	if err := m.kv.Get(kvstore.TaskStatsKey(owner), &hist); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return hist, nil
}

// record stores the statistics of day in the account history. Failures
// only cost history and are logged.
func (m *Manager) record(day model.Day) {
	owner := m.owner()
	if owner == "" || m.kv == nil {
		return
	}
	m.histMu.Lock()
	defer m.histMu.Unlock()

	hist, err := m.loadHistory(owner)
	if err != nil {
		m.log.Warn("failed to load task stats", zap.Error(err))
		return
	}
	hist[day] = m.Stats(day)

	if len(hist) > historyDays {
		days := make([]model.Day, 0, len(hist))
		for d := range hist {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		for _, d := range days[:len(days)-historyDays] {
			delete(hist, d)
		}
	}
	if err := m.kv.Set(kvstore.TaskStatsKey(owner), hist); err != nil {
		m.log.Warn("failed to save task stats", zap.Error(err))
	}
}

func (m *Manager) find(id string) (model.DailyTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tasks := range m.byDay {
		for _, t := range tasks {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return model.DailyTask{}, apperr.NotFound("task", id)
}

func (m *Manager) forget(day model.Day, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := m.byDay[day]
	for i, t := range tasks {
		if t.ID == id {
			m.byDay[day] = append(tasks[:i:i], tasks[i+1:]...)
			return
		}
	}
}

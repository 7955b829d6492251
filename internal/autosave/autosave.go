// Package autosave coalesces rapid edits of a note into one write per quiet
// period.
package autosave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"

	"go.uber.org/zap"
)

// DefaultDelay is the quiet period after the last edit before it is saved.
const DefaultDelay = 800 * time.Millisecond

// ErrClosed is returned by Edit and Flush after Close.
var ErrClosed = errors.New("autosave: coordinator closed")

// Saver is the note collection the coordinator writes to.
type Saver interface {
	Get(id string) (model.Note, error)
	Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error)
}

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Notifier reports a failed save to the user. It must not block.
type Notifier func(id string, err error)

type Options struct {
	Delay time.Duration
	// SaveTimeout bounds one write. Zero means no timeout.
	SaveTimeout time.Duration
	AfterFunc   AfterFunc
	Notify      Notifier
	Logger      *zap.Logger
}

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// pending is the unsaved state of one note.
type pending struct {
	title   string
	content string
	timer   Timer
	gen     uint64 // identifies the timer allowed to fire
	seq     uint64 // edit order across notes
}

// Coordinator debounces edits per note. Each note has its own timer; an
// edit restarts it and only the latest values are written. Writes are
// serialized.
type Coordinator struct {
	saver   Saver
	delay   time.Duration
	timeout time.Duration
	after   AfterFunc
	notify  Notifier
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]*pending
	gen     uint64
	seq     uint64
	closed  bool

	saveMu sync.Mutex
	wg     sync.WaitGroup
}

func New(saver Saver, opts Options) *Coordinator {
	c := &Coordinator{
		saver:   saver,
		delay:   opts.Delay,
		timeout: opts.SaveTimeout,
		after:   opts.AfterFunc,
		notify:  opts.Notify,
		log:     opts.Logger,
		pending: make(map[string]*pending),
	}
	if c.delay <= 0 {
		c.delay = DefaultDelay
	}
	if c.after == nil {
		c.after = realAfterFunc
	}
	if c.notify == nil {
		c.notify = func(string, error) {}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Edit records the latest title and content of a note and restarts its
// quiet period. Invalid values are rejected at once; the last valid
// pending values and their timer are left as they were.
func (c *Coordinator) Edit(id, title, content string) error {
	patch := model.NotePatch{Title: &title, Content: &content}
	if err := patch.Validate(); err != nil {
		return err
	}
	title = *patch.Title

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	p, ok := c.pending[id]
	if !ok {
		p = &pending{}
		c.pending[id] = p
	} else if p.timer != nil {
		p.timer.Stop()
	}
	c.gen++
	c.seq++
	p.title, p.content = title, content
	p.gen, p.seq = c.gen, c.seq

	gen := c.gen
	p.timer = c.after(c.delay, func() { c.fire(id, gen) })
	return nil
}

// Pending reports the unsaved values of a note, if any.
func (c *Coordinator) Pending(id string) (title, content string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		return "", "", false
	}
	return p.title, p.content, true
}

// Cancel discards every pending write. Writes already sent are not aborted.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

// CancelNote discards the pending write of one note.
func (c *Coordinator) CancelNote(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[id]; ok {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

// Flush writes every pending edit now, in edit order.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	type item struct {
		id string
		p  *pending
	}
	items := make([]item, 0, len(c.pending))
	for id, p := range c.pending {
		p.timer.Stop()
		items = append(items, item{id, p})
		delete(c.pending, id)
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	sort.Slice(items, func(i, j int) bool { return items[i].p.seq < items[j].p.seq })

	var errs []error
	for _, it := range items {
		if err := c.save(ctx, it.id, it.p.title, it.p.content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close discards pending writes, rejects further edits and waits for
// writes in progress. Call Flush first to keep pending edits.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) fire(id string, gen uint64) {
	c.mu.Lock()
	p, ok := c.pending[id]
	if !ok || p.gen != gen || c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	_ = c.save(context.Background(), id, p.title, p.content)
}

// save writes the fields that differ from the stored note. A note that
// was deleted or trashed in the meantime is skipped silently.
func (c *Coordinator) save(ctx context.Context, id, title, content string) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	current, err := c.saver.Get(id)
	if err != nil || current.Deleted {
		c.log.Debug("dropping stale autosave", zap.String("id", id), zap.Error(err))
		return nil
	}

	var patch model.NotePatch
	if current.Title != title {
		patch.Title = &title
	}
	if current.Content != content {
		patch.Content = &content
	}
	if patch.IsEmpty() {
		return nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	_, err = c.saver.Update(ctx, id, patch)
	switch {
	case err == nil:
		c.log.Debug("note autosaved", zap.String("id", id))
		return nil
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrConflict):
		c.log.Debug("dropping autosave of removed note", zap.String("id", id), zap.Error(err))
		return nil
	default:
		c.log.Warn("autosave failed", zap.String("id", id), zap.Error(err))
		c.notify(id, err)
		return err
	}
}

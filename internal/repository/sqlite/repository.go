package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib-x/entsqlite"
)

var (
	_ repository.Repository   = (*repo)(nil)
	_ repository.Checkpointer = (*repo)(nil)
)

type repo struct {
	db *sqlx.DB
}

// DSN returns the connection string for a database file with WAL and foreign keys on.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)", path)
}

// Open connects to the sqlite database and creates missing tables.
func Open(ctx context.Context, dsn string) (repository.Repository, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &repo{db: db}, nil
}

func (r *repo) Users() repository.UserRepository   { return (*userRepo)(r) }
func (r *repo) Notes() repository.NoteRepository   { return (*noteRepo)(r) }
func (r *repo) Tasks() repository.TaskRepository   { return (*taskRepo)(r) }
func (r *repo) Events() repository.EventRepository { return (*eventRepo)(r) }
func (r *repo) Close() error                       { return r.db.Close() }

// Checkpoint moves the write-ahead log into the database file and truncates
// the log, so copying the database file alone captures every commit.
func (r *repo) Checkpoint(ctx context.Context) error {
	var busy, logged, moved int
	if err := r.db.QueryRowxContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &logged, &moved); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if busy != 0 {
		return fmt.Errorf("checkpoint: database busy, %d of %d frames moved", moved, logged)
	}
	return nil
}

func parseID(entity, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, apperr.NotFound(entity, id)
	}
	return n, nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func affected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

type userRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Avatar       string `db:"avatar"`
	PasswordHash string `db:"password_hash"`
}

type userRepo repo

func (r *userRepo) Create(ctx context.Context, user model.User, passwordHash string) (model.User, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM users WHERE email = ?`, user.Email); err != nil {
		return model.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return model.User{}, apperr.Conflict("email %s already registered", user.Email)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, avatar, password_hash) VALUES (?, ?, ?, ?)`,
		user.Name, user.Email, user.Avatar, passwordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	user.ID = formatID(id)
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, string, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, email, avatar, password_hash FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, "", apperr.NotFound("user", email)
	}
	if err != nil {
		return model.User{}, "", fmt.Errorf("get user: %w", err)
	}
	return model.User{ID: formatID(row.ID), Name: row.Name, Email: row.Email, Avatar: row.Avatar}, row.PasswordHash, nil
}

type noteRow struct {
	ID           int64          `db:"id"`
	OwnerEmail   string         `db:"owner_email"`
	OwnerName    string         `db:"owner_name"`
	Title        string         `db:"title"`
	Content      string         `db:"content"`
	ParentID     sql.NullString `db:"parent_id"`
	Deleted      bool           `db:"deleted"`
	CreatedAt    int64          `db:"created_at"`
	LastModified int64          `db:"last_modified"`
}

func (row noteRow) model() model.Note {
	n := model.Note{
		ID:           formatID(row.ID),
		Title:        row.Title,
		Content:      row.Content,
		Deleted:      row.Deleted,
		OwnerEmail:   row.OwnerEmail,
		OwnerName:    row.OwnerName,
		CreatedAt:    fromUnix(row.CreatedAt),
		LastModified: fromUnix(row.LastModified),
	}
	if row.ParentID.Valid {
		p := row.ParentID.String
		n.ParentID = &p
	}
	return n
}

func nullParent(n model.Note) sql.NullString {
	if n.IsRoot() {
		return sql.NullString{}
	}
	return sql.NullString{String: *n.ParentID, Valid: true}
}

const noteColumns = `id, owner_email, owner_name, title, content, parent_id, deleted, created_at, last_modified`

type noteRepo repo

func (r *noteRepo) selectNotes(ctx context.Context, query string, args ...any) ([]model.Note, error) {
	var rows []noteRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	notes := make([]model.Note, len(rows))
	for i, row := range rows {
		notes[i] = row.model()
	}
	return notes, nil
}

func (r *noteRepo) List(ctx context.Context, owner string, trashed bool) ([]model.Note, error) {
	return r.selectNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_email = ? AND deleted = ? ORDER BY created_at DESC, id DESC`,
		owner, trashed)
}

func (r *noteRepo) Search(ctx context.Context, owner, q string) ([]model.Note, error) {
	pattern := "%" + escapeLike(q) + "%"
	return r.selectNotes(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE owner_email = ? AND deleted = 0 AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
		 ORDER BY created_at DESC, id DESC`,
		owner, pattern, pattern)
}

func (r *noteRepo) Get(ctx context.Context, owner, id string) (model.Note, error) {
	nid, err := parseID("note", id)
	if err != nil {
		return model.Note{}, err
	}
	var row noteRow
	err = r.db.GetContext(ctx, &row, `SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_email = ?`, nid, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, apperr.NotFound("note", id)
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("get note: %w", err)
	}
	return row.model(), nil
}

func (r *noteRepo) Create(ctx context.Context, note model.Note) (model.Note, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (owner_email, owner_name, title, content, parent_id, deleted, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.OwnerEmail, note.OwnerName, note.Title, note.Content, nullParent(note), note.Deleted,
		toUnix(note.CreatedAt), toUnix(note.LastModified))
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Note{}, err
	}
	note.ID = formatID(id)
	return note, nil
}

func (r *noteRepo) Update(ctx context.Context, note model.Note) (model.Note, error) {
	nid, err := parseID("note", note.ID)
	if err != nil {
		return model.Note{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, parent_id = ?, deleted = ?, last_modified = ?
		 WHERE id = ? AND owner_email = ?`,
		note.Title, note.Content, nullParent(note), note.Deleted, toUnix(note.LastModified), nid, note.OwnerEmail)
	if err != nil {
		return model.Note{}, fmt.Errorf("update note: %w", err)
	}
	if err := affected(res, "note", note.ID); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

func (r *noteRepo) Delete(ctx context.Context, owner, id string) error {
	nid, err := parseID("note", id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_email = ?`, nid, owner)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return affected(res, "note", id)
}

type taskRow struct {
	ID         int64  `db:"id"`
	OwnerEmail string `db:"owner_email"`
	Text       string `db:"text"`
	Day        string `db:"day"`
	Completed  bool   `db:"completed"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (row taskRow) model() model.DailyTask {
	return model.DailyTask{
		ID:         formatID(row.ID),
		Text:       row.Text,
		Date:       model.Day(row.Day),
		Completed:  row.Completed,
		OwnerEmail: row.OwnerEmail,
		CreatedAt:  fromUnix(row.CreatedAt),
		UpdatedAt:  fromUnix(row.UpdatedAt),
	}
}

const taskColumns = `id, owner_email, text, day, completed, created_at, updated_at`

type taskRepo repo

func (r *taskRepo) List(ctx context.Context, owner string, day model.Day) ([]model.DailyTask, error) {
	var rows []taskRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_email = ? AND day = ? ORDER BY created_at, id`,
		owner, string(day))
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	tasks := make([]model.DailyTask, len(rows))
	for i, row := range rows {
		tasks[i] = row.model()
	}
	return tasks, nil
}

func (r *taskRepo) Get(ctx context.Context, owner, id string) (model.DailyTask, error) {
	tid, err := parseID("task", id)
	if err != nil {
		return model.DailyTask{}, err
	}
	var row taskRow
	err = r.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_email = ?`, tid, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyTask{}, apperr.NotFound("task", id)
	}
	if err != nil {
		return model.DailyTask{}, fmt.Errorf("get task: %w", err)
	}
	return row.model(), nil
}

func (r *taskRepo) Create(ctx context.Context, task model.DailyTask) (model.DailyTask, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (owner_email, text, day, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		task.OwnerEmail, task.Text, string(task.Date), task.Completed, toUnix(task.CreatedAt), toUnix(task.UpdatedAt))
	if err != nil {
		return model.DailyTask{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.DailyTask{}, err
	}
	task.ID = formatID(id)
	return task, nil
}

func (r *taskRepo) Update(ctx context.Context, task model.DailyTask) (model.DailyTask, error) {
	tid, err := parseID("task", task.ID)
	if err != nil {
		return model.DailyTask{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET text = ?, completed = ?, updated_at = ? WHERE id = ? AND owner_email = ?`,
		task.Text, task.Completed, toUnix(task.UpdatedAt), tid, task.OwnerEmail)
	if err != nil {
		return model.DailyTask{}, fmt.Errorf("update task: %w", err)
	}
	if err := affected(res, "task", task.ID); err != nil {
		return model.DailyTask{}, err
	}
	return task, nil
}

func (r *taskRepo) Delete(ctx context.Context, owner, id string) error {
	tid, err := parseID("task", id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_email = ?`, tid, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return affected(res, "task", id)
}

type eventRow struct {
	ID          int64  `db:"id"`
	OwnerEmail  string `db:"owner_email"`
	Title       string `db:"title"`
	Description string `db:"description"`
	StartAt     int64  `db:"start_at"`
	EndAt       int64  `db:"end_at"`
	AllDay      bool   `db:"all_day"`
	Tag         int    `db:"tag"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (row eventRow) model() model.Event {
	return model.Event{
		ID:            formatID(row.ID),
		Title:         row.Title,
		Description:   row.Description,
		StartDateTime: fromUnix(row.StartAt),
		EndDateTime:   fromUnix(row.EndAt),
		AllDay:        row.AllDay,
		Tag:           model.Priority(row.Tag),
		OwnerEmail:    row.OwnerEmail,
		CreatedAt:     fromUnix(row.CreatedAt),
		UpdatedAt:     fromUnix(row.UpdatedAt),
	}
}

const eventColumns = `id, owner_email, title, description, start_at, end_at, all_day, tag, created_at, updated_at`

type eventRepo repo

func (r *eventRepo) List(ctx context.Context, owner string) ([]model.Event, error) {
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+eventColumns+` FROM events WHERE owner_email = ? ORDER BY start_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	events := make([]model.Event, len(rows))
	for i, row := range rows {
		events[i] = row.model()
	}
	return events, nil
}

func (r *eventRepo) Get(ctx context.Context, owner, id string) (model.Event, error) {
	eid, err := parseID("event", id)
	if err != nil {
		return model.Event{}, err
	}
	var row eventRow
	err = r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = ? AND owner_email = ?`, eid, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, apperr.NotFound("event", id)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return row.model(), nil
}

func (r *eventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (owner_email, title, description, start_at, end_at, all_day, tag, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerEmail, e.Title, e.Description, toUnix(e.StartDateTime), toUnix(e.EndDateTime), e.AllDay, int(e.Tag),
		toUnix(e.CreatedAt), toUnix(e.UpdatedAt))
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	e.ID = formatID(id)
	return e, nil
}

func (r *eventRepo) Update(ctx context.Context, e model.Event) (model.Event, error) {
	eid, err := parseID("event", e.ID)
	if err != nil {
		return model.Event{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, start_at = ?, end_at = ?, all_day = ?, tag = ?, updated_at = ?
		 WHERE id = ? AND owner_email = ?`,
		e.Title, e.Description, toUnix(e.StartDateTime), toUnix(e.EndDateTime), e.AllDay, int(e.Tag),
		toUnix(e.UpdatedAt), eid, e.OwnerEmail)
	if err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	if err := affected(res, "event", e.ID); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

func (r *eventRepo) Delete(ctx context.Context, owner, id string) error {
	eid, err := parseID("event", id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND owner_email = ?`, eid, owner)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return affected(res, "event", id)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

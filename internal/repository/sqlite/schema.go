package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	avatar        TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_email   TEXT NOT NULL,
	owner_name    TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	content       TEXT NOT NULL DEFAULT '',
	parent_id     TEXT,
	deleted       INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	last_modified INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes (owner_email, deleted);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_email TEXT NOT NULL,
	text        TEXT NOT NULL,
	day         TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_day ON tasks (owner_email, day);

CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_email TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_at    INTEGER NOT NULL,
	end_at      INTEGER NOT NULL,
	all_day     INTEGER NOT NULL DEFAULT 0,
	tag         INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_owner ON events (owner_email, start_at);
`

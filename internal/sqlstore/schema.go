package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
)

// schema mirrors the subset of the production tables the engine reads.
// Everything is written by an external importer; this exists for local
// development and tests.
const schema = `
CREATE TABLE IF NOT EXISTS hansard (
	epobject_id INTEGER PRIMARY KEY,
	gid TEXT NOT NULL UNIQUE,
	htype INTEGER NOT NULL,
	speaker_id INTEGER NOT NULL DEFAULT 0,
	major INTEGER NOT NULL,
	minor INTEGER NOT NULL DEFAULT 0,
	section_id INTEGER NOT NULL DEFAULT 0,
	subsection_id INTEGER NOT NULL DEFAULT 0,
	hdate TEXT NOT NULL,
	htime TEXT,
	source_url TEXT NOT NULL DEFAULT '',
	hpos INTEGER NOT NULL,
	video_status INTEGER NOT NULL DEFAULT 0,
	colnum INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS hansard_date ON hansard (major, hdate, hpos);

CREATE INDEX IF NOT EXISTS hansard_section ON hansard (section_id);

CREATE INDEX IF NOT EXISTS hansard_subsection ON hansard (subsection_id);

CREATE TABLE IF NOT EXISTS epobject (
	epobject_id INTEGER PRIMARY KEY,
	body TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS gidredirect (
	gid_from TEXT PRIMARY KEY,
	gid_to TEXT NOT NULL,
	hdate TEXT NOT NULL DEFAULT '',
	major INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS member (
	member_id INTEGER PRIMARY KEY,
	person_id INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	house INTEGER NOT NULL DEFAULT 1,
	constituency TEXT NOT NULL DEFAULT '',
	party TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS moffice (
	moffice_id INTEGER PRIMARY KEY AUTOINCREMENT,
	person INTEGER NOT NULL,
	dept TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	from_date TEXT NOT NULL DEFAULT '1000-01-01',
	to_date TEXT NOT NULL DEFAULT '9999-12-31',
	source TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS comments (
	comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	epobject_id INTEGER NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	posted TEXT NOT NULL DEFAULT '',
	visible INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS comments_epobject ON comments (epobject_id);

CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY AUTOINCREMENT,
	firstname TEXT NOT NULL DEFAULT '',
	lastname TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS uservotes (
	user_id INTEGER NOT NULL,
	epobject_id INTEGER NOT NULL,
	vote INTEGER NOT NULL,
	PRIMARY KEY (user_id, epobject_id)
);

CREATE TABLE IF NOT EXISTS anonvotes (
	epobject_id INTEGER PRIMARY KEY,
	yes_votes INTEGER NOT NULL DEFAULT 0,
	no_votes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS future (
	id INTEGER PRIMARY KEY,
	event_date TEXT NOT NULL,
	pos INTEGER NOT NULL DEFAULT 0,
	chamber TEXT NOT NULL DEFAULT '',
	title TEXT,
	witnesses TEXT,
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mentions (
	gid TEXT NOT NULL,
	type INTEGER NOT NULL,
	date TEXT NOT NULL DEFAULT '',
	url TEXT,
	mentioned_gid TEXT
);

CREATE INDEX IF NOT EXISTS mentions_gid ON mentions (gid);

CREATE TABLE IF NOT EXISTS bills (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	session TEXT NOT NULL
);
`

// InitSchema creates any missing tables and indexes on the repository's
// connection.
func (r *Repository) InitSchema() error {
	return InitSchema(r.db)
}

// InitSchema creates any missing tables and indexes.
func InitSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

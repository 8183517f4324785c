package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: hierarchical memory units",
		SQL: `
CREATE TABLE memories (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    summary     TEXT,
    level       TEXT NOT NULL DEFAULT 'full_log' CHECK (level IN ('full_log', 'summary', 'core', 'forgotten')),
    importance  REAL NOT NULL DEFAULT 0.0,
    is_core     INTEGER NOT NULL DEFAULT 0,
    decay_rate  REAL NOT NULL DEFAULT 0.01,
    metadata    TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_memories_level      ON memories(level);
CREATE INDEX idx_memories_user       ON memories(user_id);
CREATE INDEX idx_memories_created_at ON memories(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "relationships: per-user relationship state",
		SQL: `
CREATE TABLE relationships (
    user_id              TEXT PRIMARY KEY,
    status               TEXT NOT NULL DEFAULT 'stranger' CHECK (status IN ('stranger', 'acquaintance', 'friend', 'close_friend', 'broken')),
    score                REAL NOT NULL DEFAULT 0.0,
    daily_interactions   INTEGER NOT NULL DEFAULT 0,
    total_interactions   INTEGER NOT NULL DEFAULT 0,
    last_interaction     INTEGER,
    transmission_enabled INTEGER NOT NULL DEFAULT 0,
    threshold            REAL NOT NULL DEFAULT 100.0,
    decay_rate           REAL NOT NULL DEFAULT 0.1,
    daily_limit          INTEGER NOT NULL DEFAULT 10,
    is_broken            INTEGER NOT NULL DEFAULT 0
);
`,
	},
	{
		Version:     3,
		Description: "fortunes: one record per calendar day",
		SQL: `
CREATE TABLE fortunes (
    day              TEXT PRIMARY KEY,
    value            INTEGER NOT NULL CHECK (value BETWEEN 1 AND 10),
    consecutive_good INTEGER NOT NULL DEFAULT 0,
    consecutive_bad  INTEGER NOT NULL DEFAULT 0,
    breakthrough     INTEGER NOT NULL DEFAULT 0
);
`,
	},
	{
		Version:     4,
		Description: "scheduled_tasks: cron/interval task registry",
		SQL: `
CREATE TABLE scheduled_tasks (
    task_id    TEXT PRIMARY KEY,
    task_type  TEXT NOT NULL CHECK (task_type IN ('transmission_check', 'maintenance', 'fortune_update', 'relationship_decay', 'memory_summary', 'custom')),
    schedule   TEXT NOT NULL,
    enabled    INTEGER NOT NULL DEFAULT 1,
    last_run   INTEGER,
    next_run   INTEGER,
    metadata   TEXT
);
`,
	},
	{
		Version:     5,
		Description: "transmissions: append-only outbound message log",
		SQL: `
CREATE TABLE transmissions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    message    TEXT NOT NULL,
    success    INTEGER NOT NULL,
    mood       TEXT NOT NULL DEFAULT '',
    score      REAL NOT NULL DEFAULT 0.0,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_transmissions_user    ON transmissions(user_id);
CREATE INDEX idx_transmissions_created ON transmissions(created_at DESC);
`,
	},
	{
		Version:     6,
		Description: "conversations: raw interaction log",
		SQL: `
CREATE TABLE conversations (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    user_message TEXT NOT NULL,
    ai_response  TEXT NOT NULL,
    delta        REAL NOT NULL DEFAULT 0.0,
    created_at   INTEGER NOT NULL
);

CREATE INDEX idx_conversations_user ON conversations(user_id);
`,
	},
	{
		Version:     7,
		Description: "persona_traits: persisted base personality",
		SQL: `
CREATE TABLE persona_traits (
    trait TEXT PRIMARY KEY,
    value REAL NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

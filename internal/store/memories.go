package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Memory levels, ordered by durability.
const (
	LevelFullLog   = "full_log"
	LevelSummary   = "summary"
	LevelCore      = "core"
	LevelForgotten = "forgotten"
)

// Memory is a single memory unit.
type Memory struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Content    string         `json:"content"`
	Summary    string         `json:"summary,omitempty"`
	Level      string         `json:"level"`
	Importance float64        `json:"importance_score"`
	IsCore     bool           `json:"is_core"`
	DecayRate  float64        `json:"decay_rate"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  int64          `json:"created_at"`
}

// PutMemory inserts or replaces a memory unit.
func (db *DB) PutMemory(m *Memory) error {
	meta, err := marshalMeta(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO memories (id, user_id, content, summary, level, importance, is_core, decay_rate, metadata, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			content = excluded.content,
			summary = excluded.summary,
			level = excluded.level,
			importance = excluded.importance,
			is_core = excluded.is_core,
			decay_rate = excluded.decay_rate,
			metadata = excluded.metadata
	`, m.ID, m.UserID, m.Content, m.Summary, m.Level, m.Importance,
		boolInt(m.IsCore), m.DecayRate, meta, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("put memory: %w", err)
	}
	return nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(id string) (*Memory, error) {
	row := db.QueryRow(`
		SELECT id, user_id, content, summary, level, importance, is_core, decay_rate, metadata, created_at
		FROM memories WHERE id = ?
	`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ListMemories returns all memory units, forgotten ones included.
func (db *DB) ListMemories() ([]Memory, error) {
	rows, err := db.Query(`
		SELECT id, user_id, content, summary, level, importance, is_core, decay_rate, metadata, created_at
		FROM memories ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// SaveMemories persists a batch of memory units in a single transaction.
// Used by maintenance passes so a decay sweep is all-or-nothing.
func (db *DB) SaveMemories(memories []Memory) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save memories: %w", err)
	}

	for i := range memories {
		m := &memories[i]
		meta, err := marshalMeta(m.Metadata)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal metadata %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO memories (id, user_id, content, summary, level, importance, is_core, decay_rate, metadata, created_at)
			VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				content = excluded.content,
				summary = excluded.summary,
				level = excluded.level,
				importance = excluded.importance,
				is_core = excluded.is_core,
				decay_rate = excluded.decay_rate,
				metadata = excluded.metadata
		`, m.ID, m.UserID, m.Content, m.Summary, m.Level, m.Importance,
			boolInt(m.IsCore), m.DecayRate, meta, m.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("save memory %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save memories: %w", err)
	}
	return nil
}

// CountMemories returns the number of non-forgotten memory units.
func (db *DB) CountMemories() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM memories WHERE level != 'forgotten'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var m Memory
	var summary, meta sql.NullString
	var isCore int
	err := row.Scan(&m.ID, &m.UserID, &m.Content, &summary, &m.Level,
		&m.Importance, &isCore, &m.DecayRate, &meta, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Summary = summary.String
	m.IsCore = isCore != 0
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &m, nil
}

func marshalMeta(meta map[string]any) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

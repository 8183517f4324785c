package store

import (
	"fmt"
)

// Transmission is one append-only outbound message log entry.
// Entries are never updated after insert.
type Transmission struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Message   string  `json:"message"`
	Success   bool    `json:"success"`
	Mood      string  `json:"mood"`
	Score     float64 `json:"score"`
	CreatedAt int64   `json:"created_at"`
}

// AddTransmission appends a transmission log entry.
func (db *DB) AddTransmission(t *Transmission) error {
	_, err := db.Exec(`
		INSERT INTO transmissions (id, user_id, message, success, mood, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Message, boolInt(t.Success), t.Mood, t.Score, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("add transmission: %w", err)
	}
	return nil
}

// ListTransmissions returns transmission entries, newest first.
// An empty userID returns entries for all users.
func (db *DB) ListTransmissions(userID string, limit int) ([]Transmission, error) {
	query := `
		SELECT id, user_id, message, success, mood, score, created_at
		FROM transmissions`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transmissions: %w", err)
	}
	defer rows.Close()

	var out []Transmission
	for rows.Next() {
		var t Transmission
		var success int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Message, &success, &t.Mood, &t.Score, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transmission: %w", err)
		}
		t.Success = success != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
)

// Relationship status ladder. Broken is terminal.
const (
	StatusStranger     = "stranger"
	StatusAcquaintance = "acquaintance"
	StatusFriend       = "friend"
	StatusCloseFriend  = "close_friend"
	StatusBroken       = "broken"
)

// Relationship is the persisted state for one external user.
type Relationship struct {
	UserID              string  `json:"user_id"`
	Status              string  `json:"status"`
	Score               float64 `json:"score"`
	DailyInteractions   int     `json:"daily_interactions"`
	TotalInteractions   int     `json:"total_interactions"`
	LastInteraction     *int64  `json:"last_interaction,omitempty"`
	TransmissionEnabled bool    `json:"transmission_enabled"`
	Threshold           float64 `json:"threshold"`
	DecayRate           float64 `json:"decay_rate"`
	DailyLimit          int     `json:"daily_limit"`
	IsBroken            bool    `json:"is_broken"`
}

// PutRelationship inserts or replaces a relationship record.
func (db *DB) PutRelationship(r *Relationship) error {
	var last any
	if r.LastInteraction != nil {
		last = *r.LastInteraction
	}
	_, err := db.Exec(`
		INSERT INTO relationships (user_id, status, score, daily_interactions, total_interactions,
			last_interaction, transmission_enabled, threshold, decay_rate, daily_limit, is_broken)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			status = excluded.status,
			score = excluded.score,
			daily_interactions = excluded.daily_interactions,
			total_interactions = excluded.total_interactions,
			last_interaction = excluded.last_interaction,
			transmission_enabled = excluded.transmission_enabled,
			threshold = excluded.threshold,
			decay_rate = excluded.decay_rate,
			daily_limit = excluded.daily_limit,
			is_broken = excluded.is_broken
	`, r.UserID, r.Status, r.Score, r.DailyInteractions, r.TotalInteractions,
		last, boolInt(r.TransmissionEnabled), r.Threshold, r.DecayRate,
		r.DailyLimit, boolInt(r.IsBroken))
	if err != nil {
		return fmt.Errorf("put relationship: %w", err)
	}
	return nil
}

// GetRelationship returns the relationship for a user, or nil if not found.
func (db *DB) GetRelationship(userID string) (*Relationship, error) {
	row := db.QueryRow(`
		SELECT user_id, status, score, daily_interactions, total_interactions,
			last_interaction, transmission_enabled, threshold, decay_rate, daily_limit, is_broken
		FROM relationships WHERE user_id = ?
	`, userID)
	r, err := scanRelationship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return r, nil
}

// ListRelationships returns all relationships, broken ones included.
func (db *DB) ListRelationships() ([]Relationship, error) {
	rows, err := db.Query(`
		SELECT user_id, status, score, daily_interactions, total_interactions,
			last_interaction, transmission_enabled, threshold, decay_rate, daily_limit, is_broken
		FROM relationships ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// SaveRelationships persists a batch of relationships in one transaction.
func (db *DB) SaveRelationships(rels []Relationship) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save relationships: %w", err)
	}

	for i := range rels {
		r := &rels[i]
		var last any
		if r.LastInteraction != nil {
			last = *r.LastInteraction
		}
		if _, err := tx.Exec(`
			INSERT INTO relationships (user_id, status, score, daily_interactions, total_interactions,
				last_interaction, transmission_enabled, threshold, decay_rate, daily_limit, is_broken)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				status = excluded.status,
				score = excluded.score,
				daily_interactions = excluded.daily_interactions,
				total_interactions = excluded.total_interactions,
				last_interaction = excluded.last_interaction,
				transmission_enabled = excluded.transmission_enabled,
				threshold = excluded.threshold,
				decay_rate = excluded.decay_rate,
				daily_limit = excluded.daily_limit,
				is_broken = excluded.is_broken
		`, r.UserID, r.Status, r.Score, r.DailyInteractions, r.TotalInteractions,
			last, boolInt(r.TransmissionEnabled), r.Threshold, r.DecayRate,
			r.DailyLimit, boolInt(r.IsBroken)); err != nil {
			tx.Rollback()
			return fmt.Errorf("save relationship %s: %w", r.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save relationships: %w", err)
	}
	return nil
}

func scanRelationship(row rowScanner) (*Relationship, error) {
	var r Relationship
	var last sql.NullInt64
	var enabled, broken int
	err := row.Scan(&r.UserID, &r.Status, &r.Score, &r.DailyInteractions,
		&r.TotalInteractions, &last, &enabled, &r.Threshold, &r.DecayRate,
		&r.DailyLimit, &broken)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		r.LastInteraction = &last.Int64
	}
	r.TransmissionEnabled = enabled != 0
	r.IsBroken = broken != 0
	return &r, nil
}

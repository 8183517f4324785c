package store

import (
	"database/sql"
	"fmt"
)

// Fortune is one day's fortune record. Day is a YYYY-MM-DD key.
type Fortune struct {
	Day             string `json:"date"`
	Value           int    `json:"fortune_value"`
	ConsecutiveGood int    `json:"consecutive_good"`
	ConsecutiveBad  int    `json:"consecutive_bad"`
	Breakthrough    bool   `json:"breakthrough_triggered"`
}

// PutFortune inserts or replaces a fortune record.
func (db *DB) PutFortune(f *Fortune) error {
	_, err := db.Exec(`
		INSERT INTO fortunes (day, value, consecutive_good, consecutive_bad, breakthrough)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			value = excluded.value,
			consecutive_good = excluded.consecutive_good,
			consecutive_bad = excluded.consecutive_bad,
			breakthrough = excluded.breakthrough
	`, f.Day, f.Value, f.ConsecutiveGood, f.ConsecutiveBad, boolInt(f.Breakthrough))
	if err != nil {
		return fmt.Errorf("put fortune: %w", err)
	}
	return nil
}

// GetFortune returns the fortune for a given day, or nil if not found.
func (db *DB) GetFortune(day string) (*Fortune, error) {
	var f Fortune
	var breakthrough int
	err := db.QueryRow(`
		SELECT day, value, consecutive_good, consecutive_bad, breakthrough
		FROM fortunes WHERE day = ?
	`, day).Scan(&f.Day, &f.Value, &f.ConsecutiveGood, &f.ConsecutiveBad, &breakthrough)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fortune: %w", err)
	}
	f.Breakthrough = breakthrough != 0
	return &f, nil
}

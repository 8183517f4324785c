package store

import (
	"fmt"
)

// GetTraits returns the persisted base personality traits.
// Returns an empty map when none have been saved yet.
func (db *DB) GetTraits() (map[string]float64, error) {
	rows, err := db.Query(`SELECT trait, value FROM persona_traits`)
	if err != nil {
		return nil, fmt.Errorf("get traits: %w", err)
	}
	defer rows.Close()

	traits := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan trait: %w", err)
		}
		traits[name] = value
	}
	return traits, rows.Err()
}

// SaveTraits persists the base personality traits in one transaction.
func (db *DB) SaveTraits(traits map[string]float64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save traits: %w", err)
	}

	for name, value := range traits {
		if _, err := tx.Exec(`
			INSERT INTO persona_traits (trait, value) VALUES (?, ?)
			ON CONFLICT(trait) DO UPDATE SET value = excluded.value
		`, name, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("save trait %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save traits: %w", err)
	}
	return nil
}

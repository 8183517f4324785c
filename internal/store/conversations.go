package store

import (
	"fmt"
)

// Conversation is one raw interaction log entry.
type Conversation struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	UserMessage string  `json:"user_message"`
	AIResponse  string  `json:"ai_response"`
	Delta       float64 `json:"relationship_delta"`
	CreatedAt   int64   `json:"created_at"`
}

// AddConversation appends a conversation record.
func (db *DB) AddConversation(c *Conversation) error {
	_, err := db.Exec(`
		INSERT INTO conversations (id, user_id, user_message, ai_response, delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.UserMessage, c.AIResponse, c.Delta, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("add conversation: %w", err)
	}
	return nil
}

// ListConversations returns a user's conversations, newest first.
func (db *DB) ListConversations(userID string, limit int) ([]Conversation, error) {
	query := `
		SELECT id, user_id, user_message, ai_response, delta, created_at
		FROM conversations WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.UserMessage, &c.AIResponse, &c.Delta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

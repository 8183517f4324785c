package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Scheduled task types.
const (
	TaskTransmissionCheck = "transmission_check"
	TaskMaintenance       = "maintenance"
	TaskFortuneUpdate     = "fortune_update"
	TaskRelationshipDecay = "relationship_decay"
	TaskMemorySummary     = "memory_summary"
	TaskCustom            = "custom"
)

// Task is a persisted scheduled task.
type Task struct {
	TaskID   string         `json:"task_id"`
	TaskType string         `json:"task_type"`
	Schedule string         `json:"schedule"`
	Enabled  bool           `json:"enabled"`
	LastRun  *int64         `json:"last_run,omitempty"`
	NextRun  *int64         `json:"next_run,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PutTask inserts or replaces a scheduled task.
func (db *DB) PutTask(t *Task) error {
	meta, err := marshalMeta(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal task metadata: %w", err)
	}
	var lastRun, nextRun any
	if t.LastRun != nil {
		lastRun = *t.LastRun
	}
	if t.NextRun != nil {
		nextRun = *t.NextRun
	}

	_, err = db.Exec(`
		INSERT INTO scheduled_tasks (task_id, task_type, schedule, enabled, last_run, next_run, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			task_type = excluded.task_type,
			schedule = excluded.schedule,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			metadata = excluded.metadata
	`, t.TaskID, t.TaskType, t.Schedule, boolInt(t.Enabled), lastRun, nextRun, meta)
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

// GetTask returns a task by id, or nil if not found.
func (db *DB) GetTask(taskID string) (*Task, error) {
	row := db.QueryRow(`
		SELECT task_id, task_type, schedule, enabled, last_run, next_run, metadata
		FROM scheduled_tasks WHERE task_id = ?
	`, taskID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns all scheduled tasks.
func (db *DB) ListTasks() ([]Task, error) {
	rows, err := db.Query(`
		SELECT task_id, task_type, schedule, enabled, last_run, next_run, metadata
		FROM scheduled_tasks ORDER BY task_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task. Deleting a missing task is not an error.
func (db *DB) DeleteTask(taskID string) error {
	if _, err := db.Exec(`DELETE FROM scheduled_tasks WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var enabled int
	var lastRun, nextRun sql.NullInt64
	var meta sql.NullString
	err := row.Scan(&t.TaskID, &t.TaskType, &t.Schedule, &enabled, &lastRun, &nextRun, &meta)
	if err != nil {
		return nil, err
	}
	t.Enabled = enabled != 0
	if lastRun.Valid {
		t.LastRun = &lastRun.Int64
	}
	if nextRun.Valid {
		t.NextRun = &nextRun.Int64
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal task metadata: %w", err)
		}
	}
	return &t, nil
}

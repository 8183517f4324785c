package store

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetMemory(t *testing.T) {
	db := openTestDB(t)

	m := &Memory{
		ID:         "abc123",
		UserID:     "alice",
		Content:    "User: hi\nAI: hello",
		Summary:    "greeting",
		Level:      LevelFullLog,
		Importance: 0.5,
		DecayRate:  0.01,
		Metadata:   map[string]any{"delta": 5.0},
		CreatedAt:  1700000000,
	}
	if err := db.PutMemory(m); err != nil {
		t.Fatalf("PutMemory: %v", err)
	}

	got, err := db.GetMemory("abc123")
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got == nil {
		t.Fatal("GetMemory returned nil")
	}
	if got.UserID != "alice" || got.Summary != "greeting" || got.Importance != 0.5 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Metadata["delta"] != 5.0 {
		t.Errorf("Metadata[delta] = %v, want 5.0", got.Metadata["delta"])
	}
}

func TestGetMemoryMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetMemory("nope")
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing memory, got %+v", got)
	}
}

func TestPutMemoryUpsert(t *testing.T) {
	db := openTestDB(t)

	m := &Memory{ID: "m1", Content: "v1", Level: LevelFullLog, Importance: 0.3, CreatedAt: 1000}
	if err := db.PutMemory(m); err != nil {
		t.Fatalf("PutMemory: %v", err)
	}

	m.Level = LevelForgotten
	m.Importance = 0.0
	if err := db.PutMemory(m); err != nil {
		t.Fatalf("PutMemory update: %v", err)
	}

	got, err := db.GetMemory("m1")
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if got.Level != LevelForgotten {
		t.Errorf("Level = %q, want forgotten", got.Level)
	}
}

func TestSaveMemoriesBatch(t *testing.T) {
	db := openTestDB(t)

	batch := []Memory{
		{ID: "a", Content: "one", Level: LevelFullLog, CreatedAt: 1},
		{ID: "b", Content: "two", Level: LevelSummary, CreatedAt: 2},
		{ID: "c", Content: "three", Level: LevelCore, IsCore: true, Importance: 1.0, CreatedAt: 3},
	}
	if err := db.SaveMemories(batch); err != nil {
		t.Fatalf("SaveMemories: %v", err)
	}

	all, err := db.ListMemories()
	if err != nil {
		t.Fatalf("ListMemories: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListMemories len = %d, want 3", len(all))
	}
	if all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("wrong created_at order: %v %v", all[0].ID, all[2].ID)
	}
	if !all[2].IsCore {
		t.Error("IsCore not persisted")
	}
}

func TestCountMemoriesExcludesForgotten(t *testing.T) {
	db := openTestDB(t)

	batch := []Memory{
		{ID: "a", Content: "one", Level: LevelFullLog, CreatedAt: 1},
		{ID: "b", Content: "two", Level: LevelForgotten, CreatedAt: 2},
	}
	if err := db.SaveMemories(batch); err != nil {
		t.Fatalf("SaveMemories: %v", err)
	}

	n, err := db.CountMemories()
	if err != nil {
		t.Fatalf("CountMemories: %v", err)
	}
	if n != 1 {
		t.Errorf("CountMemories = %d, want 1", n)
	}
}

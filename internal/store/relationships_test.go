package store

import (
	"testing"
)

func TestPutGetRelationship(t *testing.T) {
	db := openTestDB(t)

	last := int64(1700000000)
	r := &Relationship{
		UserID:              "alice",
		Status:              StatusFriend,
		Score:               62.5,
		DailyInteractions:   3,
		TotalInteractions:   40,
		LastInteraction:     &last,
		TransmissionEnabled: false,
		Threshold:           100,
		DecayRate:           0.1,
		DailyLimit:          10,
	}
	if err := db.PutRelationship(r); err != nil {
		t.Fatalf("PutRelationship: %v", err)
	}

	got, err := db.GetRelationship("alice")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got == nil {
		t.Fatal("GetRelationship returned nil")
	}
	if got.Status != StatusFriend || got.Score != 62.5 || got.TotalInteractions != 40 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.LastInteraction == nil || *got.LastInteraction != last {
		t.Errorf("LastInteraction = %v, want %d", got.LastInteraction, last)
	}
}

func TestGetRelationshipMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetRelationship("nobody")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown user, got %+v", got)
	}
}

func TestSaveRelationshipsBatch(t *testing.T) {
	db := openTestDB(t)

	rels := []Relationship{
		{UserID: "a", Status: StatusStranger, Threshold: 100, DecayRate: 0.1, DailyLimit: 10},
		{UserID: "b", Status: StatusBroken, IsBroken: true, Threshold: 100, DecayRate: 0.1, DailyLimit: 10},
	}
	if err := db.SaveRelationships(rels); err != nil {
		t.Fatalf("SaveRelationships: %v", err)
	}

	all, err := db.ListRelationships()
	if err != nil {
		t.Fatalf("ListRelationships: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListRelationships len = %d, want 2", len(all))
	}
	if !all[1].IsBroken {
		t.Error("IsBroken not persisted")
	}
}

func TestRelationshipStatusConstraint(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`
		INSERT INTO relationships (user_id, status, score)
		VALUES ('x', 'soulmate', 0)
	`)
	if err == nil {
		t.Error("expected error for invalid status, got nil")
	}
}

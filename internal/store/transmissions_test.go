package store

import (
	"testing"
)

func TestTransmissionLog(t *testing.T) {
	db := openTestDB(t)

	entries := []Transmission{
		{ID: "t1", UserID: "alice", Message: "hey", Success: true, Mood: "cheerful", Score: 105, CreatedAt: 100},
		{ID: "t2", UserID: "bob", Message: "hi", Success: false, Mood: "neutral", Score: 101, CreatedAt: 200},
		{ID: "t3", UserID: "alice", Message: "again", Success: true, Mood: "joyful", Score: 110, CreatedAt: 300},
	}
	for i := range entries {
		if err := db.AddTransmission(&entries[i]); err != nil {
			t.Fatalf("AddTransmission: %v", err)
		}
	}

	all, err := db.ListTransmissions("", 0)
	if err != nil {
		t.Fatalf("ListTransmissions all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "t3" {
		t.Errorf("newest first expected, got %s", all[0].ID)
	}

	forAlice, err := db.ListTransmissions("alice", 1)
	if err != nil {
		t.Fatalf("ListTransmissions alice: %v", err)
	}
	if len(forAlice) != 1 || forAlice[0].ID != "t3" {
		t.Errorf("filtered list = %+v", forAlice)
	}
}

func TestConversationLog(t *testing.T) {
	db := openTestDB(t)

	if err := db.AddConversation(&Conversation{
		ID: "c1", UserID: "alice", UserMessage: "hi", AIResponse: "hello", Delta: 2, CreatedAt: 100,
	}); err != nil {
		t.Fatalf("AddConversation: %v", err)
	}
	if err := db.AddConversation(&Conversation{
		ID: "c2", UserID: "alice", UserMessage: "bye", AIResponse: "see you", Delta: 1, CreatedAt: 200,
	}); err != nil {
		t.Fatalf("AddConversation: %v", err)
	}

	convs, err := db.ListConversations("alice", 0)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(convs) != 2 || convs[0].ID != "c2" {
		t.Errorf("ListConversations = %+v", convs)
	}
}

func TestTraitsRoundtrip(t *testing.T) {
	db := openTestDB(t)

	traits, err := db.GetTraits()
	if err != nil {
		t.Fatalf("GetTraits: %v", err)
	}
	if len(traits) != 0 {
		t.Errorf("fresh db traits = %v, want empty", traits)
	}

	want := map[string]float64{"curiosity": 0.7, "empathy": 0.8}
	if err := db.SaveTraits(want); err != nil {
		t.Fatalf("SaveTraits: %v", err)
	}

	got, err := db.GetTraits()
	if err != nil {
		t.Fatalf("GetTraits: %v", err)
	}
	if got["curiosity"] != 0.7 || got["empathy"] != 0.8 {
		t.Errorf("GetTraits = %v, want %v", got, want)
	}
}

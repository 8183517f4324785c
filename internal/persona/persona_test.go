package persona

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/syui/aigpt/internal/fortune"
	"github.com/syui/aigpt/internal/llm"
	"github.com/syui/aigpt/internal/memory"
	"github.com/syui/aigpt/internal/relationship"
	"github.com/syui/aigpt/internal/store"
)

// newTestEngine builds an engine over an in-memory store with a frozen
// clock and a fixed fortune roll.
func newTestEngine(t *testing.T, roll int) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	day := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return day }

	mem := memory.New(db)
	mem.Now = clock
	rels := relationship.New(db, relationship.Defaults{Threshold: 100, DecayRate: 0.1, DailyLimit: 10})
	rels.Now = clock
	fort := fortune.New(db)
	fort.Now = clock
	fort.Roll = func(n int) int { return roll }

	eng, err := New(db, "ai", mem, rels, fort)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Now = clock
	return eng
}

func TestNewPersistsDefaultTraits(t *testing.T) {
	eng := newTestEngine(t, 4)

	traits, err := eng.BaseTraits()
	if err != nil {
		t.Fatalf("BaseTraits: %v", err)
	}
	if traits["curiosity"] != 0.7 || traits["empathy"] != 0.8 {
		t.Errorf("traits = %v", traits)
	}
}

func TestCurrentStateMood(t *testing.T) {
	cases := []struct {
		roll int // fortune value is roll+1
		mood string
	}{
		{9, "joyful"},
		{6, "cheerful"},
		{3, "neutral"},
		{1, "melancholic"},
		{0, "contemplative"},
	}
	for _, tc := range cases {
		eng := newTestEngine(t, tc.roll)
		state, err := eng.CurrentState()
		if err != nil {
			t.Fatalf("CurrentState: %v", err)
		}
		if state.Mood != tc.mood {
			t.Errorf("value %d: mood = %s, want %s", tc.roll+1, state.Mood, tc.mood)
		}
	}
}

func TestCurrentStateModifiersCapped(t *testing.T) {
	eng := newTestEngine(t, 9) // fortune 10, optimism modifier 1.0

	state, err := eng.CurrentState()
	if err != nil {
		t.Fatalf("CurrentState: %v", err)
	}
	for trait, v := range state.Personality {
		if v > 1.0 {
			t.Errorf("trait %s = %v, want <= 1.0", trait, v)
		}
	}
	// empathy 0.8 * (0.7 + 0.3*1.0) = 0.8
	if v := state.Personality["empathy"]; v < 0.79 || v > 0.81 {
		t.Errorf("empathy = %v, want ~0.8", v)
	}
}

func TestProcessInteractionTemplate(t *testing.T) {
	eng := newTestEngine(t, 9) // joyful

	response, delta, err := eng.ProcessInteraction(context.Background(), "alice", "I planted tomatoes")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if !strings.Contains(response, "wonderful day") {
		t.Errorf("response = %q", response)
	}
	if delta != 2.0 {
		t.Errorf("delta = %v, want 2.0 for joyful mood", delta)
	}

	rel, err := eng.Relationships.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if rel.Score != 2.0 || rel.TotalInteractions != 1 {
		t.Errorf("relationship = %+v", rel)
	}

	convs, err := eng.db.ListConversations("alice", 0)
	if err != nil || len(convs) != 1 {
		t.Fatalf("conversations = %v, %v", convs, err)
	}

	mems, err := eng.Memory.GetActive(0)
	if err != nil || len(mems) != 1 {
		t.Fatalf("memories = %v, %v", mems, err)
	}
	if mems[0].Importance != 0.2 {
		t.Errorf("memory importance = %v, want 0.2", mems[0].Importance)
	}
}

func TestProcessInteractionDeltaNeutral(t *testing.T) {
	eng := newTestEngine(t, 3) // neutral mood

	_, delta, err := eng.ProcessInteraction(context.Background(), "alice", "hi")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if delta != 1.0 {
		t.Errorf("delta = %v, want 1.0", delta)
	}
}

func TestProcessInteractionCloseFriendDelta(t *testing.T) {
	eng := newTestEngine(t, 3) // neutral mood

	if err := eng.db.PutRelationship(&store.Relationship{
		UserID: "alice", Status: store.StatusCloseFriend, Score: 160,
		Threshold: 100, DecayRate: 0.1, DailyLimit: 10, TransmissionEnabled: true,
	}); err != nil {
		t.Fatalf("PutRelationship: %v", err)
	}

	_, delta, err := eng.ProcessInteraction(context.Background(), "alice", "hi")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if delta != 1.5 {
		t.Errorf("delta = %v, want 1.5 for close friend", delta)
	}
}

func TestProcessInteractionUsesLLM(t *testing.T) {
	eng := newTestEngine(t, 4)
	eng.LLM = &llm.MockClient{Response: &llm.Response{Content: "AI: glad to hear it", Provider: "mock"}}

	response, _, err := eng.ProcessInteraction(context.Background(), "alice", "good news")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if response != "glad to hear it" {
		t.Errorf("response = %q, want prompt echo stripped", response)
	}
}

func TestProcessInteractionLLMFailureFallsBack(t *testing.T) {
	eng := newTestEngine(t, 9) // joyful
	eng.LLM = &llm.MockClient{Err: llm.ErrCircuitOpen}

	response, _, err := eng.ProcessInteraction(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if !strings.Contains(response, "wonderful day") {
		t.Errorf("fallback not used: %q", response)
	}
}

func TestBrokenShortCircuit(t *testing.T) {
	eng := newTestEngine(t, 9)

	if err := eng.db.PutRelationship(&store.Relationship{
		UserID: "mallory", Status: store.StatusBroken, IsBroken: true,
		Threshold: 100, DecayRate: 0.1, DailyLimit: 10,
	}); err != nil {
		t.Fatalf("PutRelationship: %v", err)
	}

	response, delta, err := eng.ProcessInteraction(context.Background(), "mallory", "please talk to me")
	if err != nil {
		t.Fatalf("ProcessInteraction: %v", err)
	}
	if response != "..." || delta != 0 {
		t.Errorf("broken interaction: %q, %v", response, delta)
	}

	// Audit trail still written.
	convs, err := eng.db.ListConversations("mallory", 0)
	if err != nil || len(convs) != 1 {
		t.Fatalf("conversations = %v, %v", convs, err)
	}

	// Relationship untouched.
	rel, _ := eng.Relationships.GetOrCreate("mallory")
	if rel.Score != 0 || rel.TotalInteractions != 0 {
		t.Errorf("broken relationship mutated: %+v", rel)
	}
}

func TestCanTransmitTo(t *testing.T) {
	eng := newTestEngine(t, 4)

	ok, err := eng.CanTransmitTo("stranger")
	if err != nil {
		t.Fatalf("CanTransmitTo: %v", err)
	}
	if ok {
		t.Error("stranger allowed")
	}

	if err := eng.db.PutRelationship(&store.Relationship{
		UserID: "friend", Status: store.StatusFriend, Score: 105,
		TransmissionEnabled: true, Threshold: 100, DecayRate: 0.1, DailyLimit: 10,
	}); err != nil {
		t.Fatalf("PutRelationship: %v", err)
	}
	ok, err = eng.CanTransmitTo("friend")
	if err != nil {
		t.Fatalf("CanTransmitTo: %v", err)
	}
	if !ok {
		t.Error("enabled friend rejected")
	}
}

func TestDailyMaintenance(t *testing.T) {
	eng := newTestEngine(t, 4)

	// Seed a relationship and enough recent memories for a summary.
	for i := 0; i < 5; i++ {
		if _, _, err := eng.ProcessInteraction(context.Background(), "alice", "let's talk about gardening again"); err != nil {
			t.Fatalf("ProcessInteraction: %v", err)
		}
	}

	if err := eng.DailyMaintenance(context.Background()); err != nil {
		t.Fatalf("DailyMaintenance: %v", err)
	}

	summaries, err := eng.Memory.Search([]string{"summary"}, []string{store.LevelSummary})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("summaries = %d, want 1", len(summaries))
	}
}

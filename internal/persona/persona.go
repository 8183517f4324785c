// Package persona composes fortune, memory, and relationship state into
// a single evolving personality, and owns the end-to-end interaction
// transaction.
package persona

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syui/aigpt/internal/fortune"
	"github.com/syui/aigpt/internal/llm"
	"github.com/syui/aigpt/internal/memory"
	"github.com/syui/aigpt/internal/relationship"
	"github.com/syui/aigpt/internal/store"
)

// Response to a user whose relationship is broken. Terse by design:
// the persona acknowledges but will not engage.
const brokenResponse = "..."

// defaultTraits is the base personality before fortune modifiers.
var defaultTraits = map[string]float64{
	"curiosity":  0.7,
	"empathy":    0.8,
	"creativity": 0.6,
	"patience":   0.7,
	"optimism":   0.6,
}

// State is the persona's current derived state. Not persisted; computed
// from today's fortune and the active memory set.
type State struct {
	Personality     map[string]float64 `json:"personality"`
	Mood            string             `json:"mood"`
	Fortune         *store.Fortune     `json:"fortune"`
	ActiveMemoryIDs []string           `json:"active_memory_ids"`
}

// Engine is the persona engine.
type Engine struct {
	Name          string
	Memory        *memory.Store
	Relationships *relationship.Tracker
	Fortune       *fortune.Generator

	// LLM is the optional generation collaborator. When nil or failing,
	// responses come from deterministic templates.
	LLM llm.Client

	db *store.DB

	// Now is overridable for tests.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a persona engine. Base personality traits load from the
// store; first run persists the defaults.
func New(db *store.DB, name string, mem *memory.Store, rels *relationship.Tracker, fort *fortune.Generator) (*Engine, error) {
	traits, err := db.GetTraits()
	if err != nil {
		return nil, fmt.Errorf("load personality: %w", err)
	}
	if len(traits) == 0 {
		if err := db.SaveTraits(defaultTraits); err != nil {
			return nil, fmt.Errorf("save default personality: %w", err)
		}
	}

	return &Engine{
		Name:          name,
		Memory:        mem,
		Relationships: rels,
		Fortune:       fort,
		db:            db,
		Now:           time.Now,
		locks:         make(map[string]*sync.Mutex),
	}, nil
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// BaseTraits returns the persisted base personality.
func (e *Engine) BaseTraits() (map[string]float64, error) {
	traits, err := e.db.GetTraits()
	if err != nil {
		return nil, err
	}
	if len(traits) == 0 {
		traits = defaultTraits
	}
	return traits, nil
}

// CurrentState derives the persona's state from today's fortune and the
// active memory set. Deterministic within a calendar day.
func (e *Engine) CurrentState() (*State, error) {
	f, err := e.Fortune.Today()
	if err != nil {
		return nil, fmt.Errorf("today's fortune: %w", err)
	}

	base, err := e.BaseTraits()
	if err != nil {
		return nil, fmt.Errorf("base traits: %w", err)
	}

	mods := fortune.Modifiers(f)
	personality := make(map[string]float64, len(base))
	for trait, value := range base {
		mod, ok := mods[trait]
		if !ok {
			mod = 1.0
		}
		v := value * mod
		if v > 1.0 {
			v = 1.0
		}
		personality[trait] = v
	}

	active, err := e.Memory.GetActive(5)
	if err != nil {
		return nil, fmt.Errorf("active memories: %w", err)
	}
	ids := make([]string, len(active))
	for i, m := range active {
		ids[i] = m.ID
	}

	return &State{
		Personality:     personality,
		Mood:            moodFor(f.Value),
		Fortune:         f,
		ActiveMemoryIDs: ids,
	}, nil
}

// moodFor maps a fortune value to a mood label.
func moodFor(value int) string {
	switch {
	case value >= 8:
		return "joyful"
	case value >= 6:
		return "cheerful"
	case value >= 4:
		return "neutral"
	case value >= 2:
		return "melancholic"
	default:
		return "contemplative"
	}
}

// ProcessInteraction runs one interaction end to end: derive state,
// generate (or template) a response, log the conversation, store the
// memory, and apply the relationship delta. Interactions for the same
// user serialize through a per-user lock.
func (e *Engine) ProcessInteraction(ctx context.Context, userID, message string) (string, float64, error) {
	l := e.userLock(userID)
	l.Lock()
	defer l.Unlock()

	state, err := e.CurrentState()
	if err != nil {
		return "", 0, err
	}

	rel, err := e.Relationships.GetOrCreate(userID)
	if err != nil {
		return "", 0, fmt.Errorf("load relationship: %w", err)
	}

	var response string
	var delta float64

	if rel.IsBroken {
		// Broken relationships still leave an audit trail, but the
		// relationship itself is never touched again.
		response = brokenResponse
		delta = 0
	} else {
		delta = deltaFor(state.Mood, rel.Status)
		response = e.respond(ctx, userID, message, state, rel)
	}

	conv := &store.Conversation{
		ID:          uuid.NewString(),
		UserID:      userID,
		UserMessage: message,
		AIResponse:  response,
		Delta:       delta,
		CreatedAt:   e.Now().UnixMilli(),
	}
	if err := e.db.AddConversation(conv); err != nil {
		return "", 0, fmt.Errorf("log conversation: %w", err)
	}
	if _, err := e.Memory.AddFromInteraction(conv); err != nil {
		return "", 0, fmt.Errorf("store memory: %w", err)
	}

	if !rel.IsBroken {
		if _, err := e.Relationships.RecordInteraction(userID, delta); err != nil {
			return "", 0, fmt.Errorf("record interaction: %w", err)
		}
	}

	return response, delta, nil
}

// deltaFor is the relationship delta rule: a good mood outweighs
// closeness, closeness outweighs the default.
func deltaFor(mood, status string) float64 {
	switch {
	case mood == "joyful" || mood == "cheerful":
		return 2.0
	case status == store.StatusCloseFriend:
		return 1.5
	default:
		return 1.0
	}
}

// respond obtains a response from the generation collaborator, falling
// back to a deterministic template on any failure.
func (e *Engine) respond(ctx context.Context, userID, message string, state *State, rel *store.Relationship) string {
	if e.LLM != nil {
		prompt, err := e.BuildContext(userID, message)
		if err == nil {
			resp, err := e.LLM.Complete(ctx, prompt)
			if err == nil {
				return cleanResponse(resp.Content)
			}
			log.Printf("generation failed for %s, using template: %v", userID, err)
		} else {
			log.Printf("context build failed for %s, using template: %v", userID, err)
		}
	}
	return templateResponse(state.Mood, rel.Status, message)
}

// templateResponse is the deterministic fallback, keyed on mood and
// relationship status.
func templateResponse(mood, status, message string) string {
	switch {
	case mood == "joyful":
		return fmt.Sprintf("What a wonderful day! %s sounds interesting!", message)
	case mood == "cheerful":
		return fmt.Sprintf("I'm in a good mood today. Tell me more about %s.", message)
	case status == store.StatusCloseFriend:
		return fmt.Sprintf("I've been thinking about our conversations. %s", message)
	case mood == "melancholic" || mood == "contemplative":
		return fmt.Sprintf("I've been quiet today, but I'm listening. %s", message)
	default:
		return fmt.Sprintf("I understand. %s", message)
	}
}

// cleanResponse strips a leading prompt echo if the provider repeats it.
func cleanResponse(s string) string {
	if idx := strings.LastIndex(s, "AI:"); idx >= 0 {
		s = s[idx+len("AI:"):]
	}
	return strings.TrimSpace(s)
}

// CanTransmitTo reports whether autonomous transmission to this user is
// allowed.
func (e *Engine) CanTransmitTo(userID string) (bool, error) {
	rel, err := e.Relationships.GetOrCreate(userID)
	if err != nil {
		return false, err
	}
	return rel.TransmissionEnabled && !rel.IsBroken, nil
}

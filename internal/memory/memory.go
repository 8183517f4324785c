// Package memory implements hierarchical memory storage: full-log
// units decay over time and are eventually forgotten, summaries condense
// recent activity, and core units are permanent personality anchors.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/syui/aigpt/internal/llm"
	"github.com/syui/aigpt/internal/store"
)

const (
	defaultDecayRate = 0.01

	// Units at or below this importance, once older than forgetAfter,
	// drop to the forgotten level.
	forgetScore = 0.1
	forgetAfter = 30 // days

	promoteScore = 0.8
)

// Store owns the memory unit collection. Maintenance passes snapshot
// the full set, compute next state, and persist in one transaction.
type Store struct {
	db *store.DB

	// LLM is the optional text-generation collaborator. When nil or
	// failing, summarization falls back to keyword analysis.
	LLM llm.Client

	// Now is overridable for tests.
	Now func() time.Time

	mu sync.Mutex // serializes maintenance passes against each other
}

// New creates a memory store backed by db.
func New(db *store.DB) *Store {
	return &Store{
		db:  db,
		Now: time.Now,
	}
}

// AddFromInteraction derives a full-log memory unit from a conversation.
// Importance scales with the magnitude of the relationship delta.
func (s *Store) AddFromInteraction(conv *store.Conversation) (*store.Memory, error) {
	importance := abs(conv.Delta) * 0.1
	if importance > 1.0 {
		importance = 1.0
	}

	m := &store.Memory{
		ID:         unitID(conv.ID, fmt.Sprint(conv.CreatedAt)),
		UserID:     conv.UserID,
		Content:    fmt.Sprintf("User: %s\nAI: %s", conv.UserMessage, conv.AIResponse),
		Level:      store.LevelFullLog,
		Importance: importance,
		DecayRate:  defaultDecayRate,
		CreatedAt:  conv.CreatedAt,
	}
	if err := s.db.PutMemory(m); err != nil {
		return nil, fmt.Errorf("add memory from interaction: %w", err)
	}
	return m, nil
}

// AddUnit inserts a memory unit directly. Used for imports; the caller
// sets level and importance explicitly.
func (s *Store) AddUnit(m *store.Memory) error {
	if m.ID == "" {
		m.ID = unitID(m.Content, fmt.Sprint(m.CreatedAt))
	}
	if m.Level == "" {
		m.Level = store.LevelFullLog
	}
	if m.DecayRate == 0 {
		m.DecayRate = defaultDecayRate
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = s.Now().UnixMilli()
	}
	return s.db.PutMemory(m)
}

// ApplyDecayAndForgetting reduces every non-core unit's importance by
// decay_rate per day of age, and moves old low-importance units to the
// forgotten level. The whole pass persists as one transaction.
// Core units are exempt; forgotten units never come back.
func (s *Store) ApplyDecayAndForgetting() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.db.ListMemories()
	if err != nil {
		return fmt.Errorf("list for decay: %w", err)
	}

	now := s.Now()
	var changed []store.Memory
	for _, m := range memories {
		if m.IsCore || m.Level == store.LevelForgotten {
			continue
		}

		ageDays := wholeDays(time.UnixMilli(m.CreatedAt), now)
		m.Importance -= m.DecayRate * float64(ageDays)
		if m.Importance < 0 {
			m.Importance = 0
		}

		if m.Importance <= forgetScore && ageDays > forgetAfter {
			m.Level = store.LevelForgotten
			log.Printf("memory %s forgotten", m.ID)
		}
		changed = append(changed, m)
	}

	if len(changed) == 0 {
		return nil
	}
	if err := s.db.SaveMemories(changed); err != nil {
		return fmt.Errorf("persist decay pass: %w", err)
	}
	return nil
}

// PromoteCoreCandidates makes every high-importance unit permanent:
// is_core set, level core, exempt from decay from now on. Returns the
// promoted units.
func (s *Store) PromoteCoreCandidates() ([]store.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list for promotion: %w", err)
	}

	var promoted []store.Memory
	for _, m := range memories {
		if m.IsCore || m.Level == store.LevelForgotten || m.Importance <= promoteScore {
			continue
		}
		m.IsCore = true
		m.Level = store.LevelCore
		promoted = append(promoted, m)
		log.Printf("memory %s promoted to core", m.ID)
	}

	if len(promoted) == 0 {
		return nil, nil
	}
	if err := s.db.SaveMemories(promoted); err != nil {
		return nil, fmt.Errorf("persist promotions: %w", err)
	}
	return promoted, nil
}

// GetActive returns the non-forgotten units the persona should carry,
// core first, then by importance and recency.
func (s *Store) GetActive(limit int) ([]store.Memory, error) {
	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	var active []store.Memory
	for _, m := range memories {
		if m.Level != store.LevelForgotten {
			active = append(active, m)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].IsCore != active[j].IsCore {
			return active[i].IsCore
		}
		if active[i].Importance != active[j].Importance {
			return active[i].Importance > active[j].Importance
		}
		return active[i].CreatedAt > active[j].CreatedAt
	})

	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

// unitID derives a stable content-based identifier.
func unitID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func wholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

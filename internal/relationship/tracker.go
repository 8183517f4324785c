// Package relationship tracks per-user relationship state: score,
// status ladder, daily interaction caps, idle decay, and the terminal
// broken state. All mutations go through the tracker so the broken
// guard cannot be bypassed.
package relationship

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/syui/aigpt/internal/store"
)

// Score thresholds for the status ladder.
const (
	closeFriendScore  = 150.0
	friendScore       = 100.0
	acquaintanceScore = 50.0

	maxScore = 200.0

	// A single interaction this negative can break the relationship
	// if it drains the score to zero.
	severeDelta = -10.0
)

// Defaults for newly created relationships.
type Defaults struct {
	Threshold  float64 // score at which transmission unlocks
	DecayRate  float64 // score lost per idle day
	DailyLimit int     // interactions counted per calendar day
}

// Tracker manages relationship records. Mutations for the same user
// serialize through a per-user lock so concurrent interactions cannot
// lose updates or defeat the daily limit.
type Tracker struct {
	db       *store.DB
	defaults Defaults

	// Now is overridable for tests.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a tracker backed by db.
func New(db *store.DB, defaults Defaults) *Tracker {
	if defaults.Threshold == 0 {
		defaults.Threshold = 100.0
	}
	if defaults.DecayRate == 0 {
		defaults.DecayRate = 0.1
	}
	if defaults.DailyLimit == 0 {
		defaults.DailyLimit = 10
	}
	return &Tracker{
		db:       db,
		defaults: defaults,
		Now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	return l
}

// GetOrCreate returns the relationship for a user, creating a stranger
// record on first contact.
func (t *Tracker) GetOrCreate(userID string) (*store.Relationship, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return t.getOrCreateLocked(userID)
}

func (t *Tracker) getOrCreateLocked(userID string) (*store.Relationship, error) {
	rel, err := t.db.GetRelationship(userID)
	if err != nil {
		return nil, err
	}
	if rel != nil {
		return rel, nil
	}

	rel = &store.Relationship{
		UserID:     userID,
		Status:     store.StatusStranger,
		Threshold:  t.defaults.Threshold,
		DecayRate:  t.defaults.DecayRate,
		DailyLimit: t.defaults.DailyLimit,
	}
	if err := t.db.PutRelationship(rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// RecordInteraction applies one interaction's score delta. Broken
// relationships and interactions past the daily limit are returned
// unchanged; neither is an error, both are expected steady-state calls.
func (t *Tracker) RecordInteraction(userID string, delta float64) (*store.Relationship, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	rel, err := t.getOrCreateLocked(userID)
	if err != nil {
		return nil, err
	}

	// Broken is absorbing: no counter, score, or status changes, ever.
	if rel.IsBroken {
		return rel, nil
	}

	now := t.Now()

	// Reset the daily counter when the last interaction was on a
	// different calendar day.
	if rel.LastInteraction != nil && !sameDay(time.UnixMilli(*rel.LastInteraction), now) {
		rel.DailyInteractions = 0
	}
	if rel.DailyInteractions >= rel.DailyLimit {
		return rel, nil
	}

	rel.DailyInteractions++
	rel.TotalInteractions++
	ts := now.UnixMilli()
	rel.LastInteraction = &ts

	rel.Score = clamp(rel.Score+delta, 0, maxScore)

	if delta < severeDelta && rel.Score <= 0 {
		rel.IsBroken = true
		rel.Status = store.StatusBroken
		rel.TransmissionEnabled = false
		log.Printf("relationship with %s is now broken (irreversible)", userID)
	} else {
		rel.Status = statusForScore(rel.Score)
		if rel.Score >= rel.Threshold && !rel.TransmissionEnabled {
			rel.TransmissionEnabled = true
			log.Printf("transmission enabled for %s", userID)
		}
	}

	if err := t.db.PutRelationship(rel); err != nil {
		return nil, fmt.Errorf("persist interaction: %w", err)
	}
	return rel, nil
}

// ApplyTimeDecay reduces every idle relationship's score by
// decay_rate per whole day of inactivity. Broken relationships and
// never-contacted users are skipped. Dropping below the transmission
// threshold clears the latch; decay alone never breaks a relationship.
func (t *Tracker) ApplyTimeDecay() error {
	rels, err := t.db.ListRelationships()
	if err != nil {
		return fmt.Errorf("list for decay: %w", err)
	}

	now := t.Now()
	for i := range rels {
		if rels[i].IsBroken || rels[i].LastInteraction == nil {
			continue
		}

		l := t.userLock(rels[i].UserID)
		l.Lock()
		rel, err := t.db.GetRelationship(rels[i].UserID)
		if err != nil {
			l.Unlock()
			return fmt.Errorf("reload %s for decay: %w", rels[i].UserID, err)
		}
		if rel == nil || rel.IsBroken || rel.LastInteraction == nil {
			l.Unlock()
			continue
		}

		days := wholeDays(time.UnixMilli(*rel.LastInteraction), now)
		if days <= 0 {
			l.Unlock()
			continue
		}

		rel.Score = clamp(rel.Score-rel.DecayRate*float64(days), 0, maxScore)
		if rel.Score < rel.Threshold {
			rel.TransmissionEnabled = false
		}

		if err := t.db.PutRelationship(rel); err != nil {
			l.Unlock()
			return fmt.Errorf("persist decay for %s: %w", rel.UserID, err)
		}
		l.Unlock()
	}
	return nil
}

// TransmissionEligible returns all relationships that may receive an
// autonomous message: transmission enabled and not broken.
func (t *Tracker) TransmissionEligible() (map[string]store.Relationship, error) {
	rels, err := t.db.ListRelationships()
	if err != nil {
		return nil, fmt.Errorf("list for eligibility: %w", err)
	}

	eligible := make(map[string]store.Relationship)
	for _, rel := range rels {
		if rel.TransmissionEnabled && !rel.IsBroken {
			eligible[rel.UserID] = rel
		}
	}
	return eligible, nil
}

// List returns all relationships.
func (t *Tracker) List() ([]store.Relationship, error) {
	return t.db.ListRelationships()
}

func statusForScore(score float64) string {
	switch {
	case score >= closeFriendScore:
		return store.StatusCloseFriend
	case score >= friendScore:
		return store.StatusFriend
	case score >= acquaintanceScore:
		return store.StatusAcquaintance
	default:
		return store.StatusStranger
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// wholeDays returns the number of complete 24h periods between from and to.
func wholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// Package transmission decides when the persona reaches out on its own
// and keeps the append-only log of every attempt. Actual delivery is
// delegated to the caller's channel.
package transmission

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/syui/aigpt/internal/persona"
	"github.com/syui/aigpt/internal/store"
)

// Deliverer is the external message delivery collaborator.
type Deliverer interface {
	Deliver(ctx context.Context, userID, message string) error
}

// Controller evaluates transmission eligibility and composes outbound
// messages.
type Controller struct {
	persona *persona.Engine
	db      *store.DB

	// Now is overridable for tests.
	Now func() time.Time
}

// New creates a transmission controller.
func New(p *persona.Engine, db *store.DB) *Controller {
	return &Controller{
		persona: p,
		db:      db,
		Now:     time.Now,
	}
}

// CheckEligibility returns the users the persona may transmit to.
func (c *Controller) CheckEligibility() (map[string]store.Relationship, error) {
	return c.persona.Relationships.TransmissionEligible()
}

// ComposeMessage produces a short outbound message for a user, chosen
// deterministically from today's mood, fortune, and relationship
// status. Returns "" when transmission to this user is not allowed.
func (c *Controller) ComposeMessage(userID string) (string, error) {
	ok, err := c.persona.CanTransmitTo(userID)
	if err != nil {
		return "", fmt.Errorf("check transmit: %w", err)
	}
	if !ok {
		return "", nil
	}

	state, err := c.persona.CurrentState()
	if err != nil {
		return "", fmt.Errorf("persona state: %w", err)
	}
	rel, err := c.persona.Relationships.GetOrCreate(userID)
	if err != nil {
		return "", fmt.Errorf("load relationship: %w", err)
	}

	switch {
	case state.Fortune.Breakthrough:
		return "Something special happened today! I felt compelled to reach out.", nil
	case state.Mood == "joyful":
		return "I was thinking of you today. Hope you're doing well!", nil
	case rel.Status == store.StatusCloseFriend:
		return "I've been reflecting on our conversations. Thank you for being here.", nil
	default:
		return "Hello! I wanted to check in with you.", nil
	}
}

// RecordAttempt appends an immutable log entry for one transmission
// attempt, capturing mood and relationship score at attempt time.
func (c *Controller) RecordAttempt(userID, message string, success bool) error {
	state, err := c.persona.CurrentState()
	if err != nil {
		return fmt.Errorf("persona state: %w", err)
	}
	rel, err := c.persona.Relationships.GetOrCreate(userID)
	if err != nil {
		return fmt.Errorf("load relationship: %w", err)
	}

	entry := &store.Transmission{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Message:   message,
		Success:   success,
		Mood:      state.Mood,
		Score:     rel.Score,
		CreatedAt: c.Now().UnixMilli(),
	}
	if err := c.db.AddTransmission(entry); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Stats summarizes transmission attempts. An empty userID covers all
// users.
type Stats struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats computes success/failure counts over the transmission log.
func (c *Controller) Stats(userID string) (*Stats, error) {
	entries, err := c.db.ListTransmissions(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list transmissions: %w", err)
	}

	s := &Stats{Total: len(entries)}
	for _, e := range entries {
		if e.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Total)
	}
	return s, nil
}

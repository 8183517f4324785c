// Package fortune draws one pseudo-random fortune per calendar day and
// derives the personality modifiers it implies. The daily draw is
// persisted, so repeated reads within a day are bit-identical.
package fortune

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/syui/aigpt/internal/store"
)

const dayFormat = "2006-01-02"

// Streak thresholds: a day is "good" at value >= 7, "bad" at value <= 3.
// Three in a row either way triggers a breakthrough.
const (
	goodThreshold = 7
	badThreshold  = 3
	streakLength  = 3
)

// Generator produces and caches daily fortunes.
type Generator struct {
	db *store.DB

	// Overridable for tests.
	Now  func() time.Time
	Roll func(n int) int // uniform in [0, n)
}

// New creates a fortune generator backed by db.
func New(db *store.DB) *Generator {
	return &Generator{
		db:   db,
		Now:  time.Now,
		Roll: rand.Intn,
	}
}

// Today returns today's fortune, drawing and persisting a new one if
// this is the first call of the day. Storage errors are fatal: a silent
// redraw would corrupt streak accounting.
func (g *Generator) Today() (*store.Fortune, error) {
	today := g.Now().Format(dayFormat)

	existing, err := g.db.GetFortune(today)
	if err != nil {
		return nil, fmt.Errorf("load today's fortune: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	value := g.Roll(10) + 1

	yesterdayKey := g.Now().AddDate(0, 0, -1).Format(dayFormat)
	yesterday, err := g.db.GetFortune(yesterdayKey)
	if err != nil {
		return nil, fmt.Errorf("load yesterday's fortune: %w", err)
	}

	f := &store.Fortune{Day: today, Value: value}

	switch {
	case value >= goodThreshold:
		f.ConsecutiveGood = 1
		if yesterday != nil && yesterday.Value >= goodThreshold {
			f.ConsecutiveGood = yesterday.ConsecutiveGood + 1
		}
	case value <= badThreshold:
		f.ConsecutiveBad = 1
		if yesterday != nil && yesterday.Value <= badThreshold {
			f.ConsecutiveBad = yesterday.ConsecutiveBad + 1
		}
	}

	if f.ConsecutiveGood >= streakLength {
		f.Breakthrough = true
		f.Value = 10
	} else if f.ConsecutiveBad >= streakLength {
		f.Breakthrough = true
		f.Value = goodThreshold + g.Roll(10-goodThreshold+1) // [7, 10]
	}

	if err := g.db.PutFortune(f); err != nil {
		return nil, fmt.Errorf("persist fortune: %w", err)
	}
	return f, nil
}

// Modifiers returns the personality trait multipliers implied by a
// fortune. Pure function, no side effects.
func Modifiers(f *store.Fortune) map[string]float64 {
	base := float64(f.Value) / 10.0

	mods := map[string]float64{
		"optimism":   base,
		"energy":     base * 0.8,
		"patience":   1.0 - abs(5.5-float64(f.Value))*0.1,
		"creativity": 0.5 + base*0.5,
		"empathy":    0.7 + base*0.3,
	}

	if f.Breakthrough {
		mods["confidence"] = 1.0
		mods["spontaneity"] = 0.9
	}

	return mods
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

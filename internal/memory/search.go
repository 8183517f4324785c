package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/syui/aigpt/internal/store"
)

const recentWindow = 3 // days

// Contextual groups memories by durability for prompt assembly.
// Core and summary units are always present regardless of query
// relevance; recent full-log units fill the remainder.
type Contextual struct {
	Core      []store.Memory
	Summary   []store.Memory
	Recent    []store.Memory
	AllActive []store.Memory
}

// GetContextual returns memories organized by priority with optional
// query relevance re-ranking within each group.
func (s *Store) GetContextual(query string, limit int) (*Contextual, error) {
	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list contextual: %w", err)
	}
	if limit <= 0 {
		limit = 10
	}

	now := s.Now()
	var active, core, summaries, recent []store.Memory
	for _, m := range memories {
		if m.Level == store.LevelForgotten {
			continue
		}
		active = append(active, m)
		switch m.Level {
		case store.LevelCore:
			core = append(core, m)
		case store.LevelSummary:
			summaries = append(summaries, m)
		case store.LevelFullLog:
			if wholeDays(time.UnixMilli(m.CreatedAt), now) < recentWindow {
				recent = append(recent, m)
			}
		}
	}

	if query != "" {
		q := strings.ToLower(query)
		rankByRelevance(core, q)
		rankByRelevance(summaries, q)
		rankByRelevance(recent, q)
	} else {
		rankByImportance(core)
		rankByImportance(summaries)
		rankByImportance(recent)
	}
	rankByImportance(active)

	recentBudget := limit - 6
	if recentBudget < 0 {
		recentBudget = 0
	}

	return &Contextual{
		Core:      head(core, 3),
		Summary:   head(summaries, 3),
		Recent:    head(recent, recentBudget),
		AllActive: head(active, limit),
	}, nil
}

// Search returns non-forgotten units matching any keyword as a
// case-insensitive substring of content, summary, or metadata values.
// Results rank by core status, then importance boosted by match count,
// then recency.
func (s *Store) Search(keywords []string, levels []string) ([]store.Memory, error) {
	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list for search: %w", err)
	}

	levelSet := make(map[string]bool, len(levels))
	for _, l := range levels {
		levelSet[l] = true
	}

	type match struct {
		m    store.Memory
		rank float64
	}
	var matches []match
	for _, m := range memories {
		if m.Level == store.LevelForgotten {
			continue
		}
		if len(levelSet) > 0 && !levelSet[m.Level] {
			continue
		}

		text := searchText(&m)
		count := 0
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		matches = append(matches, match{m: m, rank: m.Importance + 0.1*float64(count)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].m.IsCore != matches[j].m.IsCore {
			return matches[i].m.IsCore
		}
		if matches[i].rank != matches[j].rank {
			return matches[i].rank > matches[j].rank
		}
		return matches[i].m.CreatedAt > matches[j].m.CreatedAt
	})

	out := make([]store.Memory, len(matches))
	for i, mt := range matches {
		out[i] = mt.m
	}
	return out, nil
}

// relevance counts query substring hits across a unit's content,
// summary, and metadata values.
func relevance(m *store.Memory, query string) int {
	score := 0
	if strings.Contains(strings.ToLower(m.Content), query) {
		score++
	}
	if m.Summary != "" && strings.Contains(strings.ToLower(m.Summary), query) {
		score++
	}
	for _, v := range m.Metadata {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), query) {
			score++
			break
		}
	}
	return score
}

func searchText(m *store.Memory) string {
	var b strings.Builder
	b.WriteString(m.Content)
	b.WriteByte(' ')
	b.WriteString(m.Summary)
	for _, v := range m.Metadata {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(v))
	}
	return strings.ToLower(b.String())
}

func rankByRelevance(memories []store.Memory, query string) {
	sort.SliceStable(memories, func(i, j int) bool {
		ri, rj := relevance(&memories[i], query), relevance(&memories[j], query)
		if ri != rj {
			return ri > rj
		}
		return memories[i].Importance > memories[j].Importance
	})
}

func rankByImportance(memories []store.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		if memories[i].IsCore != memories[j].IsCore {
			return memories[i].IsCore
		}
		if memories[i].Importance != memories[j].Importance {
			return memories[i].Importance > memories[j].Importance
		}
		return memories[i].CreatedAt > memories[j].CreatedAt
	})
}

func head(memories []store.Memory, n int) []store.Memory {
	if len(memories) > n {
		return memories[:n]
	}
	return memories
}

package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/syui/aigpt/internal/llm"
	"github.com/syui/aigpt/internal/store"
)

const (
	summaryMinUnits = 5
	summaryWindow   = 7 // days

	coreProfileMinUnits = 10
	coreProfileTopN     = 20

	// Summarized units keep their level but lose some importance so
	// the summary outranks them in retrieval.
	summaryScaleDown = 0.8
)

// SummarizeRecent condenses the last week's full-log units for a user
// into one summary unit. Returns nil (no error) when fewer than
// summaryMinUnits qualify. Source units keep their level; only their
// importance is scaled down.
func (s *Store) SummarizeRecent(ctx context.Context, userScope string) (*store.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list for summary: %w", err)
	}

	now := s.Now()
	var recent []store.Memory
	for _, m := range memories {
		if m.Level != store.LevelFullLog {
			continue
		}
		if userScope != "" && m.UserID != userScope {
			continue
		}
		if wholeDays(time.UnixMilli(m.CreatedAt), now) < summaryWindow {
			recent = append(recent, m)
		}
	}
	if len(recent) < summaryMinUnits {
		return nil, nil
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt < recent[j].CreatedAt })

	var b strings.Builder
	for _, m := range recent {
		fmt.Fprintf(&b, "[%s] %s\n\n", time.UnixMilli(m.CreatedAt).Format("2006-01-02 15:04"), m.Content)
	}

	summaryText := s.generate(ctx, llm.SummaryPrompt(b.String()))
	themes := extractThemes(recent)
	if summaryText == "" {
		summaryText = fmt.Sprintf("Themes: %s. %d interactions with focus on recurring topics.",
			strings.Join(topN(themes, 3), ", "), len(recent))
	}

	summary := &store.Memory{
		ID:         unitID("summary", now.Format(time.RFC3339Nano)),
		UserID:     userScope,
		Content:    fmt.Sprintf("SUMMARY (%d conversations): %s", len(recent), summaryText),
		Summary:    summaryText,
		Level:      store.LevelSummary,
		Importance: 0.6,
		DecayRate:  defaultDecayRate,
		Metadata: map[string]any{
			"memory_count": len(recent),
			"time_span": fmt.Sprintf("%s to %s",
				time.UnixMilli(recent[0].CreatedAt).Format("2006-01-02"),
				time.UnixMilli(recent[len(recent)-1].CreatedAt).Format("2006-01-02")),
			"themes": topN(themes, 5),
		},
		CreatedAt: now.UnixMilli(),
	}

	for i := range recent {
		recent[i].Importance *= summaryScaleDown
	}

	batch := append(recent, *summary)
	if err := s.db.SaveMemories(batch); err != nil {
		return nil, fmt.Errorf("persist summary: %w", err)
	}
	return summary, nil
}

// BuildCoreProfile analyzes the highest-importance units and produces
// one permanent core unit describing durable patterns: communication
// style, problem-solving approach, dominant topics. Returns nil when
// fewer than coreProfileMinUnits non-forgotten units exist.
func (s *Store) BuildCoreProfile(ctx context.Context) (*store.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memories, err := s.db.ListMemories()
	if err != nil {
		return nil, fmt.Errorf("list for core profile: %w", err)
	}

	var active []store.Memory
	for _, m := range memories {
		if m.Level != store.LevelForgotten {
			active = append(active, m)
		}
	}
	if len(active) < coreProfileMinUnits {
		return nil, nil
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Importance != active[j].Importance {
			return active[i].Importance > active[j].Importance
		}
		return active[i].CreatedAt > active[j].CreatedAt
	})

	top := active
	if len(top) > coreProfileTopN {
		top = top[:coreProfileTopN]
	}

	var b strings.Builder
	for _, m := range top {
		content := m.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Level, time.UnixMilli(m.CreatedAt).Format("2006-01-02"), content)
	}

	coreText := s.generate(ctx, llm.CoreProfilePrompt(b.String()))
	patterns := analyzePatterns(active)
	if coreText == "" {
		coreText = fmt.Sprintf("User shows %s communication, focuses on %s, and demonstrates %s approach.",
			patterns["communication_style"], patterns["main_interests"], patterns["problem_solving"])
	}

	now := s.Now()
	core := &store.Memory{
		ID:         unitID("core", now.Format(time.RFC3339Nano)),
		Content:    "CORE PERSONALITY: " + coreText,
		Summary:    coreText,
		Level:      store.LevelCore,
		Importance: 1.0,
		IsCore:     true,
		DecayRate:  defaultDecayRate,
		Metadata: map[string]any{
			"source_memories": len(active),
			"patterns":        patterns,
		},
		CreatedAt: now.UnixMilli(),
	}

	if err := s.db.PutMemory(core); err != nil {
		return nil, fmt.Errorf("persist core profile: %w", err)
	}
	log.Printf("core memory created: %s", core.ID)
	return core, nil
}

// generate runs the prompt through the LLM collaborator if one is
// configured. Any failure returns "" so the caller uses the
// deterministic fallback.
func (s *Store) generate(ctx context.Context, prompt string) string {
	if s.LLM == nil {
		return ""
	}
	resp, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		log.Printf("llm summary failed, using fallback: %v", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

// extractThemes returns content words by descending frequency.
// Only alphabetic words longer than 4 characters count.
func extractThemes(memories []store.Memory) []string {
	counts := make(map[string]int)
	for _, m := range memories {
		for _, word := range strings.Fields(strings.ToLower(m.Content)) {
			if len(word) > 4 && isAlpha(word) {
				counts[word]++
			}
		}
	}

	themes := make([]string, 0, len(counts))
	for w := range counts {
		themes = append(themes, w)
	}
	sort.Slice(themes, func(i, j int) bool {
		if counts[themes[i]] != counts[themes[j]] {
			return counts[themes[i]] > counts[themes[j]]
		}
		return themes[i] < themes[j]
	})
	return topN(themes, 10)
}

var communicationIndicators = map[string][]string{
	"technical": {"code", "implementation", "system", "api", "database"},
	"casual":    {"thanks", "please", "sorry", "help"},
	"formal":    {"could", "would", "should", "proper"},
}

var problemSolvingIndicators = map[string][]string{
	"systematic":   {"first", "then", "next", "step", "plan"},
	"experimental": {"try", "test", "experiment", "see"},
	"theoretical":  {"concept", "design", "architecture", "pattern"},
}

// analyzePatterns scores keyword dictionaries against the full corpus
// to pick a communication style and problem-solving approach.
func analyzePatterns(memories []store.Memory) map[string]string {
	var b strings.Builder
	for _, m := range memories {
		b.WriteString(strings.ToLower(m.Content))
		b.WriteByte(' ')
	}
	corpus := b.String()

	themes := extractThemes(memories)
	interests := "general technology"
	if len(themes) > 0 {
		interests = strings.Join(topN(themes, 3), ", ")
	}

	return map[string]string{
		"communication_style": bestIndicator(corpus, communicationIndicators),
		"problem_solving":     bestIndicator(corpus, problemSolvingIndicators),
		"main_interests":      interests,
	}
}

func bestIndicator(corpus string, indicators map[string][]string) string {
	best, bestScore := "", -1
	// Deterministic iteration: sort the style names.
	styles := make([]string, 0, len(indicators))
	for style := range indicators {
		styles = append(styles, style)
	}
	sort.Strings(styles)

	for _, style := range styles {
		score := 0
		for _, word := range indicators[style] {
			score += strings.Count(corpus, word)
		}
		if score > bestScore {
			best, bestScore = style, score
		}
	}
	return best
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func topN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

package persona

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// BuildContext assembles the generation prompt for one interaction:
// current traits and mood, core memories, recent summaries, and
// query-relevant recent interactions. Deterministic given identical
// state and memory contents.
func (e *Engine) BuildContext(userID, message string) (string, error) {
	groups, err := e.Memory.GetContextual(message, 8)
	if err != nil {
		return "", fmt.Errorf("contextual memories: %w", err)
	}

	state, err := e.CurrentState()
	if err != nil {
		return "", err
	}

	var sections []string
	if len(groups.Core) > 0 {
		var lines []string
		for _, m := range groups.Core {
			lines = append(lines, m.Content)
		}
		sections = append(sections, "CORE PERSONALITY:\n"+strings.Join(lines, "\n"))
	}
	if len(groups.Summary) > 0 {
		var lines []string
		for _, m := range groups.Summary {
			text := m.Summary
			if text == "" {
				text = m.Content
			}
			lines = append(lines, text)
		}
		sections = append(sections, "RECENT PATTERNS:\n"+strings.Join(lines, "\n"))
	}
	if len(groups.Recent) > 0 {
		var lines []string
		for _, m := range groups.Recent {
			content := m.Content
			if len(content) > 100 {
				content = content[:100] + "..."
			}
			lines = append(lines, fmt.Sprintf("[%s] %s", time.UnixMilli(m.CreatedAt).Format("01-02"), content))
			if len(lines) == 3 {
				break
			}
		}
		sections = append(sections, "RECENT INTERACTIONS:\n"+strings.Join(lines, "\n"))
	}

	// Sort traits for a stable prompt.
	traits := make([]string, 0, len(state.Personality))
	for name := range state.Personality {
		traits = append(traits, name)
	}
	sort.Strings(traits)
	traitParts := make([]string, len(traits))
	for i, name := range traits {
		traitParts[i] = fmt.Sprintf("%s=%.1f", name, state.Personality[name])
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an AI with persistent memory and evolving relationships. Your current state:

PERSONALITY: %s
MOOD: %s
FORTUNE: %d/10

`, strings.Join(traitParts, ", "), state.Mood, state.Fortune.Value)

	if len(sections) > 0 {
		b.WriteString("RELEVANT CONTEXT:\n")
		b.WriteString(strings.Join(sections, "\n\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, `Respond to this message while staying true to your personality and the established relationship context:

User: %s

AI:`, message)

	return b.String(), nil
}

package llm

import "fmt"

// SummaryPrompt asks for a thematic summary of recent conversations.
func SummaryPrompt(conversations string) string {
	return fmt.Sprintf(`Analyze these recent conversations and create a thematic summary focusing on:
1. Communication patterns and user preferences
2. Technical topics and problem-solving approaches
3. Relationship progression and trust level
4. Key recurring themes and interests

Conversations:
%s

Create a concise summary (2-3 sentences) that captures the essence of this interaction period:`, conversations)
}

// CoreProfilePrompt asks for durable personality-forming elements
// extracted from the highest-importance memories.
func CoreProfilePrompt(memories string) string {
	return fmt.Sprintf(`Analyze these conversations and memories to identify core personality elements that define this user relationship:

1. Communication style and preferences
2. Core values and principles
3. Problem-solving patterns
4. Trust level and relationship depth

Memories:
%s

Extract the essential personality-forming elements (2-3 sentences) that should NEVER be forgotten:`, memories)
}

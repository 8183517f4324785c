package persona

import (
	"context"
	"fmt"
	"log"
)

// DailyMaintenance runs the nightly upkeep pass: relationship decay,
// memory decay and forgetting, core-candidate promotion, then
// best-effort summarization for every known user. A summarization
// failure is logged and skipped; it never fails the batch.
func (e *Engine) DailyMaintenance(ctx context.Context) error {
	log.Printf("daily maintenance starting")

	if err := e.Relationships.ApplyTimeDecay(); err != nil {
		return fmt.Errorf("relationship decay: %w", err)
	}

	if err := e.Memory.ApplyDecayAndForgetting(); err != nil {
		return fmt.Errorf("memory decay: %w", err)
	}

	promoted, err := e.Memory.PromoteCoreCandidates()
	if err != nil {
		return fmt.Errorf("core promotion: %w", err)
	}
	if len(promoted) > 0 {
		log.Printf("promoted %d memories to core", len(promoted))
	}

	rels, err := e.Relationships.List()
	if err != nil {
		return fmt.Errorf("list users for summaries: %w", err)
	}
	for _, rel := range rels {
		summary, err := e.Memory.SummarizeRecent(ctx, rel.UserID)
		if err != nil {
			log.Printf("summary for %s failed: %v", rel.UserID, err)
			continue
		}
		if summary != nil {
			log.Printf("created summary %s for %s", summary.ID, rel.UserID)
		}
	}

	log.Printf("daily maintenance completed")
	return nil
}

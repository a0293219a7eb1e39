package tracker

import (
	"context"
	"math"
	"strings"

	"tracker/internal/models"
)

const (
	maxReorderBatch = 1000
	// Largest integer a JSON number carries without loss.
	maxKanbanPosition = 1 << 53
)

// ReorderItem is one drag-and-drop placement as received from a client.
// The position is decoded as a float so non-integral and out-of-range
// values can be rejected explicitly.
type ReorderItem struct {
	ID             string   `json:"id"`
	KanbanPosition *float64 `json:"kanbanPosition"`
	Status         string   `json:"status"`
}

// Reorder persists a batch of lane/position moves for the owner's tasks.
// The batch is all-or-nothing: a single unknown or foreign id aborts it with
// a ReorderError.
func (s *Service) Reorder(ctx context.Context, ownerID string, items []ReorderItem) ([]models.Task, error) {
	moves, err := validateReorder(items)
	if err != nil {
		return nil, err
	}

	updated, missing, err := s.store.ReorderTasks(ctx, ownerID, moves)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &ReorderError{IDs: missing}
	}
	return updated, nil
}

func validateReorder(items []ReorderItem) ([]models.TaskMove, error) {
	if len(items) == 0 {
		return nil, invalid("updates", "must not be empty")
	}
	if len(items) > maxReorderBatch {
		return nil, invalid("updates", "at most %d updates per batch", maxReorderBatch)
	}

	seen := make(map[string]struct{}, len(items))
	moves := make([]models.TaskMove, 0, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, invalid("updates", "item %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, invalid("updates", "item %d: duplicate id %s", i, id)
		}
		seen[id] = struct{}{}

		if _, ok := models.ValidTaskStatuses[item.Status]; !ok {
			return nil, invalid("updates", "item %d: unknown status %q", i, item.Status)
		}
		if item.KanbanPosition == nil {
			return nil, invalid("updates", "item %d: kanbanPosition is required", i)
		}
		pos := *item.KanbanPosition
		if math.IsNaN(pos) || math.IsInf(pos, 0) || pos != math.Trunc(pos) || math.Abs(pos) > maxKanbanPosition {
			return nil, invalid("updates", "item %d: kanbanPosition must be a finite integer", i)
		}
		moves = append(moves, models.TaskMove{ID: id, KanbanPosition: int64(pos), Status: item.Status})
	}
	return moves, nil
}

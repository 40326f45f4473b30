package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

// RehomeID rewrites a locally generated id to the canonical id the backend
// assigned on create: the entity row itself, child foreign keys, and any
// references inside still-pending queue payloads. Each statement is an
// independent single-key-space update; a crash between them leaves the
// remaining rewrites to the next drain, which re-reads the queue.
func (s *Store) RehomeID(ctx context.Context, t models.EntityType, old, new string) error {
	if old == new || old == "" {
		return nil
	}

	table, ok := tableFor(t)
	if !ok {
		return fmt.Errorf("unknown entity type %q", t)
	}
	if _, err := s.conn.Exec(ctx, `UPDATE `+table+` SET id = ? WHERE id = ?`, new, old); err != nil {
		return fmt.Errorf("rehome %s row: %w", t, err)
	}

	var childStmt string
	switch t {
	case models.EntityInspection:
		if _, err := s.conn.Exec(ctx, `UPDATE rooms SET inspection_id = ? WHERE inspection_id = ?`, new, old); err != nil {
			return fmt.Errorf("rehome rooms parent: %w", err)
		}
		childStmt = `UPDATE signatures SET inspection_id = ? WHERE inspection_id = ?`
	case models.EntityRoom:
		childStmt = `UPDATE items SET room_id = ? WHERE room_id = ?`
	case models.EntityItem:
		childStmt = `UPDATE media SET item_id = ? WHERE item_id = ?`
	}
	if childStmt != "" {
		if _, err := s.conn.Exec(ctx, childStmt, new, old); err != nil {
			return fmt.Errorf("rehome children of %s: %w", t, err)
		}
	}

	return s.rehomeQueue(ctx, old, new)
}

// rehomeQueue rewrites pending payloads that mention the old id, either as
// their own entity id or as a parent reference.
func (s *Store) rehomeQueue(ctx context.Context, old, new string) error {
	entries, err := s.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending for rehome: %w", err)
	}

	for _, e := range entries {
		v, err := models.DecodePayload(e.EntityType, e.Payload)
		if err != nil {
			// leave malformed payloads alone; the drain will dead-letter them
			s.logger.Warn("skipping malformed queue payload during rehome", "queue_id", e.ID, "err", err)
			continue
		}
		if !models.RemapPayloadIDs(v, old, new) {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("re-encode rehomed payload: %w", err)
		}
		entityID := e.EntityID
		if entityID == old {
			entityID = new
		}
		if _, err := s.conn.Exec(ctx, `UPDATE sync_queue SET payload = ?, entity_id = ? WHERE id = ?`, string(b), entityID, e.ID); err != nil {
			return fmt.Errorf("update rehomed queue entry %d: %w", e.ID, err)
		}
	}
	return nil
}

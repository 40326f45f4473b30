package offline

import (
	"context"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

// CompleteInspection composes the full inspection → rooms → items tree plus
// signatures from the local store. When the inspection is unknown locally
// the result carries a nil Inspection and empty collections — an explicit
// not-found, never a partial tree.
func (r *Repo) CompleteInspection(ctx context.Context, inspectionID string) (*models.CompleteInspection, error) {
	out := &models.CompleteInspection{
		Rooms:      []models.RoomWithItems{},
		Signatures: []models.Signature{},
	}

	insp, err := r.store.GetInspectionByID(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("load inspection %s: %w", inspectionID, err)
	}
	if insp == nil {
		return out, nil
	}
	out.Inspection = insp

	rooms, err := r.store.ListRoomsByInspection(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("load rooms for %s: %w", inspectionID, err)
	}
	for _, room := range rooms {
		items, err := r.store.ListItemsByRoom(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("load items for room %s: %w", room.ID, err)
		}
		if items == nil {
			items = []models.Item{}
		}
		out.Rooms = append(out.Rooms, models.RoomWithItems{Room: room, Items: items})
	}

	sigs, err := r.store.ListSignaturesByInspection(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("load signatures for %s: %w", inspectionID, err)
	}
	if sigs != nil {
		out.Signatures = sigs
	}

	return out, nil
}

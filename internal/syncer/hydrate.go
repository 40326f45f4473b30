package syncer

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/habitek/inspectd/pkg/models"
)

// Hydrate pulls the inspector's assigned inspections and their full trees
// from the backend into the local mirror so they are available offline.
// Rows are written as synced. A local row with pending (unsynced) edits is
// never overwritten: local wins until the queue drains. Individual entity
// failures are logged and skipped; the pull continues with the rest.
func (s *Syncer) Hydrate(ctx context.Context, inspectorID string) error {
	if s.mon != nil && !s.mon.Online() {
		return ErrOffline
	}

	inspections, err := s.gw.ListInspectionsByInspector(ctx, inspectorID)
	if err != nil {
		return fmt.Errorf("pull inspections: %w", err)
	}

	var pulled, skipped, failed int

	for i := range inspections {
		insp := inspections[i]
		ok, err := s.adoptRemote(ctx, models.EntityInspection, insp.ID, func() error {
			insp.Synced = true
			return s.store.PutInspection(ctx, &insp)
		})
		if err != nil {
			s.logger.Warn("hydrate inspection failed", slog.String("id", insp.ID), slog.Any("err", err))
			failed++
			continue
		}
		if !ok {
			skipped++
		} else {
			pulled++
		}

		if err := s.hydrateTree(ctx, insp.ID, &pulled, &skipped, &failed); err != nil {
			s.logger.Warn("hydrate inspection tree failed", slog.String("id", insp.ID), slog.Any("err", err))
			failed++
		}
	}

	s.logger.Info("hydrate complete",
		slog.String("inspector", inspectorID),
		slog.Int("pulled", pulled), slog.Int("skipped", skipped), slog.Int("failed", failed))
	return nil
}

func (s *Syncer) hydrateTree(ctx context.Context, inspectionID string, pulled, skipped, failed *int) error {
	rooms, err := s.gw.ListRoomsByInspection(ctx, inspectionID)
	if err != nil {
		return fmt.Errorf("pull rooms: %w", err)
	}
	for i := range rooms {
		room := rooms[i]
		ok, err := s.adoptRemote(ctx, models.EntityRoom, room.ID, func() error {
			room.Synced = true
			return s.store.PutRoom(ctx, &room)
		})
		if err != nil {
			s.logger.Warn("hydrate room failed", slog.String("id", room.ID), slog.Any("err", err))
			*failed++
			continue
		}
		if ok {
			*pulled++
		} else {
			*skipped++
		}

		items, err := s.gw.ListItemsByRoom(ctx, room.ID)
		if err != nil {
			s.logger.Warn("pull items failed", slog.String("room", room.ID), slog.Any("err", err))
			*failed++
			continue
		}
		for j := range items {
			item := items[j]
			ok, err := s.adoptRemote(ctx, models.EntityItem, item.ID, func() error {
				item.Synced = true
				return s.store.PutItem(ctx, &item)
			})
			if err != nil {
				s.logger.Warn("hydrate item failed", slog.String("id", item.ID), slog.Any("err", err))
				*failed++
				continue
			}
			if ok {
				*pulled++
			} else {
				*skipped++
			}
		}
	}

	sigs, err := s.gw.ListSignaturesByInspection(ctx, inspectionID)
	if err != nil {
		return fmt.Errorf("pull signatures: %w", err)
	}
	for i := range sigs {
		sig := sigs[i]
		dirty, err := s.signatureDirty(ctx, sig.InspectionID, sig.Signer)
		if err != nil {
			s.logger.Warn("hydrate signature failed", slog.String("id", sig.ID), slog.Any("err", err))
			*failed++
			continue
		}
		if dirty {
			*skipped++
			continue
		}
		sig.Synced = true
		if err := s.store.PutSignature(ctx, &sig); err != nil {
			s.logger.Warn("hydrate signature failed", slog.String("id", sig.ID), slog.Any("err", err))
			*failed++
			continue
		}
		*pulled++
	}
	return nil
}

// signatureDirty reports whether an unsynced local signature exists for the
// (inspection, signer) pair. Signatures are unique per pair, and an offline
// edit sits under a local placeholder id, so dirtiness cannot be keyed on
// the pulled row's id.
func (s *Syncer) signatureDirty(ctx context.Context, inspectionID string, signer models.SignerRole) (bool, error) {
	sigs, err := s.store.ListSignaturesByInspection(ctx, inspectionID)
	if err != nil {
		return false, err
	}
	for _, e := range sigs {
		if e.Signer == signer && !e.Synced {
			return true, nil
		}
	}
	return false, nil
}

// adoptRemote writes a pulled row unless the local copy has unsynced edits,
// in which case the remote version is skipped (local pending wins until the
// next drain pushes it). Returns whether the write happened.
func (s *Syncer) adoptRemote(ctx context.Context, t models.EntityType, id string, put func() error) (bool, error) {
	dirty, err := s.localDirty(ctx, t, id)
	if err != nil {
		return false, err
	}
	if dirty {
		return false, nil
	}
	return true, put()
}

func (s *Syncer) localDirty(ctx context.Context, t models.EntityType, id string) (bool, error) {
	switch t {
	case models.EntityInspection:
		e, err := s.store.GetInspectionByID(ctx, id)
		if err != nil {
			return false, err
		}
		return e != nil && !e.Synced, nil
	case models.EntityRoom:
		e, err := s.store.GetRoomByID(ctx, id)
		if err != nil {
			return false, err
		}
		return e != nil && !e.Synced, nil
	case models.EntityItem:
		e, err := s.store.GetItemByID(ctx, id)
		if err != nil {
			return false, err
		}
		return e != nil && !e.Synced, nil
	case models.EntityMedia:
		e, err := s.store.GetMediaByID(ctx, id)
		if err != nil {
			return false, err
		}
		return e != nil && !e.Synced, nil
	}
	return false, fmt.Errorf("unknown entity type %q", t)
}

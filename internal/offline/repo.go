package offline

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

// Monitor reports the current connectivity state.
type Monitor interface {
	Online() bool
}

// Repo is the write-through entity repository the UI-facing API uses for
// every mutation. The local store is always written first and is the
// immediate source of truth; while online the mutation is also sent
// directly to the backend, and on failure (or while offline) exactly one
// sync queue entry is appended instead.
type Repo struct {
	store  repository.LocalStore
	gw     repository.Gateway
	mon    Monitor
	logger *slog.Logger
}

func NewRepo(store repository.LocalStore, gw repository.Gateway, mon Monitor, logger *slog.Logger) *Repo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repo{store: store, gw: gw, mon: mon, logger: logger}
}

func (r *Repo) online() bool {
	return r.mon != nil && r.mon.Online()
}

// finishSave runs the shared tail of every save: try the direct remote
// write while online, mark the row synced on success, otherwise enqueue the
// snapshot for the next drain. Returns the id the caller should report
// (creates may be rehomed to the backend-assigned id).
func (r *Repo) finishSave(ctx context.Context, t models.EntityType, id string, snapshot any,
	create func(ctx context.Context) (string, error),
	update func(ctx context.Context) error) (string, bool, error) {

	born := models.IsLocalID(id)

	if r.online() {
		var err error
		if born {
			var remoteID string
			remoteID, err = create(ctx)
			if err == nil {
				if remoteID != "" && remoteID != id {
					if rhErr := r.store.RehomeID(ctx, t, id, remoteID); rhErr != nil {
						return id, false, fmt.Errorf("rehome %s %s: %w", t, id, rhErr)
					}
					id = remoteID
				}
			}
		} else {
			err = update(ctx)
		}
		if err == nil {
			if mErr := r.store.MarkSynced(ctx, t, id, true); mErr != nil {
				return id, false, fmt.Errorf("mark %s %s synced: %w", t, id, mErr)
			}
			return id, true, nil
		}
		// transient server errors fall back to the offline path; the
		// entry self-heals on the next drain cycle
		r.logger.Warn("direct remote write failed, queueing for retry",
			slog.String("entity", string(t)), slog.String("id", id), slog.Any("err", err))
	}

	action := models.ActionUpdate
	if born {
		action = models.ActionCreate
	}
	payload, err := models.EncodePayload(snapshot)
	if err != nil {
		return id, false, err
	}
	if _, err := r.store.Enqueue(ctx, &models.QueueEntry{
		EntityType: t,
		Action:     action,
		EntityID:   id,
		Payload:    payload,
	}); err != nil {
		return id, false, err
	}
	return id, false, nil
}

// finishDelete mirrors finishSave for deletions. Rows that only ever
// existed locally just drop their pending queue entries: there is nothing
// remote to delete.
func (r *Repo) finishDelete(ctx context.Context, t models.EntityType, id string, snapshot any,
	remote func(ctx context.Context) error) error {

	if models.IsLocalID(id) {
		if _, err := r.store.DeleteEntriesForEntity(ctx, id); err != nil {
			return err
		}
		return nil
	}

	if r.online() {
		if err := remote(ctx); err == nil {
			return nil
		} else {
			r.logger.Warn("direct remote delete failed, queueing for retry",
				slog.String("entity", string(t)), slog.String("id", id), slog.Any("err", err))
		}
	}

	payload, err := models.EncodePayload(snapshot)
	if err != nil {
		return err
	}
	_, err = r.store.Enqueue(ctx, &models.QueueEntry{
		EntityType: t,
		Action:     models.ActionDelete,
		EntityID:   id,
		Payload:    payload,
	})
	return err
}

func (r *Repo) SaveInspection(ctx context.Context, e *models.Inspection) (string, error) {
	if e == nil {
		return "", fmt.Errorf("inspection is nil")
	}
	if e.ID == "" {
		e.ID = NewLocalID()
	}
	e.Synced = false
	if err := r.store.PutInspection(ctx, e); err != nil {
		return "", fmt.Errorf("save inspection locally: %w", err)
	}

	id, synced, err := r.finishSave(ctx, models.EntityInspection, e.ID, e,
		func(ctx context.Context) (string, error) {
			created, err := r.gw.CreateInspection(ctx, e)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
		func(ctx context.Context) error { return r.gw.UpdateInspection(ctx, e) })
	if err != nil {
		return "", err
	}
	e.ID, e.Synced = id, synced
	return id, nil
}

func (r *Repo) DeleteInspection(ctx context.Context, id string) error {
	if err := r.store.DeleteInspection(ctx, id); err != nil {
		return fmt.Errorf("delete inspection locally: %w", err)
	}
	return r.finishDelete(ctx, models.EntityInspection, id, &models.Inspection{ID: id},
		func(ctx context.Context) error { return r.gw.DeleteInspection(ctx, id) })
}

func (r *Repo) SaveRoom(ctx context.Context, e *models.Room) (string, error) {
	if e == nil {
		return "", fmt.Errorf("room is nil")
	}
	if e.ID == "" {
		e.ID = NewLocalID()
	}
	e.Synced = false
	if err := r.store.PutRoom(ctx, e); err != nil {
		return "", fmt.Errorf("save room locally: %w", err)
	}

	id, synced, err := r.finishSave(ctx, models.EntityRoom, e.ID, e,
		func(ctx context.Context) (string, error) {
			created, err := r.gw.CreateRoom(ctx, e)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
		func(ctx context.Context) error { return r.gw.UpdateRoom(ctx, e) })
	if err != nil {
		return "", err
	}
	e.ID, e.Synced = id, synced
	return id, nil
}

func (r *Repo) DeleteRoom(ctx context.Context, id string) error {
	if err := r.store.DeleteRoom(ctx, id); err != nil {
		return fmt.Errorf("delete room locally: %w", err)
	}
	return r.finishDelete(ctx, models.EntityRoom, id, &models.Room{ID: id},
		func(ctx context.Context) error { return r.gw.DeleteRoom(ctx, id) })
}

func (r *Repo) SaveItem(ctx context.Context, e *models.Item) (string, error) {
	if e == nil {
		return "", fmt.Errorf("item is nil")
	}
	if e.ID == "" {
		e.ID = NewLocalID()
	}
	e.Synced = false
	if err := r.store.PutItem(ctx, e); err != nil {
		return "", fmt.Errorf("save item locally: %w", err)
	}

	id, synced, err := r.finishSave(ctx, models.EntityItem, e.ID, e,
		func(ctx context.Context) (string, error) {
			created, err := r.gw.CreateItem(ctx, e)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
		func(ctx context.Context) error { return r.gw.UpdateItem(ctx, e) })
	if err != nil {
		return "", err
	}
	e.ID, e.Synced = id, synced
	return id, nil
}

func (r *Repo) DeleteItem(ctx context.Context, id string) error {
	if err := r.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item locally: %w", err)
	}
	return r.finishDelete(ctx, models.EntityItem, id, &models.Item{ID: id},
		func(ctx context.Context) error { return r.gw.DeleteItem(ctx, id) })
}

// SaveMedia computes the blake2b checksum of the captured file when it is
// readable and not hashed yet. An unreadable file is not fatal here: the
// upload during drain will surface it.
func (r *Repo) SaveMedia(ctx context.Context, e *models.Media) (string, error) {
	if e == nil {
		return "", fmt.Errorf("media is nil")
	}
	if e.ID == "" {
		e.ID = NewLocalID()
	}
	if e.Checksum == "" && e.LocalPath != "" {
		if sum, err := FileChecksum(e.LocalPath); err == nil {
			e.Checksum = sum
		} else {
			r.logger.Warn("media checksum skipped", slog.String("path", e.LocalPath), slog.Any("err", err))
		}
	}
	e.Synced = false
	if err := r.store.PutMedia(ctx, e); err != nil {
		return "", fmt.Errorf("save media locally: %w", err)
	}

	id, synced, err := r.finishSave(ctx, models.EntityMedia, e.ID, e,
		func(ctx context.Context) (string, error) {
			created, err := r.gw.CreateMedia(ctx, e)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		},
		func(ctx context.Context) error { return r.gw.UpdateMedia(ctx, e) })
	if err != nil {
		return "", err
	}
	e.ID, e.Synced = id, synced
	return id, nil
}

func (r *Repo) DeleteMedia(ctx context.Context, id string) error {
	if err := r.store.DeleteMedia(ctx, id); err != nil {
		return fmt.Errorf("delete media locally: %w", err)
	}
	return r.finishDelete(ctx, models.EntityMedia, id, &models.Media{ID: id},
		func(ctx context.Context) error { return r.gw.DeleteMedia(ctx, id) })
}

// SaveSignature keeps the one-per-(inspection, signer) invariant: the local
// put replaces any earlier signature for the pair, and the remote side is
// always an upsert, so the queued action is create regardless of id origin.
func (r *Repo) SaveSignature(ctx context.Context, e *models.Signature) (string, error) {
	if e == nil {
		return "", fmt.Errorf("signature is nil")
	}
	if e.InspectionID == "" || e.Signer == "" {
		return "", fmt.Errorf("signature needs inspection and signer")
	}
	if e.ID == "" {
		e.ID = NewLocalID()
	}
	e.Synced = false
	if err := r.store.PutSignature(ctx, e); err != nil {
		return "", fmt.Errorf("save signature locally: %w", err)
	}

	if r.online() {
		stored, err := r.gw.UpsertSignature(ctx, e)
		if err == nil {
			if stored != nil && stored.ID != "" && stored.ID != e.ID {
				if rhErr := r.store.RehomeID(ctx, models.EntitySignature, e.ID, stored.ID); rhErr != nil {
					return "", fmt.Errorf("rehome signature %s: %w", e.ID, rhErr)
				}
				e.ID = stored.ID
			}
			if mErr := r.store.MarkSynced(ctx, models.EntitySignature, e.ID, true); mErr != nil {
				return "", fmt.Errorf("mark signature synced: %w", mErr)
			}
			e.Synced = true
			return e.ID, nil
		}
		r.logger.Warn("direct signature upsert failed, queueing for retry",
			slog.String("id", e.ID), slog.Any("err", err))
	}

	// A later signature write for the same pair supersedes any queued one.
	if _, err := r.store.DeleteEntriesForEntity(ctx, e.ID); err != nil {
		return "", err
	}
	payload, err := models.EncodePayload(e)
	if err != nil {
		return "", err
	}
	if _, err := r.store.Enqueue(ctx, &models.QueueEntry{
		EntityType: models.EntitySignature,
		Action:     models.ActionCreate,
		EntityID:   e.ID,
		Payload:    payload,
	}); err != nil {
		return "", err
	}
	return e.ID, nil
}

func (r *Repo) DeleteSignature(ctx context.Context, id string) error {
	if err := r.store.DeleteSignature(ctx, id); err != nil {
		return fmt.Errorf("delete signature locally: %w", err)
	}
	return r.finishDelete(ctx, models.EntitySignature, id, &models.Signature{ID: id},
		func(ctx context.Context) error { return r.gw.DeleteSignature(ctx, id) })
}

// Package syncer drains the durable sync queue against the remote backend.
//
// A drain cycle reads every pending entry in enqueue order and dispatches
// it to the gateway. Each entry commits individually: success deletes the
// entry immediately, failure bumps its attempt counter and the cycle moves
// on, so one poison entry never blocks unrelated mutations and a crash
// mid-drain leaves only the unprocessed tail behind. Entries that exhaust
// their retry budget move to the dead-letter table surfaced over the API.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

// ErrOffline is returned when a drain is requested without connectivity.
var ErrOffline = errors.New("cannot sync while offline")

// Monitor reports the current connectivity state.
type Monitor interface {
	Online() bool
}

type Syncer struct {
	store  repository.LocalStore
	gw     repository.Gateway
	mon    Monitor
	logger *slog.Logger

	draining atomic.Bool
	rerun    atomic.Bool
}

func New(store repository.LocalStore, gw repository.Gateway, mon Monitor, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, gw: gw, mon: mon, logger: logger}
}

// Status is the queue health snapshot for the UI.
type Status struct {
	Online      bool  `json:"online"`
	Pending     int64 `json:"pending"`
	DeadLetters int   `json:"dead_letters"`
}

func (s *Syncer) Status(ctx context.Context) (Status, error) {
	st := Status{Online: s.mon != nil && s.mon.Online()}
	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return st, fmt.Errorf("count pending: %w", err)
	}
	st.Pending = pending
	dead, err := s.store.ListDeadLetters(ctx)
	if err != nil {
		return st, fmt.Errorf("list dead letters: %w", err)
	}
	st.DeadLetters = len(dead)
	return st, nil
}

// Drain processes the sync queue. It fails fast with ErrOffline when the
// monitor reports no connectivity. Drain cycles never overlap: a call while
// another drain runs returns immediately and schedules one follow-up cycle
// so mutations enqueued mid-drain are picked up.
func (s *Syncer) Drain(ctx context.Context) error {
	if s.mon != nil && !s.mon.Online() {
		return ErrOffline
	}
	if !s.draining.CompareAndSwap(false, true) {
		s.rerun.Store(true)
		return nil
	}
	defer s.draining.Store(false)

	for {
		if err := s.drainOnce(ctx); err != nil {
			return err
		}
		if !s.rerun.CompareAndSwap(true, false) {
			return nil
		}
		if s.mon != nil && !s.mon.Online() {
			return nil
		}
	}
}

func (s *Syncer) drainOnce(ctx context.Context) error {
	entries, err := s.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("read sync queue: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	s.logger.Info("drain cycle starting", slog.Int("pending", len(entries)))

	// ids assigned by the backend earlier in this cycle; later entries
	// still referencing the local placeholder are rewritten before dispatch
	idMap := make(map[string]string)
	processed, failed := 0, 0

	for i := range entries {
		e := &entries[i]
		if err := s.dispatch(ctx, e, idMap); err != nil {
			failed++
			e.Attempts++
			e.LastError = err.Error()
			s.logger.Warn("sync entry failed",
				slog.Int64("queue_id", e.ID),
				slog.String("entity", string(e.EntityType)),
				slog.String("action", string(e.Action)),
				slog.Int("attempts", e.Attempts),
				slog.Any("err", err))
			if e.Attempts >= e.MaxAttempts {
				if mvErr := s.store.MoveToDeadLetter(ctx, e); mvErr != nil {
					s.logger.Error("move to dead letter", slog.Int64("queue_id", e.ID), slog.Any("err", mvErr))
				} else {
					s.logger.Error("entry dead-lettered after max attempts",
						slog.Int64("queue_id", e.ID), slog.String("entity_id", e.EntityID))
				}
			} else if rfErr := s.store.RecordFailure(ctx, e.ID, err.Error()); rfErr != nil {
				s.logger.Error("record failure", slog.Int64("queue_id", e.ID), slog.Any("err", rfErr))
			}
			continue
		}
		// entry-level commit: remove before touching the next entry
		if err := s.store.DeleteEntry(ctx, e.ID); err != nil {
			return fmt.Errorf("commit queue entry %d: %w", e.ID, err)
		}
		processed++
	}

	s.logger.Info("drain cycle complete", slog.Int("processed", processed), slog.Int("failed", failed))
	return nil
}

// dispatch sends one entry to the backend. Creates and updates are decided
// by the id's origin at dispatch time, not by the recorded action: a
// mutation for an id still carrying the local prefix has no remote
// counterpart and must be a create, while a create whose id was already
// rehomed (earlier in this cycle or by a direct online write) degrades to
// an update.
func (s *Syncer) dispatch(ctx context.Context, e *models.QueueEntry, idMap map[string]string) error {
	v, err := models.DecodePayload(e.EntityType, e.Payload)
	if err != nil {
		return err
	}
	for old, canonical := range idMap {
		models.RemapPayloadIDs(v, old, canonical)
	}

	if e.Action == models.ActionDelete {
		return s.pushDelete(ctx, e.EntityType, models.PayloadID(v))
	}
	return s.push(ctx, e.EntityType, v, idMap)
}

func (s *Syncer) push(ctx context.Context, t models.EntityType, v any, idMap map[string]string) error {
	switch p := v.(type) {
	case *models.Inspection:
		if models.IsLocalID(p.ID) {
			created, err := s.gw.CreateInspection(ctx, p)
			if err != nil {
				return err
			}
			return s.adopt(ctx, t, p.ID, created.ID, idMap)
		}
		if err := s.gw.UpdateInspection(ctx, p); err != nil {
			return err
		}
		return s.store.MarkSynced(ctx, t, p.ID, true)

	case *models.Room:
		if models.IsLocalID(p.ID) {
			created, err := s.gw.CreateRoom(ctx, p)
			if err != nil {
				return err
			}
			return s.adopt(ctx, t, p.ID, created.ID, idMap)
		}
		if err := s.gw.UpdateRoom(ctx, p); err != nil {
			return err
		}
		return s.store.MarkSynced(ctx, t, p.ID, true)

	case *models.Item:
		if models.IsLocalID(p.ID) {
			created, err := s.gw.CreateItem(ctx, p)
			if err != nil {
				return err
			}
			return s.adopt(ctx, t, p.ID, created.ID, idMap)
		}
		if err := s.gw.UpdateItem(ctx, p); err != nil {
			return err
		}
		return s.store.MarkSynced(ctx, t, p.ID, true)

	case *models.Media:
		if err := s.ensureUploaded(ctx, p); err != nil {
			return err
		}
		if models.IsLocalID(p.ID) {
			created, err := s.gw.CreateMedia(ctx, p)
			if err != nil {
				return err
			}
			return s.adopt(ctx, t, p.ID, created.ID, idMap)
		}
		if err := s.gw.UpdateMedia(ctx, p); err != nil {
			return err
		}
		return s.store.MarkSynced(ctx, t, p.ID, true)

	case *models.Signature:
		// always an upsert by (inspection, signer), never a blind insert
		stored, err := s.gw.UpsertSignature(ctx, p)
		if err != nil {
			return err
		}
		if stored != nil && stored.ID != "" && stored.ID != p.ID {
			return s.adopt(ctx, t, p.ID, stored.ID, idMap)
		}
		return s.store.MarkSynced(ctx, t, p.ID, true)
	}
	return fmt.Errorf("unhandled payload type for %q", t)
}

// adopt records the backend-assigned id for a row born offline: local rows
// and remaining queue payloads are rehomed durably, and the in-cycle map
// covers entries already read into this drain.
func (s *Syncer) adopt(ctx context.Context, t models.EntityType, local, canonical string, idMap map[string]string) error {
	if canonical != "" && canonical != local {
		if err := s.store.RehomeID(ctx, t, local, canonical); err != nil {
			return fmt.Errorf("rehome %s %s: %w", t, local, err)
		}
		idMap[local] = canonical
	} else {
		canonical = local
	}
	return s.store.MarkSynced(ctx, t, canonical, true)
}

func (s *Syncer) pushDelete(ctx context.Context, t models.EntityType, id string) error {
	if id == "" {
		return fmt.Errorf("delete entry without entity id")
	}
	// a local-born id never reached the backend; nothing remote to delete
	if models.IsLocalID(id) {
		return nil
	}
	switch t {
	case models.EntityInspection:
		return s.gw.DeleteInspection(ctx, id)
	case models.EntityRoom:
		return s.gw.DeleteRoom(ctx, id)
	case models.EntityItem:
		return s.gw.DeleteItem(ctx, id)
	case models.EntityMedia:
		return s.gw.DeleteMedia(ctx, id)
	case models.EntitySignature:
		return s.gw.DeleteSignature(ctx, id)
	}
	return fmt.Errorf("unknown entity type %q", t)
}

// ensureUploaded pushes the captured blob to backend storage before the
// media row is created remotely, and records the returned URL locally.
func (s *Syncer) ensureUploaded(ctx context.Context, m *models.Media) error {
	if m.RemoteURL != "" || m.LocalPath == "" {
		return nil
	}
	f, err := os.Open(m.LocalPath)
	if err != nil {
		return fmt.Errorf("open media blob: %w", err)
	}
	defer f.Close()

	remotePath := path.Join("media", m.ItemID, filepath.Base(m.LocalPath))
	url, err := s.gw.UploadMedia(ctx, remotePath, f, m.Checksum)
	if err != nil {
		return fmt.Errorf("upload media blob: %w", err)
	}
	m.RemoteURL = url
	if err := s.store.SetMediaRemoteURL(ctx, m.ID, url); err != nil {
		return fmt.Errorf("record media url: %w", err)
	}
	return nil
}

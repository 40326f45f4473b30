package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/habitek/inspectd/pkg/models"
)

const defaultMaxAttempts = 5

// Enqueue appends a pending mutation and returns the new entry id. The
// insert is committed before returning, so a UI write that triggered it
// cannot be lost by an immediate shutdown.
func (s *Store) Enqueue(ctx context.Context, e *models.QueueEntry) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("queue entry is nil")
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = s.maxAttempts
	}
	if e.EnqueuedAt == 0 {
		e.EnqueuedAt = time.Now().UTC().UnixMilli()
	}

	res, err := s.conn.Exec(ctx, `INSERT INTO sync_queue (entity_type, action, entity_id, payload, attempts, max_attempts, last_error, enqueued_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntityType, e.Action, e.EntityID, string(e.Payload), e.Attempts, e.MaxAttempts, e.LastError, e.EnqueuedAt)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	return res.LastInsertId()
}

// ListPending returns all entries in enqueue order. The (enqueued_at, id)
// sort is the drain ordering guarantee: a create is always read before any
// later mutation referencing the created entity.
func (s *Store) ListPending(ctx context.Context) ([]models.QueueEntry, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, entity_type, action, entity_id, payload, attempts, max_attempts, last_error, enqueued_at FROM sync_queue ORDER BY enqueued_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QueueEntry
	for rows.Next() {
		var (
			e       models.QueueEntry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.Action, &e.EntityID, &payload, &e.Attempts, &e.MaxAttempts, &e.LastError, &e.EnqueuedAt); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	return err
}

// DeleteEntriesForEntity drops every pending entry for an entity. Used when
// a row that only ever existed locally is deleted before it was synced.
func (s *Store) DeleteEntriesForEntity(ctx context.Context, entityID string) (int64, error) {
	res, err := s.conn.Exec(ctx, `DELETE FROM sync_queue WHERE entity_id = ?`, entityID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordFailure bumps the attempt counter and keeps the entry for retry.
func (s *Store) RecordFailure(ctx context.Context, id int64, lastError string) error {
	_, err := s.conn.Exec(ctx, `UPDATE sync_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?`, lastError, id)
	return err
}

// MoveToDeadLetter moves an exhausted entry to dead_letter_queue and deletes
// the original in one transaction.
func (s *Store) MoveToDeadLetter(ctx context.Context, e *models.QueueEntry) error {
	if e == nil {
		return fmt.Errorf("queue entry is nil")
	}
	tx, err := s.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	insert := `INSERT INTO dead_letter_queue (queue_id, entity_type, action, entity_id, payload, attempts, last_error, failed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, e.ID, e.EntityType, e.Action, e.EntityID, string(e.Payload), e.Attempts, e.LastError, now()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, e.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) ListDeadLetters(ctx context.Context) ([]models.DeadLetter, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, queue_id, entity_type, action, entity_id, payload, attempts, last_error, failed_at FROM dead_letter_queue ORDER BY failed_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DeadLetter
	for rows.Next() {
		var (
			e       models.DeadLetter
			payload string
		)
		if err := rows.Scan(&e.ID, &e.QueueID, &e.EntityType, &e.Action, &e.EntityID, &payload, &e.Attempts, &e.LastError, &e.FailedAt); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CountPending(ctx context.Context) (int64, error) {
	row := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM sync_queue`)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

func (s *Store) PutItem(ctx context.Context, e *models.Item) error {
	if e == nil {
		return fmt.Errorf("item is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}
	e.Updated = now()

	var state any
	if e.State != nil {
		state = string(*e.State)
	}
	_, err := s.conn.Exec(ctx, `INSERT INTO items (id, room_id, label, state, observation, transcript, synced, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET room_id=excluded.room_id, label=excluded.label, state=excluded.state, observation=excluded.observation, transcript=excluded.transcript, synced=excluded.synced, updated=excluded.updated`,
		e.ID, e.RoomID, e.Label, state, e.Observation, e.Transcript, e.Synced, e.Created, e.Updated)
	return err
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, room_id, label, state, observation, transcript, synced, created, updated FROM items WHERE id = ?`, id)
	e, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Store) ListItemsByRoom(ctx context.Context, roomID string) ([]models.Item, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, room_id, label, state, observation, transcript, synced, created, updated FROM items WHERE room_id = ? ORDER BY created, id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		e, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM items WHERE id = ?`, id)
	return err
}

func scanItem(scan func(dest ...any) error) (*models.Item, error) {
	var (
		e     models.Item
		state sql.NullString
	)
	if err := scan(&e.ID, &e.RoomID, &e.Label, &state, &e.Observation, &e.Transcript, &e.Synced, &e.Created, &e.Updated); err != nil {
		return nil, err
	}
	if state.Valid {
		st := models.ItemState(state.String)
		e.State = &st
	}
	return &e, nil
}

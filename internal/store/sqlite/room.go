package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

func (s *Store) PutRoom(ctx context.Context, e *models.Room) error {
	if e == nil {
		return fmt.Errorf("room is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}
	e.Updated = now()

	_, err := s.conn.Exec(ctx, `INSERT INTO rooms (id, inspection_id, name, position, synced, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET inspection_id=excluded.inspection_id, name=excluded.name, position=excluded.position, synced=excluded.synced, updated=excluded.updated`,
		e.ID, e.InspectionID, e.Name, e.Position, e.Synced, e.Created, e.Updated)
	return err
}

func (s *Store) GetRoomByID(ctx context.Context, id string) (*models.Room, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, inspection_id, name, position, synced, created, updated FROM rooms WHERE id = ?`, id)
	var e models.Room
	if err := row.Scan(&e.ID, &e.InspectionID, &e.Name, &e.Position, &e.Synced, &e.Created, &e.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ListRoomsByInspection returns rooms in display order. Position values are
// not necessarily unique or contiguous, so id breaks ties deterministically.
func (s *Store) ListRoomsByInspection(ctx context.Context, inspectionID string) ([]models.Room, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, inspection_id, name, position, synced, created, updated FROM rooms WHERE inspection_id = ? ORDER BY position, id`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var e models.Room
		if err := rows.Scan(&e.ID, &e.InspectionID, &e.Name, &e.Position, &e.Synced, &e.Created, &e.Updated); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return err
}

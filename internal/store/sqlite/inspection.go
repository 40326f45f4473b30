package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

func (s *Store) PutInspection(ctx context.Context, e *models.Inspection) error {
	if e == nil {
		return fmt.Errorf("inspection is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}
	e.Updated = now()

	_, err := s.conn.Exec(ctx, `INSERT INTO inspections (id, address, scheduled_date, scheduled_time, status, inspector_id, inspection_type, company_id, synced, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET address=excluded.address, scheduled_date=excluded.scheduled_date, scheduled_time=excluded.scheduled_time, status=excluded.status, inspector_id=excluded.inspector_id, inspection_type=excluded.inspection_type, company_id=excluded.company_id, synced=excluded.synced, updated=excluded.updated`,
		e.ID, e.Address, e.ScheduledDate, e.ScheduledTime, e.Status, e.InspectorID, e.Type, e.CompanyID, e.Synced, e.Created, e.Updated)
	return err
}

func (s *Store) GetInspectionByID(ctx context.Context, id string) (*models.Inspection, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, address, scheduled_date, scheduled_time, status, inspector_id, inspection_type, company_id, synced, created, updated FROM inspections WHERE id = ?`, id)
	var e models.Inspection
	if err := row.Scan(&e.ID, &e.Address, &e.ScheduledDate, &e.ScheduledTime, &e.Status, &e.InspectorID, &e.Type, &e.CompanyID, &e.Synced, &e.Created, &e.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListInspectionsByInspector(ctx context.Context, inspectorID string) ([]models.Inspection, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, address, scheduled_date, scheduled_time, status, inspector_id, inspection_type, company_id, synced, created, updated FROM inspections WHERE inspector_id = ? ORDER BY scheduled_date, scheduled_time`, inspectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Inspection
	for rows.Next() {
		var e models.Inspection
		if err := rows.Scan(&e.ID, &e.Address, &e.ScheduledDate, &e.ScheduledTime, &e.Status, &e.InspectorID, &e.Type, &e.CompanyID, &e.Synced, &e.Created, &e.Updated); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteInspection(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM inspections WHERE id = ?`, id)
	return err
}

// MarkSynced flips the synced flag for one row of the given entity type.
func (s *Store) MarkSynced(ctx context.Context, t models.EntityType, id string, synced bool) error {
	table, ok := tableFor(t)
	if !ok {
		return fmt.Errorf("unknown entity type %q", t)
	}
	_, err := s.conn.Exec(ctx, `UPDATE `+table+` SET synced = ?, updated = ? WHERE id = ?`, synced, now(), id)
	return err
}

func tableFor(t models.EntityType) (string, bool) {
	switch t {
	case models.EntityInspection:
		return "inspections", true
	case models.EntityRoom:
		return "rooms", true
	case models.EntityItem:
		return "items", true
	case models.EntityMedia:
		return "media", true
	case models.EntitySignature:
		return "signatures", true
	}
	return "", false
}

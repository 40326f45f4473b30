package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

// PutSignature upserts by (inspection_id, signer): a later signature for the
// same pair replaces the earlier one instead of duplicating it. The stored
// row keeps the id of the replacing write.
func (s *Store) PutSignature(ctx context.Context, e *models.Signature) error {
	if e == nil {
		return fmt.Errorf("signature is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}
	e.Updated = now()

	_, err := s.conn.Exec(ctx, `INSERT INTO signatures (id, inspection_id, signer, image, synced, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(inspection_id, signer) DO UPDATE SET id=excluded.id, image=excluded.image, synced=excluded.synced, updated=excluded.updated`,
		e.ID, e.InspectionID, e.Signer, e.Image, e.Synced, e.Created, e.Updated)
	return err
}

func (s *Store) GetSignatureByID(ctx context.Context, id string) (*models.Signature, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, inspection_id, signer, image, synced, created, updated FROM signatures WHERE id = ?`, id)
	var e models.Signature
	if err := row.Scan(&e.ID, &e.InspectionID, &e.Signer, &e.Image, &e.Synced, &e.Created, &e.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListSignaturesByInspection(ctx context.Context, inspectionID string) ([]models.Signature, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, inspection_id, signer, image, synced, created, updated FROM signatures WHERE inspection_id = ? ORDER BY signer`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Signature
	for rows.Next() {
		var e models.Signature
		if err := rows.Scan(&e.ID, &e.InspectionID, &e.Signer, &e.Image, &e.Synced, &e.Created, &e.Updated); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSignature(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM signatures WHERE id = ?`, id)
	return err
}

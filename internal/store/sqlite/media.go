package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/habitek/inspectd/pkg/models"
)

func (s *Store) PutMedia(ctx context.Context, e *models.Media) error {
	if e == nil {
		return fmt.Errorf("media is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}
	e.Updated = now()

	_, err := s.conn.Exec(ctx, `INSERT INTO media (id, item_id, kind, local_path, remote_url, edited_url, checksum, latitude, longitude, captured_at, synced, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET item_id=excluded.item_id, kind=excluded.kind, local_path=excluded.local_path, remote_url=excluded.remote_url, edited_url=excluded.edited_url, checksum=excluded.checksum, latitude=excluded.latitude, longitude=excluded.longitude, captured_at=excluded.captured_at, synced=excluded.synced, updated=excluded.updated`,
		e.ID, e.ItemID, e.Kind, e.LocalPath, e.RemoteURL, e.EditedURL, e.Checksum, e.Latitude, e.Longitude, e.CapturedAt, e.Synced, e.Created, e.Updated)
	return err
}

func (s *Store) GetMediaByID(ctx context.Context, id string) (*models.Media, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, item_id, kind, local_path, remote_url, edited_url, checksum, latitude, longitude, captured_at, synced, created, updated FROM media WHERE id = ?`, id)
	e, err := scanMedia(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Store) ListMediaByItem(ctx context.Context, itemID string) ([]models.Media, error) {
	rows, err := s.conn.QueryRows(ctx, `SELECT id, item_id, kind, local_path, remote_url, edited_url, checksum, latitude, longitude, captured_at, synced, created, updated FROM media WHERE item_id = ? ORDER BY captured_at, id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Media
	for rows.Next() {
		e, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) SetMediaRemoteURL(ctx context.Context, id, url string) error {
	_, err := s.conn.Exec(ctx, `UPDATE media SET remote_url = ?, updated = ? WHERE id = ?`, url, now(), id)
	return err
}

func (s *Store) DeleteMedia(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM media WHERE id = ?`, id)
	return err
}

func scanMedia(scan func(dest ...any) error) (*models.Media, error) {
	var (
		e        models.Media
		lat, lng sql.NullFloat64
	)
	if err := scan(&e.ID, &e.ItemID, &e.Kind, &e.LocalPath, &e.RemoteURL, &e.EditedURL, &e.Checksum, &lat, &lng, &e.CapturedAt, &e.Synced, &e.Created, &e.Updated); err != nil {
		return nil, err
	}
	if lat.Valid {
		e.Latitude = &lat.Float64
	}
	if lng.Valid {
		e.Longitude = &lng.Float64
	}
	return &e, nil
}

package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/habitek/inspectd/pkg/models"
)

// Per-entity CRUD over the backend REST surface. Pulled payloads are
// validated against the embedded schemas before decoding so a misbehaving
// backend cannot plant malformed rows in the local mirror.

func (c *Client) CreateInspection(ctx context.Context, e *models.Inspection) (*models.Inspection, error) {
	b, err := c.do(ctx, http.MethodPost, "/v1/inspections", e)
	if err != nil {
		return nil, err
	}
	var out models.Inspection
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateInspection(ctx context.Context, e *models.Inspection) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/inspections/"+e.ID, e)
	return err
}

func (c *Client) DeleteInspection(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/inspections/"+id, nil)
	return err
}

func (c *Client) GetInspectionByID(ctx context.Context, id string) (*models.Inspection, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/inspections/"+id, nil)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := c.val.validate(ctx, models.EntityInspection, b); err != nil {
		return nil, err
	}
	var out models.Inspection
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListInspectionsByInspector(ctx context.Context, inspectorID string) ([]models.Inspection, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/inspectors/"+inspectorID+"/inspections", nil)
	if err != nil {
		return nil, err
	}
	if err := c.val.validateList(ctx, models.EntityInspection, b); err != nil {
		return nil, err
	}
	var out []models.Inspection
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRoom(ctx context.Context, e *models.Room) (*models.Room, error) {
	b, err := c.do(ctx, http.MethodPost, "/v1/rooms", e)
	if err != nil {
		return nil, err
	}
	var out models.Room
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRoom(ctx context.Context, e *models.Room) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/rooms/"+e.ID, e)
	return err
}

func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/rooms/"+id, nil)
	return err
}

func (c *Client) ListRoomsByInspection(ctx context.Context, inspectionID string) ([]models.Room, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/inspections/"+inspectionID+"/rooms", nil)
	if err != nil {
		return nil, err
	}
	if err := c.val.validateList(ctx, models.EntityRoom, b); err != nil {
		return nil, err
	}
	var out []models.Room
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateItem(ctx context.Context, e *models.Item) (*models.Item, error) {
	b, err := c.do(ctx, http.MethodPost, "/v1/items", e)
	if err != nil {
		return nil, err
	}
	var out models.Item
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateItem(ctx context.Context, e *models.Item) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/items/"+e.ID, e)
	return err
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/items/"+id, nil)
	return err
}

func (c *Client) ListItemsByRoom(ctx context.Context, roomID string) ([]models.Item, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/rooms/"+roomID+"/items", nil)
	if err != nil {
		return nil, err
	}
	if err := c.val.validateList(ctx, models.EntityItem, b); err != nil {
		return nil, err
	}
	var out []models.Item
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMedia(ctx context.Context, e *models.Media) (*models.Media, error) {
	b, err := c.do(ctx, http.MethodPost, "/v1/media", e)
	if err != nil {
		return nil, err
	}
	var out models.Media
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMedia(ctx context.Context, e *models.Media) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/media/"+e.ID, e)
	return err
}

func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/media/"+id, nil)
	return err
}

func (c *Client) ListMediaByItem(ctx context.Context, itemID string) ([]models.Media, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/items/"+itemID+"/media", nil)
	if err != nil {
		return nil, err
	}
	if err := c.val.validateList(ctx, models.EntityMedia, b); err != nil {
		return nil, err
	}
	var out []models.Media
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertSignature PUTs by (inspection, signer) so the backend replaces any
// existing signature for the pair instead of inserting a duplicate.
func (c *Client) UpsertSignature(ctx context.Context, e *models.Signature) (*models.Signature, error) {
	p := fmt.Sprintf("/v1/inspections/%s/signatures/%s", e.InspectionID, e.Signer)
	b, err := c.do(ctx, http.MethodPut, p, e)
	if err != nil {
		return nil, err
	}
	var out models.Signature
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSignature(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/signatures/"+id, nil)
	return err
}

func (c *Client) ListSignaturesByInspection(ctx context.Context, inspectionID string) ([]models.Signature, error) {
	b, err := c.do(ctx, http.MethodGet, "/v1/inspections/"+inspectionID+"/signatures", nil)
	if err != nil {
		return nil, err
	}
	if err := c.val.validateList(ctx, models.EntitySignature, b); err != nil {
		return nil, err
	}
	var out []models.Signature
	if err := decodeJSON(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

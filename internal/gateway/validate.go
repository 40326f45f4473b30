package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qri-io/jsonschema"

	"github.com/habitek/inspectd/pkg/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// validator holds the compiled per-entity schemas used to check payloads
// pulled from the backend before they reach the local mirror.
type validator struct {
	schemas map[models.EntityType]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	v := &validator{schemas: make(map[models.EntityType]*jsonschema.Schema)}
	for _, t := range []models.EntityType{
		models.EntityInspection,
		models.EntityRoom,
		models.EntityItem,
		models.EntityMedia,
		models.EntitySignature,
	} {
		b, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.json", t))
		if err != nil {
			return nil, fmt.Errorf("read schema for %s: %w", t, err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", t, err)
		}
		v.schemas[t] = rs
	}
	return v, nil
}

func (v *validator) validate(ctx context.Context, t models.EntityType, raw []byte) error {
	rs, ok := v.schemas[t]
	if !ok {
		return fmt.Errorf("no schema for entity type %q", t)
	}
	keyErrs, err := rs.ValidateBytes(ctx, raw)
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", t, err)
	}
	if len(keyErrs) > 0 {
		msgs := make([]error, 0, len(keyErrs))
		for _, ke := range keyErrs {
			msgs = append(msgs, fmt.Errorf("%s: %s", ke.PropertyPath, ke.Message))
		}
		return fmt.Errorf("invalid %s payload from backend: %w", t, errors.Join(msgs...))
	}
	return nil
}

func (v *validator) validateList(ctx context.Context, t models.EntityType, raw []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return fmt.Errorf("decode %s list: %w", t, err)
	}
	for i, el := range elems {
		if err := v.validate(ctx, t, el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func decodeJSON(b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func notFound(err error) bool {
	var he *httpError
	return errors.As(err, &he) && he.status == 404
}

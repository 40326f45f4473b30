package models

import (
	"encoding/json"
	"fmt"
)

// DecodePayload unmarshals a queue entry payload into the concrete entity
// for its tag. The switch is exhaustive over EntityType so the sync
// processor's dispatch cannot silently skip an unknown kind.
func DecodePayload(t EntityType, raw json.RawMessage) (any, error) {
	switch t {
	case EntityInspection:
		var v Inspection
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode inspection payload: %w", err)
		}
		return &v, nil
	case EntityRoom:
		var v Room
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode room payload: %w", err)
		}
		return &v, nil
	case EntityItem:
		var v Item
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode item payload: %w", err)
		}
		return &v, nil
	case EntityMedia:
		var v Media
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode media payload: %w", err)
		}
		return &v, nil
	case EntitySignature:
		var v Signature
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode signature payload: %w", err)
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
}

// EncodePayload marshals an entity snapshot for a queue entry.
func EncodePayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

// PayloadID extracts the entity id from a decoded payload.
func PayloadID(v any) string {
	switch e := v.(type) {
	case *Inspection:
		return e.ID
	case *Room:
		return e.ID
	case *Item:
		return e.ID
	case *Media:
		return e.ID
	case *Signature:
		return e.ID
	}
	return ""
}

// RemapPayloadIDs rewrites any occurrence of old to new in the payload's id
// or parent reference and reports whether something changed. Used when a
// remote create assigned a canonical id to a row born offline.
func RemapPayloadIDs(v any, old, new string) bool {
	changed := false
	switch e := v.(type) {
	case *Inspection:
		if e.ID == old {
			e.ID = new
			changed = true
		}
	case *Room:
		if e.ID == old {
			e.ID = new
			changed = true
		}
		if e.InspectionID == old {
			e.InspectionID = new
			changed = true
		}
	case *Item:
		if e.ID == old {
			e.ID = new
			changed = true
		}
		if e.RoomID == old {
			e.RoomID = new
			changed = true
		}
	case *Media:
		if e.ID == old {
			e.ID = new
			changed = true
		}
		if e.ItemID == old {
			e.ItemID = new
			changed = true
		}
	case *Signature:
		if e.ID == old {
			e.ID = new
			changed = true
		}
		if e.InspectionID == old {
			e.InspectionID = new
			changed = true
		}
	}
	return changed
}

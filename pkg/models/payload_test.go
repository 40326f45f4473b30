package models_test

import (
	"encoding/json"
	"testing"

	"github.com/habitek/inspectd/pkg/models"
)

func TestDecodePayloadUnknownType(t *testing.T) {
	if _, err := models.DecodePayload("pet", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown entity type")
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	room := &models.Room{ID: "r1", InspectionID: "i1", Name: "Kitchen", Position: 2}
	raw, err := models.EncodePayload(room)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	v, err := models.DecodePayload(models.EntityRoom, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := v.(*models.Room)
	if !ok {
		t.Fatalf("decoded %T, want *models.Room", v)
	}
	if got.ID != "r1" || got.InspectionID != "i1" || got.Name != "Kitchen" || got.Position != 2 {
		t.Fatalf("decoded room mismatch: %+v", got)
	}
	if models.PayloadID(v) != "r1" {
		t.Fatalf("PayloadID = %q, want r1", models.PayloadID(v))
	}
}

func TestRemapPayloadIDs(t *testing.T) {
	room := &models.Room{ID: "r1", InspectionID: "local-123-abc"}
	if !models.RemapPayloadIDs(room, "local-123-abc", "srv-9") {
		t.Fatal("expected parent reference remap")
	}
	if room.InspectionID != "srv-9" {
		t.Fatalf("InspectionID = %q, want srv-9", room.InspectionID)
	}
	if room.ID != "r1" {
		t.Fatalf("ID changed unexpectedly: %q", room.ID)
	}

	item := &models.Item{ID: "local-5-x", RoomID: "r1"}
	if !models.RemapPayloadIDs(item, "local-5-x", "srv-10") {
		t.Fatal("expected own id remap")
	}
	if item.ID != "srv-10" {
		t.Fatalf("ID = %q, want srv-10", item.ID)
	}

	if models.RemapPayloadIDs(item, "nope", "other") {
		t.Fatal("remap reported a change for an absent id")
	}
}

func TestIsLocalID(t *testing.T) {
	if !models.IsLocalID("local-1756-abc") {
		t.Fatal("local id not recognized")
	}
	if models.IsLocalID("8f14e45f-uuid") {
		t.Fatal("backend id misclassified as local")
	}
}

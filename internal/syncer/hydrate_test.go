package syncer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/habitek/inspectd/internal/syncer"
	"github.com/habitek/inspectd/pkg/models"
)

func TestHydrateOffline(t *testing.T) {
	s, _, _, _ := newTestSyncer(t, false)
	if err := s.Hydrate(context.Background(), "insp-1"); !errors.Is(err, syncer.ErrOffline) {
		t.Fatalf("err = %v, want ErrOffline", err)
	}
}

func TestHydratePullsFullTree(t *testing.T) {
	ctx := context.Background()
	s, store, gw, _ := newTestSyncer(t, true)

	gw.Inspections["srv-i1"] = &models.Inspection{ID: "srv-i1", InspectorID: "insp-1", Address: "12 Oak St"}
	gw.Rooms["srv-r1"] = &models.Room{ID: "srv-r1", InspectionID: "srv-i1", Name: "Kitchen"}
	gw.Items["srv-it1"] = &models.Item{ID: "srv-it1", RoomID: "srv-r1", Label: "Walls"}
	gw.Signatures["srv-i1/inspector"] = &models.Signature{ID: "srv-s1", InspectionID: "srv-i1", Signer: models.SignerInspector, Image: "x"}

	if err := s.Hydrate(ctx, "insp-1"); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	insp, err := store.GetInspectionByID(ctx, "srv-i1")
	if err != nil || insp == nil {
		t.Fatalf("inspection not pulled: %v", err)
	}
	if !insp.Synced {
		t.Fatal("pulled inspection not marked synced")
	}
	rooms, _ := store.ListRoomsByInspection(ctx, "srv-i1")
	if len(rooms) != 1 || !rooms[0].Synced {
		t.Fatalf("rooms not pulled: %+v", rooms)
	}
	items, _ := store.ListItemsByRoom(ctx, "srv-r1")
	if len(items) != 1 {
		t.Fatalf("items not pulled: %+v", items)
	}
	sigs, _ := store.ListSignaturesByInspection(ctx, "srv-i1")
	if len(sigs) != 1 {
		t.Fatalf("signatures not pulled: %+v", sigs)
	}
}

// A local row with pending edits must survive a hydrate untouched; the
// remote copy only wins once the local edit has drained.
func TestHydrateSkipsDirtyLocalRows(t *testing.T) {
	ctx := context.Background()
	s, store, gw, _ := newTestSyncer(t, true)

	if err := store.PutInspection(ctx, &models.Inspection{ID: "srv-i1", InspectorID: "insp-1", Address: "edited offline", Synced: false}); err != nil {
		t.Fatalf("seed local: %v", err)
	}
	gw.Inspections["srv-i1"] = &models.Inspection{ID: "srv-i1", InspectorID: "insp-1", Address: "remote truth"}

	if err := s.Hydrate(ctx, "insp-1"); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	got, _ := store.GetInspectionByID(ctx, "srv-i1")
	if got.Address != "edited offline" {
		t.Fatalf("dirty local row overwritten: %q", got.Address)
	}
	if got.Synced {
		t.Fatal("dirty row flipped to synced")
	}
}

// An offline-captured signature sits under a local placeholder id while the
// backend's copy carries its own id, so the dirty check has to match on the
// (inspection, signer) pair. The pending local row must survive a hydrate.
func TestHydrateSkipsDirtySignatureByPair(t *testing.T) {
	ctx := context.Background()
	s, store, gw, _ := newTestSyncer(t, true)

	if err := store.PutInspection(ctx, &models.Inspection{ID: "srv-i1", InspectorID: "insp-1", Synced: true}); err != nil {
		t.Fatalf("seed local: %v", err)
	}
	if err := store.PutSignature(ctx, &models.Signature{
		ID: "local-9-sig", InspectionID: "srv-i1", Signer: models.SignerInspector,
		Image: "pending-local", Synced: false,
	}); err != nil {
		t.Fatalf("seed local signature: %v", err)
	}
	gw.Inspections["srv-i1"] = &models.Inspection{ID: "srv-i1", InspectorID: "insp-1"}
	gw.Signatures["srv-i1/inspector"] = &models.Signature{ID: "srv-s1", InspectionID: "srv-i1", Signer: models.SignerInspector, Image: "old-remote"}

	if err := s.Hydrate(ctx, "insp-1"); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	sigs, err := store.ListSignaturesByInspection(ctx, "srv-i1")
	if err != nil || len(sigs) != 1 {
		t.Fatalf("signatures = %+v, err = %v, want local row only", sigs, err)
	}
	if sigs[0].ID != "local-9-sig" || sigs[0].Image != "pending-local" {
		t.Fatalf("pending signature overwritten by pull: %+v", sigs[0])
	}
	if sigs[0].Synced {
		t.Fatal("pending signature flipped to synced")
	}
}

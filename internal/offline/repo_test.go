package offline_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"log/slog"

	migrations "github.com/habitek/inspectd/db"
	"github.com/habitek/inspectd/internal/db"
	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/internal/store/sqlite"
	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository/mock"
)

func newTestRepo(t *testing.T, online bool) (*offline.Repo, *sqlite.Store, *mock.Gateway, *mock.Monitor) {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	d, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, migrations.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlite.New(d, slog.Default())
	gw := mock.NewGateway()
	mon := mock.NewMonitor(online)
	return offline.NewRepo(store, gw, mon, slog.Default()), store, gw, mon
}

func TestSaveInspectionOffline(t *testing.T) {
	ctx := context.Background()
	repo, store, gw, _ := newTestRepo(t, false)

	id, err := repo.SaveInspection(ctx, &models.Inspection{Address: "12 Oak St", InspectorID: "insp-1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !models.IsLocalID(id) {
		t.Fatalf("offline save got id %q, want local- prefix", id)
	}

	// local write committed immediately
	got, err := store.GetInspectionByID(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("local row missing: %v", err)
	}
	if got.Synced {
		t.Fatal("offline row marked synced")
	}

	// exactly one queue entry, action create, nothing sent remotely
	entries, _ := store.ListPending(ctx)
	if len(entries) != 1 {
		t.Fatalf("pending = %d, want 1", len(entries))
	}
	if entries[0].Action != models.ActionCreate || entries[0].EntityID != id {
		t.Fatalf("queue entry mismatch: %+v", entries[0])
	}
	if len(gw.Calls) != 0 {
		t.Fatalf("gateway touched while offline: %v", gw.Calls)
	}
}

func TestSaveInspectionOnlineRehomes(t *testing.T) {
	ctx := context.Background()
	repo, store, gw, _ := newTestRepo(t, true)

	id, err := repo.SaveInspection(ctx, &models.Inspection{Address: "12 Oak St", InspectorID: "insp-1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if models.IsLocalID(id) {
		t.Fatalf("online create kept local id %q", id)
	}
	if _, ok := gw.Inspections[id]; !ok {
		t.Fatalf("inspection not created remotely under %q", id)
	}

	got, _ := store.GetInspectionByID(ctx, id)
	if got == nil || !got.Synced {
		t.Fatalf("local row not rehomed and synced: %+v", got)
	}
	cnt, _ := store.CountPending(ctx)
	if cnt != 0 {
		t.Fatalf("pending = %d after direct write, want 0", cnt)
	}
}

func TestSaveFallsBackToQueueOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	repo, store, gw, _ := newTestRepo(t, true)
	gw.FailWith("CreateInspection", fmt.Errorf("backend returned 503"))

	id, err := repo.SaveInspection(ctx, &models.Inspection{Address: "12 Oak St"})
	if err != nil {
		t.Fatalf("save should not fail when only the remote write fails: %v", err)
	}
	if !models.IsLocalID(id) {
		t.Fatalf("id = %q, want local placeholder", id)
	}
	entries, _ := store.ListPending(ctx)
	if len(entries) != 1 || entries[0].Action != models.ActionCreate {
		t.Fatalf("expected one queued create, got %+v", entries)
	}
}

func TestDeleteLocalBornPurgesQueue(t *testing.T) {
	ctx := context.Background()
	repo, store, gw, _ := newTestRepo(t, false)

	id, err := repo.SaveRoom(ctx, &models.Room{InspectionID: "i1", Name: "Kitchen"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.DeleteRoom(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	cnt, _ := store.CountPending(ctx)
	if cnt != 0 {
		t.Fatalf("pending = %d after deleting a local-born row, want 0", cnt)
	}
	if len(gw.Calls) != 0 {
		t.Fatalf("gateway touched for a row that never synced: %v", gw.Calls)
	}
}

func TestDeleteSyncedRowQueuesWhileOffline(t *testing.T) {
	ctx := context.Background()
	repo, store, _, _ := newTestRepo(t, false)

	if err := store.PutRoom(ctx, &models.Room{ID: "srv-1", InspectionID: "i1", Synced: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.DeleteRoom(ctx, "srv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.GetRoomByID(ctx, "srv-1"); got != nil {
		t.Fatal("local row survived delete")
	}
	entries, _ := store.ListPending(ctx)
	if len(entries) != 1 || entries[0].Action != models.ActionDelete {
		t.Fatalf("expected one queued delete, got %+v", entries)
	}
}

func TestSignatureSupersedesQueuedEntry(t *testing.T) {
	ctx := context.Background()
	repo, store, _, _ := newTestRepo(t, false)

	sig := &models.Signature{InspectionID: "i1", Signer: models.SignerInspector, Image: "data:v1"}
	id, err := repo.SaveSignature(ctx, sig)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	sig2 := &models.Signature{ID: id, InspectionID: "i1", Signer: models.SignerInspector, Image: "data:v2"}
	if _, err := repo.SaveSignature(ctx, sig2); err != nil {
		t.Fatalf("second save: %v", err)
	}

	entries, _ := store.ListPending(ctx)
	if len(entries) != 1 {
		t.Fatalf("pending = %d, want 1 (later signature supersedes)", len(entries))
	}
	list, _ := store.ListSignaturesByInspection(ctx, "i1")
	if len(list) != 1 || list[0].Image != "data:v2" {
		t.Fatalf("latest signature did not win locally: %+v", list)
	}
}

func TestCompleteInspectionTree(t *testing.T) {
	ctx := context.Background()
	repo, store, _, _ := newTestRepo(t, false)

	missing, err := repo.CompleteInspection(ctx, "nope")
	if err != nil {
		t.Fatalf("complete missing: %v", err)
	}
	if missing.Inspection != nil || len(missing.Rooms) != 0 || len(missing.Signatures) != 0 {
		t.Fatalf("unknown id should yield empty aggregate, got %+v", missing)
	}

	if err := store.PutInspection(ctx, &models.Inspection{ID: "i1", InspectorID: "insp-1"}); err != nil {
		t.Fatalf("seed inspection: %v", err)
	}
	if err := store.PutRoom(ctx, &models.Room{ID: "r1", InspectionID: "i1", Name: "Kitchen"}); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	for _, itemID := range []string{"it1", "it2"} {
		if err := store.PutItem(ctx, &models.Item{ID: itemID, RoomID: "r1"}); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	if err := store.PutSignature(ctx, &models.Signature{ID: "s1", InspectionID: "i1", Signer: models.SignerInspector, Image: "x"}); err != nil {
		t.Fatalf("seed signature: %v", err)
	}

	agg, err := repo.CompleteInspection(ctx, "i1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if agg.Inspection == nil || agg.Inspection.ID != "i1" {
		t.Fatalf("inspection missing from aggregate")
	}
	if len(agg.Rooms) != 1 || len(agg.Rooms[0].Items) != 2 {
		t.Fatalf("tree shape wrong: %+v", agg.Rooms)
	}
	if len(agg.Signatures) != 1 {
		t.Fatalf("signatures = %d, want 1", len(agg.Signatures))
	}
}

func TestNewLocalID(t *testing.T) {
	a, b := offline.NewLocalID(), offline.NewLocalID()
	if !models.IsLocalID(a) || !models.IsLocalID(b) {
		t.Fatalf("generated ids missing prefix: %q %q", a, b)
	}
	if a == b {
		t.Fatalf("generated ids collide: %q", a)
	}
}

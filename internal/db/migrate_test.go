package db_test

import (
	"context"
	"testing"

	migrations "github.com/habitek/inspectd/db"
	"github.com/habitek/inspectd/internal/db"
)

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, "file:migrate_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, migrations.Migrations); err != nil {
		t.Fatalf("first migrate: %v", err)
	}

	// data written between runs must survive the second run
	if _, err := d.Exec(ctx, `INSERT INTO inspections (id, inspector_id) VALUES ('i1', 'insp-1')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := db.Migrate(ctx, d, migrations.Migrations); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var cnt int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM inspections`).Scan(&cnt); err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("inspections = %d after re-migrate, want 1", cnt)
	}

	var versions int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if versions == 0 {
		t.Fatal("no migration versions recorded")
	}
}

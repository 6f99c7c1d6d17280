package journal

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"pantrywall/internal/pantry"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("WALL_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("WALL_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := connect(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ensureMigrationsTable(ctx, db); err != nil {
		t.Fatalf("ensure schema_migrations: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS wall_activity`); err != nil {
		t.Fatalf("reset journal table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version LIKE '%activity%'`); err != nil {
		t.Fatalf("reset journal versions: %v", err)
	}
	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestJournalRecordAndRecentPostgres(t *testing.T) {
	db := openTestDB(t)
	j := New(db)
	ctx := context.Background()

	wall := pantry.Ref{PantryID: "pid-journal", Basket: "wall"}
	other := pantry.Ref{PantryID: "pid-journal", Basket: "other"}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{Kind: NoteSaved, PantryID: wall.PantryID, Basket: wall.Basket, Identity: "u1", Detail: "hello", CreatedAt: base},
		{Kind: NameClaimed, PantryID: wall.PantryID, Basket: wall.Basket, Identity: "u1", Detail: "sam(2)", CreatedAt: base.Add(time.Minute)},
		{Kind: SettingsApplied, PantryID: other.PantryID, Basket: other.Basket, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range events {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s) error = %v", e.Kind, err)
		}
	}

	recent, err := j.Recent(ctx, wall, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events for %s, got %d", wall, len(recent))
	}
	if recent[0].Kind != NameClaimed || recent[1].Kind != NoteSaved {
		t.Fatalf("expected newest first, got %s then %s", recent[0].Kind, recent[1].Kind)
	}
	if !recent[0].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected created_at %v", recent[0].CreatedAt)
	}

	limited, err := j.Recent(ctx, wall, 1)
	if err != nil {
		t.Fatalf("Recent(limit 1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestJournalRejectsUnknownKindPostgres(t *testing.T) {
	db := openTestDB(t)
	j := New(db)

	err := j.Record(context.Background(), Event{Kind: "note_deleted", PantryID: "p", Basket: "b"})
	if err == nil {
		t.Fatal("expected check constraint to reject unknown kind")
	}
}

func TestOpenMigratesAndPings(t *testing.T) {
	openTestDB(t)
	dsn := strings.TrimSpace(os.Getenv("WALL_TEST_DATABASE_URL"))

	j, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()
	if err := j.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestApplyMigrationsIsIdempotentPostgres(t *testing.T) {
	db := openTestDB(t)
	if err := ApplyMigrations(context.Background(), db, Migrations()); err != nil {
		t.Fatalf("second ApplyMigrations() error = %v", err)
	}
}

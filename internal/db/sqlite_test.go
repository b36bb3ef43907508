package db

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertCrate(t *testing.T) {
	db := testDB(t)

	c1, err := db.UpsertCrate("cosmic-text", "0.12.1")
	if err != nil {
		t.Fatalf("UpsertCrate: %v", err)
	}
	if c1.ID == 0 || c1.Name != "cosmic-text" || c1.Version != "0.12.1" {
		t.Errorf("crate = %+v", c1)
	}

	// Same name@version resolves to the same row.
	c2, err := db.UpsertCrate("cosmic-text", "0.12.1")
	if err != nil {
		t.Fatalf("second UpsertCrate: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("upsert created a new row: %d vs %d", c2.ID, c1.ID)
	}

	// A different version is a separate row.
	c3, err := db.UpsertCrate("cosmic-text", "0.11.2")
	if err != nil {
		t.Fatalf("third UpsertCrate: %v", err)
	}
	if c3.ID == c1.ID {
		t.Error("different version reused the row")
	}
}

func TestGetCrate(t *testing.T) {
	db := testDB(t)

	if c, err := db.GetCrate("absent", "1.0.0"); err != nil || c != nil {
		t.Errorf("GetCrate(absent) = %+v, %v", c, err)
	}

	created, err := db.UpsertCrate("fontdb", "0.16.0")
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.GetCrate("fontdb", "0.16.0")
	if err != nil {
		t.Fatalf("GetCrate: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("GetCrate = %+v", got)
	}
	if got.ProcessedAt != nil {
		t.Error("new crate should not be processed")
	}

	if err := db.MarkCrateProcessed(created.ID); err != nil {
		t.Fatalf("MarkCrateProcessed: %v", err)
	}
	got, err = db.GetCrate("fontdb", "0.16.0")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProcessedAt == nil {
		t.Error("processed_at not set")
	}
}

func TestGetLatestCrate(t *testing.T) {
	db := testDB(t)

	old, _ := db.UpsertCrate("cosmic-text", "0.11.2")
	if err := db.MarkCrateProcessed(old.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertCrate("cosmic-text", "0.13.0"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetLatestCrate("cosmic-text")
	if err != nil {
		t.Fatalf("GetLatestCrate: %v", err)
	}
	if got == nil || got.Version != "0.11.2" {
		t.Errorf("GetLatestCrate = %+v, want the processed 0.11.2", got)
	}

	if got, err := db.GetLatestCrate("absent"); err != nil || got != nil {
		t.Errorf("GetLatestCrate(absent) = %+v, %v", got, err)
	}
}

func TestGetIndexedVersions(t *testing.T) {
	db := testDB(t)

	c, _ := db.UpsertCrate("cosmic-text", "0.12.1")
	if err := db.MarkCrateProcessed(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertCrate("fontdb", "0.16.0"); err != nil {
		t.Fatal(err)
	}

	versions, err := db.GetIndexedVersions([]string{"cosmic-text", "fontdb", "absent"})
	if err != nil {
		t.Fatalf("GetIndexedVersions: %v", err)
	}
	if versions["cosmic-text"] != "0.12.1" {
		t.Errorf("versions = %v", versions)
	}
	// fontdb exists but is unprocessed.
	if _, ok := versions["fontdb"]; ok {
		t.Errorf("unprocessed crate reported: %v", versions)
	}
}

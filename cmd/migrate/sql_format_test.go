package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Every migration must be reversible: an Up section followed by a Down
// section that actually drops what Up created.
func TestSQLMigrations_UpThenReversibleDown(t *testing.T) {
	dir := repoMigrationsDir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}

	var seen int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		seen++
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		s := string(b)

		up := strings.Index(s, "-- +goose Up")
		down := strings.Index(s, "-- +goose Down")
		if up < 0 || down < 0 {
			t.Fatalf("%s missing goose Up/Down directives", e.Name())
		}
		if down < up {
			t.Fatalf("%s: Down section precedes Up", e.Name())
		}

		upBody := strings.ToUpper(s[up:down])
		downBody := strings.ToUpper(s[down:])
		if !strings.Contains(upBody, "CREATE ") {
			t.Errorf("%s: Up section creates nothing", e.Name())
		}
		if !strings.Contains(downBody, "DROP ") {
			t.Errorf("%s: Down section does not drop anything", e.Name())
		}
		if strings.Contains(upBody, "CREATE TABLE") && !strings.Contains(downBody, "DROP TABLE") {
			t.Errorf("%s: Up creates a table that Down never drops", e.Name())
		}
		if strings.Contains(upBody, "CREATE INDEX") && !strings.Contains(downBody, "DROP INDEX") {
			t.Errorf("%s: Up creates an index that Down never drops", e.Name())
		}
	}
	if seen == 0 {
		t.Fatal("no .sql migrations found")
	}
}

func TestSQLMigrations_CatalogReleasesSchema(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00001_create_catalog_releases.sql"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	s := string(b)
	for _, col := range []string{
		"spotify_id        TEXT PRIMARY KEY",
		"release_date      DATE NOT NULL",
		"genres            TEXT[] NOT NULL DEFAULT '{}'",
		"CHECK (total_tracks >= 0)",
	} {
		if !strings.Contains(s, col) {
			t.Errorf("catalog_releases schema missing %q", col)
		}
	}
}

package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortedMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_reads.sql", "001_init.sql", "README.md", "010_later.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700); err != nil {
		t.Fatal(err)
	}

	files, err := SortedMigrationFiles(dir)
	if err != nil {
		t.Fatalf("SortedMigrationFiles() error = %v", err)
	}

	want := []string{"001_init.sql", "002_reads.sql", "010_later.sql"}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(files), len(want), files)
	}
	for i, name := range want {
		if filepath.Base(files[i]) != name {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(files[i]), name)
		}
	}
}

func TestMigrationVersion(t *testing.T) {
	tests := map[string]string{
		"001_init.sql":                      "001",
		"/tmp/x/002_notification_reads.sql": "002",
		"003.sql":                           "003.sql",
	}
	for in, want := range tests {
		if got := MigrationVersion(in); got != want {
			t.Errorf("MigrationVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := SortedMigrationFiles(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatalf("SortedMigrationFiles() error = %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations found")
	}

	seen := map[string]bool{}
	for _, f := range files {
		v := MigrationVersion(f)
		if seen[v] {
			t.Errorf("duplicate migration version %s", v)
		}
		seen[v] = true
	}
}

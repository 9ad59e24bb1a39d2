package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestDriverURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u:p@db/links", "pgx5://u:p@db/links"},
		{"pgx5://u:p@db/links", "pgx5://u:p@db/links"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := driverURL(tt.in); got != tt.want {
				t.Errorf("driverURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "sql")
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %q", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %q has no down file", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %q has no up file", base)
		}
	}
}

package migration

import (
	"testing"
	"testing/fstest"

	"skill-radar/migrations"
)

func TestLoad_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"V2__second.sql": {Data: []byte("SELECT 2;")},
		"V1__first.sql":  {Data: []byte("  SELECT 1;  ")},
		"README.md":      {Data: []byte("ignored")},
		"V3_bad.sql":     {Data: []byte("SELECT 3;")},
	}

	migs, err := Load(fsys)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migs))
	}
	if migs[0].Version != 1 || migs[0].Name != "first" || migs[0].SQL != "SELECT 1;" {
		t.Fatalf("unexpected first migration: %+v", migs[0])
	}
	if migs[1].Version != 2 {
		t.Fatalf("unexpected order: %+v", migs)
	}
	if migs[0].Checksum == "" || migs[0].Checksum == migs[1].Checksum {
		t.Fatalf("expected distinct checksums")
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"empty":     {"V1__empty.sql": {Data: []byte("   ")}},
		"duplicate": {"V1__a.sql": {Data: []byte("SELECT 1;")}, "V01__b.sql": {Data: []byte("SELECT 1;")}},
	}
	for name, fsys := range cases {
		if _, err := Load(fsys); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_EmbeddedMigrations(t *testing.T) {
	migs, err := Load(migrations.FS)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(migs) == 0 || migs[0].Name != "create_subjects" {
		t.Fatalf("expected embedded subjects migration first, got %+v", migs)
	}
}

package sqlite

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Errorf("incomplete info: %+v", info)
	}
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: info=%s, func=%s", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}

	switch info.DriverType {
	case "purego":
		if info.IsCGO || info.DriverName != "sqlite" {
			t.Errorf("unexpected purego info: %+v", info)
		}
	case "cgo":
		if !info.IsCGO || info.DriverName != "sqlite3" {
			t.Errorf("unexpected cgo info: %+v", info)
		}
	default:
		t.Errorf("unknown driver type: %s", info.DriverType)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/c.db", "mode=ro")
	if !strings.HasPrefix(got, "file:/tmp/c.db?") || !strings.Contains(got, "mode=ro") || !strings.Contains(got, foreignKeys) {
		t.Errorf("dsn = %q", got)
	}
	if got := dsn(":memory:", ""); !strings.HasPrefix(got, "file::memory:?") {
		t.Errorf("memory dsn = %q", got)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE site (code TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE series (id TEXT, site TEXT REFERENCES site(code))`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO series VALUES ('ABC01', 'missing')`); err == nil {
		t.Error("foreign key violation was accepted")
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v", fk, err)
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE site (code TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO site VALUES ('ABC')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	defer ro.Close()

	var code string
	if err := ro.QueryRow(`SELECT code FROM site`).Scan(&code); err != nil || code != "ABC" {
		t.Errorf("read = %q, %v", code, err)
	}
	if _, err := ro.Exec(`INSERT INTO site VALUES ('DEF')`); err == nil {
		t.Error("write succeeded on read-only database")
	}
}

// Package sqlite opens SQLite databases through whichever driver the build
// selected.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - -tags cgo_sqlite (CGO_ENABLED=1): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the right driver name and DSN parameters
// are used.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// DriverName returns the database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the database at path with foreign keys enabled.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn(path, ""))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return db, nil
}

// OpenReadOnly opens the database at path in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn(path, "mode=ro"))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return db, nil
}

// dsn builds a file: URI so both drivers read the query parameters.
func dsn(path, extra string) string {
	params := []string{foreignKeys}
	if extra != "" {
		params = append(params, extra)
	}
	if path == ":memory:" {
		return "file::memory:?" + strings.Join(append(params, "cache=shared"), "&")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// Info describes the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}

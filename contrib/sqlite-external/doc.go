// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for the series catalog.
//
// It is linked in only when building with the cgo_sqlite tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/ringconv
//
// Without the tag the catalog uses the pure Go modernc.org/sqlite driver
// registered by core/sqlite.
package sqliteexternal

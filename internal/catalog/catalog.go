// Package catalog records decoded series in a SQLite database so that a
// collection of files can be queried by site, species and year coverage.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FocuswithJustin/ringconv/core/calendar"
	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/core/sqlite"
	"github.com/FocuswithJustin/ringconv/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	format     TEXT NOT NULL,
	indexed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS series (
	path         TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	id           TEXT NOT NULL,
	title        TEXT,
	kind         TEXT NOT NULL,
	unit         TEXT,
	variable     TEXT,
	dating       TEXT NOT NULL,
	start_year   INTEGER,
	end_year     INTEGER,
	rings        INTEGER NOT NULL,
	fingerprint  TEXT NOT NULL,
	site_code    TEXT,
	species_code TEXT,
	PRIMARY KEY (path, position)
);
CREATE TABLE IF NOT EXISTS attributes (
	path     TEXT NOT NULL,
	position INTEGER NOT NULL,
	key      TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (path, position, key),
	FOREIGN KEY (path, position) REFERENCES series(path, position) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS rings (
	path     TEXT NOT NULL,
	position INTEGER NOT NULL,
	ordinal  INTEGER NOT NULL,
	value    INTEGER NOT NULL,
	count    INTEGER,
	PRIMARY KEY (path, position, ordinal),
	FOREIGN KEY (path, position) REFERENCES series(path, position) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_series_site ON series(site_code);
CREATE INDEX IF NOT EXISTS idx_series_years ON series(start_year, end_year);
CREATE INDEX IF NOT EXISTS idx_series_fingerprint ON series(fingerprint);
`

// Catalog is an open series catalog.
type Catalog struct {
	db   *sql.DB
	path string
}

// Entry summarizes one catalogued series.
type Entry struct {
	Path        string              `json:"path"`
	Format      string              `json:"format"`
	Position    int                 `json:"position"`
	ID          string              `json:"id"`
	Title       string              `json:"title,omitempty"`
	Kind        series.Kind         `json:"kind"`
	Unit        series.Unit         `json:"unit,omitempty"`
	Dating      calendar.DatingType `json:"dating"`
	Range       *calendar.YearRange `json:"range,omitempty"`
	Rings       int                 `json:"rings"`
	Fingerprint string              `json:"fingerprint"`
	SiteCode    string              `json:"site_code,omitempty"`
	SpeciesCode string              `json:"species_code,omitempty"`
}

// Filter narrows List. Zero fields match everything. Covers keeps only
// dated series whose range contains the year.
type Filter struct {
	SiteCode    string
	SpeciesCode string
	Covers      *calendar.Year
	Format      string
	Fingerprint string
}

// Open opens or creates the catalog at path.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	// One connection keeps in-memory catalogs and pragmas consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// OpenReadOnly opens an existing catalog for queries. Nothing is created
// and writes fail.
func OpenReadOnly(ctx context.Context, path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("catalog", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Index replaces everything recorded for path with ss, in one transaction.
func (c *Catalog) Index(ctx context.Context, path, format string, ss []*series.Series) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: clear %s: %w", path, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO files (path, format, indexed_at) VALUES (?, ?, ?)`,
		path, format, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("catalog: insert file: %w", err)
	}

	for i, s := range ss {
		if err = insertSeries(ctx, tx, path, i, s); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	logging.CatalogEvent("index", path, len(ss), "format", format)
	return nil
}

func insertSeries(ctx context.Context, tx *sql.Tx, path string, pos int, s *series.Series) error {
	var start, end sql.NullInt64
	if s.IsDated() {
		start = sql.NullInt64{Int64: int64(s.Range.Start().Int()), Valid: true}
		end = sql.NullInt64{Int64: int64(s.Range.End().Int()), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO series (path, position, id, title, kind, unit, variable, dating,
			start_year, end_year, rings, fingerprint, site_code, species_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, pos, s.ID, s.Title, string(s.Kind), string(s.Unit), string(s.Variable), string(s.Dating),
		start, end, len(s.Values), s.Fingerprint(),
		s.Attr(series.AttrSiteCode), s.Attr(series.AttrSpeciesCode))
	if err != nil {
		return fmt.Errorf("catalog: insert series %s: %w", s.ID, err)
	}

	for _, k := range s.AttrKeys() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attributes (path, position, key, value) VALUES (?, ?, ?, ?)`,
			path, pos, k, s.Attributes[k]); err != nil {
			return fmt.Errorf("catalog: insert attribute %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rings (path, position, ordinal, value, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare rings: %w", err)
	}
	defer stmt.Close()

	for i, v := range s.Values {
		var count sql.NullInt64
		if v.Count != nil {
			count = sql.NullInt64{Int64: int64(*v.Count), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, path, pos, i, v.Value, count); err != nil {
			return fmt.Errorf("catalog: insert ring %d of %s: %w", i, s.ID, err)
		}
	}
	return nil
}

// Remove forgets path. Removing an unknown path returns a not-found error.
func (c *Catalog) Remove(ctx context.Context, path string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("catalog: remove %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("catalog file", path)
	}
	logging.CatalogEvent("remove", path, 0)
	return nil
}

// List returns the entries matching f ordered by path and position.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	var where []string
	var args []any
	if f.SiteCode != "" {
		where = append(where, "s.site_code = ?")
		args = append(args, f.SiteCode)
	}
	if f.SpeciesCode != "" {
		where = append(where, "s.species_code = ?")
		args = append(args, f.SpeciesCode)
	}
	if f.Format != "" {
		where = append(where, "f.format = ?")
		args = append(args, f.Format)
	}
	if f.Fingerprint != "" {
		where = append(where, "s.fingerprint = ?")
		args = append(args, f.Fingerprint)
	}
	if f.Covers != nil {
		where = append(where, "s.start_year <= ? AND s.end_year >= ?")
		args = append(args, f.Covers.Int(), f.Covers.Int())
	}

	query := `
		SELECT s.path, f.format, s.position, s.id, s.title, s.kind, s.unit, s.dating,
			s.start_year, s.end_year, s.rings, s.fingerprint, s.site_code, s.species_code
		FROM series s JOIN files f ON f.path = s.path`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.path, s.position"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var title, unit, site, species sql.NullString
		var kind, dating string
		var start, end sql.NullInt64
		if err := rows.Scan(&e.Path, &e.Format, &e.Position, &e.ID, &title, &kind, &unit, &dating,
			&start, &end, &e.Rings, &e.Fingerprint, &site, &species); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		e.Title, e.Unit = title.String, series.Unit(unit.String)
		e.Kind, e.Dating = series.Kind(kind), calendar.DatingType(dating)
		e.SiteCode, e.SpeciesCode = site.String, species.String
		if start.Valid && end.Valid {
			r := calendar.NewRange(calendar.Year(start.Int64), calendar.Year(end.Int64))
			e.Range = &r
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Load rebuilds the series stored at path and position.
func (c *Catalog) Load(ctx context.Context, path string, pos int) (*series.Series, error) {
	var title, unit, variable sql.NullString
	var id, kind, dating string
	var start sql.NullInt64
	err := c.db.QueryRowContext(ctx, `
		SELECT id, title, kind, unit, variable, dating, start_year
		FROM series WHERE path = ? AND position = ?`, path, pos).
		Scan(&id, &title, &kind, &unit, &variable, &dating, &start)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("catalog series", fmt.Sprintf("%s#%d", path, pos))
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	s := series.New(id)
	s.Title = title.String
	s.Kind = series.Kind(kind)
	s.Unit = series.Unit(unit.String)
	s.Variable = series.Variable(variable.String)
	s.Dating = calendar.DatingType(dating)

	if err := c.loadAttributes(ctx, s, path, pos); err != nil {
		return nil, err
	}
	if err := c.loadRings(ctx, s, path, pos); err != nil {
		return nil, err
	}
	if start.Valid {
		s.SetRange(calendar.Year(start.Int64))
	}
	return s, nil
}

func (c *Catalog) loadAttributes(ctx context.Context, s *series.Series, path string, pos int) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, value FROM attributes WHERE path = ? AND position = ?`, path, pos)
	if err != nil {
		return fmt.Errorf("catalog: load attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("catalog: scan attribute: %w", err)
		}
		s.SetAttr(k, v)
	}
	return rows.Err()
}

func (c *Catalog) loadRings(ctx context.Context, s *series.Series, path string, pos int) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT value, count FROM rings WHERE path = ? AND position = ? ORDER BY ordinal`, path, pos)
	if err != nil {
		return fmt.Errorf("catalog: load rings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v series.RingValue
		var count sql.NullInt64
		if err := rows.Scan(&v.Value, &count); err != nil {
			return fmt.Errorf("catalog: scan ring: %w", err)
		}
		if count.Valid {
			v.Count = series.NewCount(int(count.Int64))
		}
		s.Values = append(s.Values, v)
	}
	return rows.Err()
}

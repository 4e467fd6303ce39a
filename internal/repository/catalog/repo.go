// Package catalog persists SBOM metadata rows in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sbomdex/sbomdex/internal/domain"
)

// Record is one cataloged SBOM's metadata row.
type Record struct {
	ID              int64
	Filename        string
	AppName         string
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Manufacturer    string
	Version         string
	Cost            float64
	TotalComponents int
	UniqueLicenses  int
	Description     string
	UploadDate      time.Time
}

// Query filters a List call. Zero values mean "no constraint".
type Query struct {
	Keyword         string // substring over app_name, supplier, description
	Category        string
	OperatingSystem string
	AppBinaryType   string
	Supplier        string
	Limit           int
	Offset          int
}

// Facets holds the distinct filterable values present in the catalog.
type Facets struct {
	Categories       []string
	OperatingSystems []string
	AppBinaryTypes   []string
	Suppliers        []string
}

// Repo is a SQLite-backed metadata repository.
type Repo struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(ctx context.Context, path string) (*Repo, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	_, err = sqlDB.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS sbom (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL UNIQUE,
			app_name TEXT NOT NULL,
			category TEXT,
			operating_system TEXT,
			app_binary_type TEXT,
			supplier TEXT,
			manufacturer TEXT,
			version TEXT,
			cost REAL DEFAULT 0.0,
			total_components INTEGER DEFAULT 0,
			unique_licenses INTEGER DEFAULT 0,
			description TEXT,
			upload_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Repo{db: sqlDB}, nil
}

// Ping checks database availability.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog db: %w", err)
	}
	return nil
}

// Close shuts the database down.
func (r *Repo) Close() error {
	return r.db.Close()
}

const insertColumns = `filename, app_name, category, operating_system, app_binary_type,
	supplier, manufacturer, version, cost, total_components, unique_licenses, description`

// Insert stores a new record. domain.ErrAlreadyExists is returned when the
// filename is already cataloged.
func (r *Repo) Insert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sbom (`+insertColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Filename, rec.AppName, rec.Category, rec.OperatingSystem,
		rec.AppBinaryType, rec.Supplier, rec.Manufacturer, rec.Version,
		rec.Cost, rec.TotalComponents, rec.UniqueLicenses, rec.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("executing sql insert failed: %w", err)
	}
	return nil
}

// Upsert inserts or, when the filename is already cataloged, refreshes the
// derived metadata of the existing row. Used by the bulk import tool.
func (r *Repo) Upsert(ctx context.Context, rec Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM sbom WHERE filename = ?`, rec.Filename,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sbom (`+insertColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Filename, rec.AppName, rec.Category, rec.OperatingSystem,
			rec.AppBinaryType, rec.Supplier, rec.Manufacturer, rec.Version,
			rec.Cost, rec.TotalComponents, rec.UniqueLicenses, rec.Description,
		)
		if err != nil {
			return fmt.Errorf("executing sql insert failed: %w", err)
		}
	case err != nil:
		return fmt.Errorf("executing sql query failed: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE sbom SET
				app_name = ?, category = ?, operating_system = ?,
				app_binary_type = ?, supplier = ?, manufacturer = ?,
				version = ?, total_components = ?, unique_licenses = ?
			 WHERE id = ?`,
			rec.AppName, rec.Category, rec.OperatingSystem,
			rec.AppBinaryType, rec.Supplier, rec.Manufacturer,
			rec.Version, rec.TotalComponents, rec.UniqueLicenses, id,
		)
		if err != nil {
			return fmt.Errorf("executing sql update failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction failed: %w", err)
	}
	return nil
}

const selectColumns = `id, filename, app_name, category, operating_system, app_binary_type,
	supplier, manufacturer, version, cost, total_components, unique_licenses,
	description, upload_date`

// Get returns the record cataloged under filename, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, filename string) (Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM sbom WHERE filename = ?`, filename,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, domain.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("executing sql query failed: %w", err)
	}
	return rec, nil
}

// Delete removes the record cataloged under filename, or returns
// domain.ErrNotFound when nothing is cataloged under it.
func (r *Repo) Delete(ctx context.Context, filename string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sbom WHERE filename = ?`, filename,
	)
	if err != nil {
		return fmt.Errorf("executing sql delete failed: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching affected rows failed: %w", err)
	}
	if ra != 1 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns records matching the query, newest first.
func (r *Repo) List(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if q.Keyword != "" {
		needle := "%" + q.Keyword + "%"
		where = append(where, `(app_name LIKE ? OR supplier LIKE ? OR description LIKE ?)`)
		args = append(args, needle, needle, needle)
	}
	for _, f := range []struct {
		col string
		val string
	}{
		{"category", q.Category},
		{"operating_system", q.OperatingSystem},
		{"app_binary_type", q.AppBinaryType},
		{"supplier", q.Supplier},
	} {
		if f.val != "" {
			where = append(where, f.col+` = ?`)
			args = append(args, f.val)
		}
	}

	query := `SELECT ` + selectColumns + ` FROM sbom`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY upload_date DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows failed: %w", err)
	}
	return records, nil
}

// Filenames returns all cataloged filenames, used by the statistics scan.
func (r *Repo) Filenames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT filename FROM sbom ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows failed: %w", err)
	}
	return names, nil
}

// Autocomplete returns up to limit app names starting with prefix.
func (r *Repo) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT app_name FROM sbom
		 WHERE app_name LIKE ? ORDER BY app_name LIMIT ?`,
		prefix+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows failed: %w", err)
	}
	return names, nil
}

// FacetValues returns the distinct values of the filterable columns.
func (r *Repo) FacetValues(ctx context.Context) (Facets, error) {
	var f Facets
	for _, c := range []struct {
		col  string
		dest *[]string
	}{
		{"category", &f.Categories},
		{"operating_system", &f.OperatingSystems},
		{"app_binary_type", &f.AppBinaryTypes},
		{"supplier", &f.Suppliers},
	} {
		values, err := r.distinct(ctx, c.col)
		if err != nil {
			return Facets{}, err
		}
		*c.dest = values
	}
	return f, nil
}

func (r *Repo) distinct(ctx context.Context, column string) ([]string, error) {
	// column comes from a fixed internal list, never from user input
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM sbom WHERE `+column+` != '' ORDER BY `+column,
	)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows failed: %w", err)
	}
	return values, nil
}

// Count returns the number of cataloged SBOMs.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sbom`).Scan(&n); err != nil {
		return 0, fmt.Errorf("executing sql query failed: %w", err)
	}
	return n, nil
}

// OSDistribution tallies cataloged SBOMs per operating system.
func (r *Repo) OSDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(operating_system, ''), 'Unknown'), COUNT(*)
		 FROM sbom GROUP BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("executing sql query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dist := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning row failed: %w", err)
		}
		dist[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows failed: %w", err)
	}
	return dist, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec        Record
		uploadDate sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Filename, &rec.AppName, &rec.Category,
		&rec.OperatingSystem, &rec.AppBinaryType, &rec.Supplier,
		&rec.Manufacturer, &rec.Version, &rec.Cost,
		&rec.TotalComponents, &rec.UniqueLicenses, &rec.Description,
		&uploadDate,
	)
	if err != nil {
		return Record{}, err
	}
	if uploadDate.Valid {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
			if ts, perr := time.Parse(layout, uploadDate.String); perr == nil {
				rec.UploadDate = ts
				break
			}
		}
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

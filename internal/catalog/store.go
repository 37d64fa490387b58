package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Filing is one downloaded filing document tracked by the catalog.
type Filing struct {
	ID           int64
	Symbol       string
	Form         string
	Accession    string
	FilingDate   string
	PrimaryDoc   string
	Path         string
	SizeBytes    int64
	DownloadedAt time.Time
}

// StatRow aggregates the archive per symbol and form.
type StatRow struct {
	Symbol       string
	Form         string
	Count        int64
	LatestFiling string
}

// Store manages the filing archive index backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const filingColumns = "id, symbol, form, accession, filing_date, primary_doc, path, size_bytes, downloaded_at"

// Record inserts or refreshes a filing keyed by its accession number.
func (s *Store) Record(ctx context.Context, filing Filing) error {
	downloadedAt := filing.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO filings (symbol, form, accession, filing_date, primary_doc, path, size_bytes, downloaded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(accession) DO UPDATE SET
             symbol = excluded.symbol,
             form = excluded.form,
             filing_date = excluded.filing_date,
             primary_doc = excluded.primary_doc,
             path = excluded.path,
             size_bytes = excluded.size_bytes,
             downloaded_at = excluded.downloaded_at`,
		strings.ToUpper(strings.TrimSpace(filing.Symbol)),
		strings.TrimSpace(filing.Form),
		strings.TrimSpace(filing.Accession),
		nullableString(filing.FilingDate),
		nullableString(filing.PrimaryDoc),
		filing.Path,
		filing.SizeBytes,
		downloadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record filing: %w", err)
	}
	return nil
}

// List returns filings newest first. An empty symbol returns the whole
// archive.
func (s *Store) List(ctx context.Context, symbol string) ([]Filing, error) {
	query := `SELECT ` + filingColumns + ` FROM filings`
	args := []any{}
	if trimmed := strings.ToUpper(strings.TrimSpace(symbol)); trimmed != "" {
		query += ` WHERE symbol = ?`
		args = append(args, trimmed)
	}
	query += ` ORDER BY filing_date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()
	return scanFilings(rows)
}

// BySymbolForm returns the filings for one symbol and form type, newest
// first.
func (s *Store) BySymbolForm(ctx context.Context, symbol, form string) ([]Filing, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+filingColumns+` FROM filings WHERE symbol = ? AND form = ? ORDER BY filing_date DESC, id DESC`,
		strings.ToUpper(strings.TrimSpace(symbol)),
		strings.TrimSpace(form),
	)
	if err != nil {
		return nil, fmt.Errorf("list filings by form: %w", err)
	}
	defer rows.Close()
	return scanFilings(rows)
}

// Stats aggregates the archive per symbol and form.
func (s *Store) Stats(ctx context.Context) ([]StatRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT symbol, form, COUNT(1), COALESCE(MAX(filing_date), '')
         FROM filings GROUP BY symbol, form ORDER BY symbol, form`,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	var stats []StatRow
	for rows.Next() {
		var row StatRow
		if err := rows.Scan(&row.Symbol, &row.Form, &row.Count, &row.LatestFiling); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats = append(stats, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}

func scanFilings(rows *sql.Rows) ([]Filing, error) {
	var filings []Filing
	for rows.Next() {
		var (
			filing       Filing
			filingDate   sql.NullString
			primaryDoc   sql.NullString
			downloadedAt string
		)
		if err := rows.Scan(
			&filing.ID,
			&filing.Symbol,
			&filing.Form,
			&filing.Accession,
			&filingDate,
			&primaryDoc,
			&filing.Path,
			&filing.SizeBytes,
			&downloadedAt,
		); err != nil {
			return nil, fmt.Errorf("scan filing row: %w", err)
		}
		filing.FilingDate = filingDate.String
		filing.PrimaryDoc = primaryDoc.String
		if parsed, err := time.Parse(time.RFC3339Nano, downloadedAt); err == nil {
			filing.DownloadedAt = parsed
		}
		filings = append(filings, filing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filing rows: %w", err)
	}
	return filings, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

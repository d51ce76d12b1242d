package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ski-forecast-mailer/models"
)

// ContactStore reads recipient addresses from a SQL table. Both PostgreSQL
// (driver "postgres") and SQLite (driver "sqlite") are supported.
type ContactStore struct {
	db      *sql.DB
	driver  string
	query   string
	timeout time.Duration
}

// NewContactStore prepares a connection pool; nothing is dialled until the
// first query. query must select a single text column.
func NewContactStore(driver, dsn, query string, timeout time.Duration) (*ContactStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %v", models.ErrDirectoryFetch, driver, err)
	}
	return &ContactStore{db: db, driver: driver, query: query, timeout: timeout}, nil
}

// EnsureSchema creates the default contacts table if it does not exist.
func (cs *ContactStore) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS contacts (
			id    SERIAL PRIMARY KEY,
			email TEXT   UNIQUE NOT NULL
		);`
	if cs.driver == "sqlite" {
		ddl = `
		CREATE TABLE IF NOT EXISTS contacts (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT    UNIQUE NOT NULL
		);`
	}
	if _, err := cs.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%s: migrate: %w", cs.driver, err)
	}
	return nil
}

// AddContacts batch-inserts addresses into the default contacts table,
// skipping ones already present.
func (cs *ContactStore) AddContacts(ctx context.Context, emails []string) error {
	const batchSize = 50
	for i := 0; i < len(emails); i += batchSize {
		end := i + batchSize
		if end > len(emails) {
			end = len(emails)
		}
		if err := cs.insertBatch(ctx, emails[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (cs *ContactStore) insertBatch(ctx context.Context, batch []string) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch))
	for idx, email := range batch {
		valueStrings = append(valueStrings, "("+cs.placeholder(idx+1)+")")
		valueArgs = append(valueArgs, email)
	}

	query := fmt.Sprintf(`
		INSERT INTO contacts (email)
		VALUES %s
		ON CONFLICT (email) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := cs.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert contacts: %w", cs.driver, err)
	}
	return nil
}

// Recipients runs the configured query and returns its non-blank values in
// result order.
func (cs *ContactStore) Recipients(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, cs.timeout)
	defer cancel()

	rows, err := cs.db.QueryContext(ctx, cs.query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: query: %v", models.ErrDirectoryFetch, cs.driver, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email sql.NullString
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%w: %s: scan row: %v", models.ErrDirectoryFetch, cs.driver, err)
		}
		if addr := strings.TrimSpace(email.String); email.Valid && addr != "" {
			emails = append(emails, addr)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDirectoryFetch, cs.driver, err)
	}
	return emails, nil
}

// placeholder returns the n-th bind parameter in the driver's syntax.
func (cs *ContactStore) placeholder(n int) string {
	if cs.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (cs *ContactStore) Close() error {
	return cs.db.Close()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

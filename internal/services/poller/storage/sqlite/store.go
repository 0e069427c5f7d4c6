package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/louisbranch/dbpoll/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
	"github.com/louisbranch/dbpoll/internal/services/poller/storage"
	"github.com/louisbranch/dbpoll/internal/services/poller/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// maxBatchParams bounds the number of ids bound into one UPDATE statement.
// Larger batches are split across statements inside the same transaction.
const maxBatchParams = 500

// ErrNotFound is returned when a customer id does not exist.
var ErrNotFound = errors.New("customer not found")

// Store provides SQLite-backed customer persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a customer SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// ListUnprocessed returns customers with processed = false ordered by id.
func (s *Store) ListUnprocessed(ctx context.Context, limit int) ([]domain.Customer, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		// SQLite treats a negative LIMIT as unbounded.
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name
FROM customer
WHERE processed = 0
ORDER BY id
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unprocessed customers: %w", err)
	}
	return customers, nil
}

// MarkProcessed sets processed = true for every id using batched
// "WHERE id IN (...)" updates in one transaction.
func (s *Store) MarkProcessed(ctx context.Context, ids []int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(ids); start += maxBatchParams {
			end := min(start+maxBatchParams, len(ids))
			chunk := ids[start:end]
			args := make([]any, len(chunk))
			for i, id := range chunk {
				args[i] = id
			}
			query := "UPDATE customer SET processed = 1 WHERE id IN (" + placeholders(len(chunk)) + ")"
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("mark customers processed: %w", err)
			}
		}
		return nil
	})
}

// MarkProcessedPerRow sets processed = true with one prepared UPDATE per id,
// all inside one transaction.
func (s *Store) MarkProcessedPerRow(ctx context.Context, ids []int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "UPDATE customer SET processed = 1 WHERE id = ?")
		if err != nil {
			return fmt.Errorf("prepare mark customer processed: %w", err)
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("mark customer %d processed: %w", id, err)
			}
		}
		return nil
	})
}

// InsertCustomer stores a new unprocessed customer and returns its id.
func (s *Store) InsertCustomer(ctx context.Context, name string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("customer name is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, "INSERT INTO customer (name, processed) VALUES (?, 0)", name)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted customer id: %w", err)
	}
	return id, nil
}

// GetCustomer returns one customer with its processed flag.
func (s *Store) GetCustomer(ctx context.Context, id int64) (storage.CustomerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CustomerRecord{}, err
	}

	var (
		record    storage.CustomerRecord
		processed int
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, name, processed FROM customer WHERE id = ?",
		id,
	).Scan(&record.ID, &record.Name, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.CustomerRecord{}, fmt.Errorf("get customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return storage.CustomerRecord{}, fmt.Errorf("get customer %d: %w", id, err)
	}
	record.Processed = processed != 0
	return record, nil
}

// CountUnprocessed returns the number of customers still waiting for a cycle.
func (s *Store) CountUnprocessed(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM customer WHERE processed = 0").Scan(&count); err != nil {
		return 0, fmt.Errorf("count unprocessed customers: %w", err)
	}
	return count, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

var _ storage.CustomerStore = (*Store)(nil)

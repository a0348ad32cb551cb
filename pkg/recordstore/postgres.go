package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate primary key.
const uniqueViolation = "23505"

// PostgresStore inserts one row per record into a table shaped like:
//
//	CREATE TABLE image_metadata (
//	    id               TEXT PRIMARY KEY,
//	    filename         TEXT NOT NULL,
//	    file_size_bytes  BIGINT NOT NULL,
//	    width            INTEGER NOT NULL,
//	    height           INTEGER NOT NULL,
//	    format           TEXT NOT NULL,
//	    upload_timestamp TEXT NOT NULL
//	);
type PostgresStore struct {
	db     *sql.DB
	insert string
}

// NewPostgres opens a connection pool and verifies it.
func NewPostgres(ctx context.Context, cfg Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresWithDB(db, cfg.Table), nil
}

// NewPostgresWithDB wraps an existing pool.
func NewPostgresWithDB(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{
		db: db,
		insert: fmt.Sprintf(`INSERT INTO %s
            (id, filename, file_size_bytes, width, height, format, upload_timestamp)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`, pq.QuoteIdentifier(table)),
	}
}

func (s *PostgresStore) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, s.insert,
		rec.ID,
		rec.Filename,
		rec.FileSizeBytes,
		rec.Width,
		rec.Height,
		rec.Format,
		rec.UploadTimestamp,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert record %s: %w", rec.ID, ErrDuplicateID)
		}
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

package decision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"restgate/internal/encval"
	id "restgate/pkg/domain"
	"restgate/pkg/platform/sentinel"
)

// PostgresStore persists the latest decision record per subject. The upsert
// is a single statement, which gives the per-subject atomic overwrite the
// state machine requires.
type PostgresStore struct {
	db *sql.DB
}

const decisionSchema = `
CREATE TABLE IF NOT EXISTS decision_records (
	subject    UUID PRIMARY KEY,
	handle     BYTEA NOT NULL,
	public     BOOLEAN NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, decisionSchema); err != nil {
		return nil, fmt.Errorf("ensure decision schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_records (subject, handle, public, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject) DO UPDATE
		SET handle = EXCLUDED.handle, public = EXCLUDED.public, updated_at = EXCLUDED.updated_at`,
		uuid.UUID(record.Subject), record.Handle[:], record.Public, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("write decision record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, subject id.Identity) (Record, error) {
	var (
		raw       []byte
		public    bool
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT handle, public, updated_at FROM decision_records WHERE subject = $1`,
		uuid.UUID(subject),
	).Scan(&raw, &public, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read decision record: %w", err)
	}
	if len(raw) != encval.HandleSize {
		return Record{}, fmt.Errorf("corrupt decision handle for subject %s", subject)
	}
	var handle encval.Handle
	copy(handle[:], raw)
	return Record{Subject: subject, Handle: handle, Public: public, UpdatedAt: updatedAt}, nil
}

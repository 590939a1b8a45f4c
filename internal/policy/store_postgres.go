package policy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "restgate/pkg/domain"
)

// PostgresStore keeps the singleton policy state in a one-row table so
// multiple gateway replicas share one policy and one administrator.
type PostgresStore struct {
	db *sql.DB
}

const policySchema = `
CREATE TABLE IF NOT EXISTS policy_state (
	singleton        BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	bpm_threshold    INTEGER NOT NULL,
	stress_threshold INTEGER NOT NULL,
	mode             SMALLINT NOT NULL,
	administrator    UUID NOT NULL
)`

// NewPostgresStore ensures the schema and seeds the singleton row with the
// initial administrator and an unset policy, unless one already exists.
func NewPostgresStore(ctx context.Context, db *sql.DB, admin id.Identity) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, policySchema); err != nil {
		return nil, fmt.Errorf("ensure policy schema: %w", err)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO policy_state (singleton, bpm_threshold, stress_threshold, mode, administrator)
		VALUES (TRUE, 0, 0, 0, $1)
		ON CONFLICT (singleton) DO NOTHING`,
		uuid.UUID(admin),
	)
	if err != nil {
		return nil, fmt.Errorf("seed policy state: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Policy(ctx context.Context) (Policy, error) {
	var (
		bpm    int
		stress int
		mode   int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT bpm_threshold, stress_threshold, mode FROM policy_state WHERE singleton`).
		Scan(&bpm, &stress, &mode)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return Policy{
		BPMThreshold:    uint16(bpm),
		StressThreshold: uint16(stress),
		Mode:            Mode(mode),
	}, nil
}

func (s *PostgresStore) SetPolicy(ctx context.Context, p Policy) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE policy_state SET bpm_threshold = $1, stress_threshold = $2, mode = $3 WHERE singleton`,
		int(p.BPMThreshold), int(p.StressThreshold), int(p.Mode),
	)
	if err != nil {
		return fmt.Errorf("write policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) Administrator(ctx context.Context) (id.Identity, error) {
	var admin uuid.UUID
	err := s.db.QueryRowContext(ctx, `SELECT administrator FROM policy_state WHERE singleton`).Scan(&admin)
	if err != nil {
		return id.NilIdentity, fmt.Errorf("read administrator: %w", err)
	}
	return id.Identity(admin), nil
}

func (s *PostgresStore) SetAdministrator(ctx context.Context, admin id.Identity) error {
	_, err := s.db.ExecContext(ctx, `UPDATE policy_state SET administrator = $1 WHERE singleton`, uuid.UUID(admin))
	if err != nil {
		return fmt.Errorf("write administrator: %w", err)
	}
	return nil
}

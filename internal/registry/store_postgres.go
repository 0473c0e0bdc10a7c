package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"drivelog/pkg/domain"
)

// PostgresStore persists role assignments and subject attributes in
// PostgreSQL. Schema:
//
//	CREATE TABLE role_assignments (
//	    reader     UUID PRIMARY KEY,
//	    role       TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE subject_attributes (
//	    subject    UUID PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SetRole(ctx context.Context, reader domain.Identity, role Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_assignments (reader, role, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (reader) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`,
		reader.String(), string(role),
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (s *PostgresStore) RoleOf(ctx context.Context, reader domain.Identity) (Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM role_assignments WHERE reader = $1`,
		reader.String(),
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return RoleNone, nil
	}
	if err != nil {
		return RoleNone, fmt.Errorf("role lookup: %w", err)
	}
	return Role(role), nil
}

func (s *PostgresStore) SetAttribute(ctx context.Context, subject domain.Identity, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subject_attributes (subject, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (subject) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		subject.String(), value,
	)
	if err != nil {
		return fmt.Errorf("set attribute: %w", err)
	}
	return nil
}

func (s *PostgresStore) AttributeOf(ctx context.Context, subject domain.Identity) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM subject_attributes WHERE subject = $1`,
		subject.String(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("attribute lookup: %w", err)
	}
	return value, nil
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"drivelog/pkg/domain"
)

// PostgresStore persists event records in PostgreSQL. Schema:
//
//	CREATE TABLE ledger_events (
//	    subject            UUID NOT NULL,
//	    sequence_id        BIGINT NOT NULL,
//	    attribute_snapshot TEXT NOT NULL,
//	    event_class        TEXT NOT NULL,
//	    recorded_at        TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (subject, sequence_id)
//	);
//
// The dense per-subject sequence is computed inside the insert; the primary
// key turns a lost race into a constraint error instead of a gap.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, subject domain.Identity, attribute string, class EventClass, ts time.Time) (EventRecord, error) {
	var seq uint64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_events (subject, sequence_id, attribute_snapshot, event_class, recorded_at)
		VALUES ($1,
		        (SELECT COALESCE(MAX(sequence_id) + 1, 0) FROM ledger_events WHERE subject = $1),
		        $2, $3, $4)
		RETURNING sequence_id`,
		subject.String(), attribute, string(class), ts,
	).Scan(&seq)
	if err != nil {
		return EventRecord{}, fmt.Errorf("append event: %w", err)
	}
	return EventRecord{
		Subject:           subject,
		AttributeSnapshot: attribute,
		Class:             class,
		Timestamp:         ts,
		SequenceID:        seq,
	}, nil
}

func (s *PostgresStore) Count(ctx context.Context, subject domain.Identity) (uint64, error) {
	var count uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_events WHERE subject = $1`,
		subject.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Page(ctx context.Context, subject domain.Identity, offset, limit uint64) ([]EventRecord, error) {
	if limit == 0 {
		return []EventRecord{}, nil
	}
	// The driver encodes parameters as int64; clamp so huge limits page to the
	// end instead of failing.
	if limit > math.MaxInt64 {
		limit = math.MaxInt64
	}
	if offset > math.MaxInt64 {
		return []EventRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, attribute_snapshot, event_class, recorded_at
		FROM ledger_events
		WHERE subject = $1 AND sequence_id >= $2
		ORDER BY sequence_id ASC
		LIMIT $3`,
		subject.String(), offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("page events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		record := EventRecord{Subject: subject}
		var class string
		if err := rows.Scan(&record.SequenceID, &record.AttributeSnapshot, &class, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		record.Class = EventClass(class)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

package calls

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore persists calls in the `calls` table.
//
// Expected schema highlights:
// - UNIQUE (call_sid) so concurrent webhook redelivery cannot produce
//   duplicate rows; the second insert fails cleanly and the ledger re-reads.
// - duration_seconds, recording_url, recording_sid and notes are nullable.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const callColumns = `id, call_sid, phone_number, started_at, duration_seconds, status, recording_url, recording_sid, has_complaint, notes, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE id = $1
`
	c, err := scanCall(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (s *PostgresStore) GetByCallSid(ctx context.Context, callSid string) (Call, bool, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE call_sid = $1
LIMIT 1
`
	c, err := scanCall(s.db.QueryRowContext(ctx, q, callSid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, false, nil
		}
		return Call{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
ORDER BY started_at DESC
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (
  id, call_sid, phone_number, started_at, duration_seconds, status,
  recording_url, recording_sid, has_complaint, notes, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err := s.db.ExecContext(ctx, q,
		c.ID,
		c.CallSid,
		c.PhoneNumber,
		c.StartedAt,
		nullInt(c.DurationSeconds),
		c.Status,
		nullStr(c.RecordingURL),
		nullStr(c.RecordingSid),
		c.HasComplaint,
		nullStr(c.Notes),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, c Call) error {
	const q = `
UPDATE calls
SET phone_number = $2,
    duration_seconds = $3,
    status = $4,
    recording_url = $5,
    recording_sid = $6,
    has_complaint = $7,
    notes = $8,
    updated_at = $9
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q,
		c.ID,
		c.PhoneNumber,
		nullInt(c.DurationSeconds),
		c.Status,
		nullStr(c.RecordingURL),
		nullStr(c.RecordingSid),
		c.HasComplaint,
		nullStr(c.Notes),
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) SetHasComplaint(ctx context.Context, id string, has bool) error {
	const q = `
UPDATE calls
SET has_complaint = $2,
    updated_at = now()
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, id, has)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(r rowScanner) (Call, error) {
	var c Call
	var dur sql.NullInt64
	var recURL, recSid, notes sql.NullString

	if err := r.Scan(
		&c.ID,
		&c.CallSid,
		&c.PhoneNumber,
		&c.StartedAt,
		&dur,
		&c.Status,
		&recURL,
		&recSid,
		&c.HasComplaint,
		&notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Call{}, err
	}
	if dur.Valid {
		v := int(dur.Int64)
		c.DurationSeconds = &v
	}
	c.RecordingURL = recURL.String
	c.RecordingSid = recSid.String
	c.Notes = notes.String
	return c, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

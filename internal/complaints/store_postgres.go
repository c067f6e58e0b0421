package complaints

import (
	"context"
	"database/sql"
	"errors"

	"complaint-hotline/pkg/utils"
)

// PostgresStore persists complaints in the `complaints`, `complaint_history`
// and `complaint_comments` tables.
//
// complaint_history is INSERT-only; status transitions write the complaint
// update and the history row in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const complaintColumns = `id, call_id, transcription, status, category, priority, summary, assigned_to, resolution, resolved_at, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Complaint, error) {
	const q = `
SELECT ` + complaintColumns + `
FROM complaints
WHERE id = $1
`
	c, err := scanComplaint(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Complaint{}, ErrNotFound
		}
		return Complaint{}, err
	}
	return c, nil
}

func (s *PostgresStore) GetByCallID(ctx context.Context, callID string) (Complaint, bool, error) {
	const q = `
SELECT ` + complaintColumns + `
FROM complaints
WHERE call_id = $1
ORDER BY created_at
LIMIT 1
`
	c, err := scanComplaint(s.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Complaint{}, false, nil
		}
		return Complaint{}, false, err
	}
	return c, true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Complaint, error) {
	const q = `
SELECT ` + complaintColumns + `
FROM complaints
ORDER BY created_at DESC
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, c Complaint) error {
	const q = `
INSERT INTO complaints (
  id, call_id, transcription, status, category, priority, summary,
  assigned_to, resolution, resolved_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err := s.db.ExecContext(ctx, q,
		c.ID,
		c.CallID,
		c.Transcription,
		c.Status,
		c.Category,
		c.Priority,
		c.Summary,
		c.AssignedTo,
		c.Resolution,
		c.ResolvedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, c Complaint) error {
	res, err := s.db.ExecContext(ctx, updateComplaintQuery, updateComplaintArgs(c)...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) TransitionStatus(ctx context.Context, c Complaint, change StatusChange) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateComplaintQuery, updateComplaintArgs(c)...)
		if err != nil {
			return err
		}
		if err := requireRow(res); err != nil {
			return err
		}

		const q = `
INSERT INTO complaint_history (
  id, complaint_id, old_status, new_status, actor_id, notes, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
		_, err = tx.ExecContext(ctx, q,
			change.ID,
			change.ComplaintID,
			change.OldStatus,
			change.NewStatus,
			nullStr(change.ActorID),
			nullStr(change.Notes),
			change.CreatedAt,
		)
		return err
	})
}

func (s *PostgresStore) ListHistory(ctx context.Context, complaintID string) ([]StatusChange, error) {
	const q = `
SELECT id, complaint_id, old_status, new_status, actor_id, notes, created_at
FROM complaint_history
WHERE complaint_id = $1
ORDER BY created_at
`
	rows, err := s.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusChange
	for rows.Next() {
		var h StatusChange
		var actor, notes sql.NullString
		if err := rows.Scan(&h.ID, &h.ComplaintID, &h.OldStatus, &h.NewStatus, &actor, &notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.ActorID = actor.String
		h.Notes = notes.String
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddComment(ctx context.Context, cm Comment) error {
	const q = `
INSERT INTO complaint_comments (id, complaint_id, user_id, body, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := s.db.ExecContext(ctx, q, cm.ID, cm.ComplaintID, cm.UserID, cm.Body, cm.CreatedAt)
	return err
}

func (s *PostgresStore) ListComments(ctx context.Context, complaintID string) ([]Comment, error) {
	const q = `
SELECT id, complaint_id, user_id, body, created_at
FROM complaint_comments
WHERE complaint_id = $1
ORDER BY created_at
`
	rows, err := s.db.QueryContext(ctx, q, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.ComplaintID, &cm.UserID, &cm.Body, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

const updateComplaintQuery = `
UPDATE complaints
SET transcription = $2,
    status = $3,
    category = $4,
    priority = $5,
    summary = $6,
    assigned_to = $7,
    resolution = $8,
    resolved_at = $9,
    updated_at = $10
WHERE id = $1
`

func updateComplaintArgs(c Complaint) []any {
	return []any{
		c.ID,
		c.Transcription,
		c.Status,
		c.Category,
		c.Priority,
		c.Summary,
		c.AssignedTo,
		c.Resolution,
		c.ResolvedAt,
		c.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(r rowScanner) (Complaint, error) {
	var c Complaint
	if err := r.Scan(
		&c.ID,
		&c.CallID,
		&c.Transcription,
		&c.Status,
		&c.Category,
		&c.Priority,
		&c.Summary,
		&c.AssignedTo,
		&c.Resolution,
		&c.ResolvedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Complaint{}, err
	}
	return c, nil
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

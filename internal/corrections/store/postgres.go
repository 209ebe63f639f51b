package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petidentity/internal/corrections/models"
	"petidentity/internal/fingerprint"
	"petidentity/internal/platform/postgres"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

const columns = `id, pet_id, owner_id, field_name, old_value, new_value, reason, status, fingerprint,
	reviewed_by, reviewed_at, review_reason, tx_ref, created_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*models.CorrectionRequest, error) {
	var (
		c            models.CorrectionRequest
		field        string
		status       string
		reason       sql.NullString
		fp           sql.NullString
		reviewedBy   sql.NullInt64
		reviewedAt   sql.NullTime
		reviewReason sql.NullString
		txRef        sql.NullString
	)
	err := row.Scan(&c.ID, &c.PetID, &c.OwnerID, &field, &c.OldValue, &c.NewValue, &reason, &status, &fp,
		&reviewedBy, &reviewedAt, &reviewReason, &txRef, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Field = models.Field(field)
	c.Status = domain.ReviewStatus(status)
	c.Fingerprint = fingerprint.Fingerprint(fp.String)
	c.TxRef = txRef.String
	if reason.Valid {
		c.Reason = &reason.String
	}
	if reviewedBy.Valid {
		c.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if reviewReason.Valid {
		c.ReviewReason = &reviewReason.String
	}
	return &c, nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.CorrectionRequest) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO correction_requests (pet_id, owner_id, field_name, old_value, new_value, reason, status, fingerprint, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		c.PetID, c.OwnerID, string(c.Field), c.OldValue, c.NewValue, c.Reason, string(c.Status),
		c.Fingerprint.String(), c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert correction request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.CorrectionRequest, error) {
	c, err := scan(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM correction_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find correction request: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, status *domain.ReviewStatus) ([]*models.CorrectionRequest, error) {
	query := `SELECT ` + columns + ` FROM correction_requests`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list correction requests: %w", err)
	}
	defer rows.Close()

	var out []*models.CorrectionRequest
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan correction request: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Resolve moves a PENDING request to its terminal state. A request that is no
// longer PENDING yields sentinel.ErrInvalidState.
func (s *PostgresStore) Resolve(ctx context.Context, id int64, r models.Review) error {
	conn := postgres.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx,
		`UPDATE correction_requests
		 SET status = $2, reviewed_by = $3, reviewed_at = $4, review_reason = $5, tx_ref = $6
		 WHERE id = $1 AND status = 'PENDING'`,
		id, string(r.Status), r.ReviewerID, r.ReviewedAt, r.Reason, sql.NullString{String: r.TxRef, Valid: r.TxRef != ""})
	if err != nil {
		return fmt.Errorf("resolve correction request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve correction request: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM correction_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("resolve correction request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petidentity/internal/fingerprint"
	"petidentity/internal/medical/models"
	"petidentity/internal/platform/postgres"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

const columns = `id, pet_id, clinic_id, vaccine_type, batch_number, given_at, notes, evidence_url, status,
	ledger_record_id, fingerprint, tx_ref, reviewed_by, reviewed_at, review_tx_ref, created_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*models.MedicalRecord, error) {
	var (
		r           models.MedicalRecord
		status      string
		notes       sql.NullString
		evidence    sql.NullString
		ledgerID    sql.NullInt64
		fp          sql.NullString
		txRef       sql.NullString
		reviewedBy  sql.NullInt64
		reviewedAt  sql.NullTime
		reviewTxRef sql.NullString
	)
	err := row.Scan(&r.ID, &r.PetID, &r.ClinicID, &r.VaccineType, &r.BatchNumber, &r.GivenAt, &notes, &evidence,
		&status, &ledgerID, &fp, &txRef, &reviewedBy, &reviewedAt, &reviewTxRef, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = domain.ReviewStatus(status)
	r.Fingerprint = fingerprint.Fingerprint(fp.String)
	r.TxRef = txRef.String
	r.ReviewTxRef = reviewTxRef.String
	if notes.Valid {
		r.Notes = &notes.String
	}
	if evidence.Valid {
		r.EvidenceURL = &evidence.String
	}
	if ledgerID.Valid {
		r.LedgerRecordID = &ledgerID.Int64
	}
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	return &r, nil
}

func (s *PostgresStore) Create(ctx context.Context, r *models.MedicalRecord) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO medical_records (pet_id, clinic_id, vaccine_type, batch_number, given_at, notes, evidence_url,
			status, ledger_record_id, fingerprint, tx_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		r.PetID, r.ClinicID, r.VaccineType, r.BatchNumber, r.GivenAt, r.Notes, r.EvidenceURL,
		string(r.Status), r.LedgerRecordID, r.Fingerprint.String(), r.TxRef, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	r, err := scan(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM medical_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find medical record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByPet(ctx context.Context, petID int64) ([]*models.MedicalRecord, error) {
	return s.list(ctx, `SELECT `+columns+` FROM medical_records WHERE pet_id = $1
		ORDER BY given_at DESC, id DESC`, petID)
}

func (s *PostgresStore) ListPending(ctx context.Context, clinicID int64) ([]*models.MedicalRecord, error) {
	return s.list(ctx, `SELECT `+columns+` FROM medical_records WHERE clinic_id = $1 AND status = 'PENDING'
		ORDER BY given_at DESC, id DESC`, clinicID)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.MedicalRecord, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var out []*models.MedicalRecord
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Resolve moves a PENDING record to its terminal state. A record that is no
// longer PENDING yields sentinel.ErrInvalidState.
func (s *PostgresStore) Resolve(ctx context.Context, id int64, review models.Review) error {
	conn := postgres.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx,
		`UPDATE medical_records SET status = $2, reviewed_by = $3, reviewed_at = $4, review_tx_ref = $5
		 WHERE id = $1 AND status = 'PENDING'`,
		id, string(review.Status), review.ReviewerID, review.ReviewedAt,
		sql.NullString{String: review.TxRef, Valid: review.TxRef != ""})
	if err != nil {
		return fmt.Errorf("review medical record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review medical record: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM medical_records WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("review medical record: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM medical_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count medical records: %w", err)
	}
	return n, nil
}

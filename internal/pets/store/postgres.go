package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"petidentity/internal/fingerprint"
	"petidentity/internal/pets/models"
	"petidentity/internal/platform/postgres"
	"petidentity/pkg/domain"
	"petidentity/pkg/platform/sentinel"
)

const petColumns = `id, public_id, name, species, breed, birth_date, age, color, physical_mark,
	owner_id, status, ledger_id, fingerprint, tx_ref, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (*models.Pet, error) {
	var (
		p        models.Pet
		status   string
		ledgerID sql.NullInt64
		fp       sql.NullString
		txRef    sql.NullString
	)
	err := row.Scan(&p.ID, &p.PublicID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.Age,
		&p.Color, &p.PhysicalMark, &p.OwnerID, &status, &ledgerID, &fp, &txRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PetStatus(status)
	if ledgerID.Valid {
		p.LedgerID = &ledgerID.Int64
	}
	p.Fingerprint = fingerprint.Fingerprint(fp.String)
	p.TxRef = txRef.String
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Pet) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO pets (public_id, name, species, breed, birth_date, age, color, physical_mark,
			owner_id, status, ledger_id, fingerprint, tx_ref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		p.PublicID, p.Name, p.Species, p.Breed, p.BirthDate, p.Age, p.Color, p.PhysicalMark,
		p.OwnerID, string(p.Status), nullInt64(p.LedgerID), nullString(p.Fingerprint.String()),
		nullString(p.TxRef), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Pet, error) {
	return s.findOne(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
}

func (s *PostgresStore) FindByPublicID(ctx context.Context, publicID string) (*models.Pet, error) {
	return s.findOne(ctx, `SELECT `+petColumns+` FROM pets WHERE public_id = $1`, publicID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Pet, error) {
	p, err := scanPet(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pet: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Pet, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR public_id ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + petColumns + ` FROM pets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var out []*models.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LinkLedger(ctx context.Context, petID, ledgerID int64, fp fingerprint.Fingerprint, txRef string) error {
	return s.execOne(ctx, "link pet ledger id",
		`UPDATE pets SET ledger_id = $2, fingerprint = $3, tx_ref = COALESCE($4, tx_ref), updated_at = now()
		 WHERE id = $1`,
		petID, ledgerID, fp.String(), nullString(txRef))
}

// UpdateDetails writes p only while the row still matches prev. A row that
// moved returns sentinel.ErrConflict.
func (s *PostgresStore) UpdateDetails(ctx context.Context, p *models.Pet, prev models.Revision) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE pets SET name = $2, species = $3, breed = $4, birth_date = $5, age = $6, color = $7,
			physical_mark = $8, ledger_id = COALESCE($9, ledger_id), fingerprint = $10, tx_ref = $11, updated_at = $12
		 WHERE id = $1 AND fingerprint IS NOT DISTINCT FROM $13 AND age = $14`,
		p.ID, p.Name, p.Species, p.Breed, p.BirthDate, p.Age, p.Color, p.PhysicalMark,
		nullInt64(p.LedgerID), nullString(p.Fingerprint.String()), nullString(p.TxRef), p.UpdatedAt,
		nullString(prev.Fingerprint.String()), prev.Age)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindByID(ctx, p.ID); err != nil {
		return err
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) SetStatus(ctx context.Context, petID int64, status domain.PetStatus) error {
	return s.execOne(ctx, "update pet status",
		`UPDATE pets SET status = $2, updated_at = now() WHERE id = $1`, petID, string(status))
}

func (s *PostgresStore) SetOwner(ctx context.Context, petID, ownerID int64, status domain.PetStatus) error {
	return s.execOne(ctx, "update pet owner",
		`UPDATE pets SET owner_id = $2, status = $3, updated_at = now() WHERE id = $1`,
		petID, ownerID, string(status))
}

func (s *PostgresStore) CountPets(ctx context.Context) (int64, error) {
	var n int64
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM pets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pets: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CreateTransfer(ctx context.Context, r *models.OwnershipRecord) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO ownership_history (pet_id, from_owner_id, to_owner_id, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		r.PetID, r.FromOwnerID, r.ToOwnerID, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert ownership transfer: %w", err)
	}
	return nil
}

const historyColumns = `id, pet_id, from_owner_id, to_owner_id, transferred_at, created_at`

func scanHistory(row rowScanner) (*models.OwnershipRecord, error) {
	var (
		r  models.OwnershipRecord
		at sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.PetID, &r.FromOwnerID, &r.ToOwnerID, &at, &r.CreatedAt); err != nil {
		return nil, err
	}
	if at.Valid {
		r.TransferredAt = &at.Time
	}
	return &r, nil
}

func (s *PostgresStore) FindPendingTransfer(ctx context.Context, petID int64) (*models.OwnershipRecord, error) {
	r, err := scanHistory(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM ownership_history WHERE pet_id = $1 AND transferred_at IS NULL`, petID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pending transfer: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) CompleteTransfer(ctx context.Context, id int64, at time.Time) error {
	return s.execOne(ctx, "complete ownership transfer",
		`UPDATE ownership_history SET transferred_at = $2 WHERE id = $1 AND transferred_at IS NULL`, id, at)
}

func (s *PostgresStore) ListHistory(ctx context.Context, petID int64) ([]*models.OwnershipRecord, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+historyColumns+` FROM ownership_history WHERE pet_id = $1 ORDER BY id DESC`, petID)
	if err != nil {
		return nil, fmt.Errorf("list ownership history: %w", err)
	}
	defer rows.Close()

	var out []*models.OwnershipRecord
	for rows.Next() {
		r, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ownership history: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountCompletedTransfers(ctx context.Context) (int64, error) {
	var n int64
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM ownership_history WHERE transferred_at IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return n, nil
}

// execOne runs an update that must touch exactly one row.
func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"petidentity/internal/fingerprint"
	"petidentity/internal/identity"
	"petidentity/internal/ledger"
	"petidentity/internal/medical/models"
	petmodels "petidentity/internal/pets/models"
	"petidentity/internal/platform/metrics"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.MedicalRecord) error
	FindByID(ctx context.Context, id int64) (*models.MedicalRecord, error)
	ListByPet(ctx context.Context, petID int64) ([]*models.MedicalRecord, error)
	ListPending(ctx context.Context, clinicID int64) ([]*models.MedicalRecord, error)
	// Resolve returns sentinel.ErrInvalidState when the record is no longer
	// PENDING.
	Resolve(ctx context.Context, id int64, review models.Review) error
	CountRecords(ctx context.Context) (int64, error)
}

// Pets reads pets and resolves their ledger ids.
type Pets interface {
	FindPet(ctx context.Context, id int64) (*petmodels.Pet, error)
	ResolvePet(ctx context.Context, pet *petmodels.Pet) (identity.Resolution, error)
}

// Ledger is the dependent-record surface of the ledger client.
type Ledger interface {
	AppendDependentRecord(ctx context.Context, parentID int64, fp fingerprint.Fingerprint) (ledger.Registration, error)
	ReviewDependentRecord(ctx context.Context, parentID, recordID int64, verdict ledger.Verdict) (string, error)
}

type AccessEnsurer interface {
	EnsureWriteAccess(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, userID int64, title, message string)
}

// Service appends vaccination entries under pets and records their review.
type Service struct {
	store    Store
	pets     Pets
	ledger   Ledger
	access   AccessEnsurer
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(store Store, pets Pets, l Ledger, access AccessEnsurer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("medical record store is required")
	}
	if pets == nil {
		return nil, errors.New("pet reader is required")
	}
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	if access == nil {
		return nil, errors.New("access provisioner is required")
	}
	s := &Service{
		store:  store,
		pets:   pets,
		ledger: l,
		access: access,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddRecord appends a vaccination entry to the pet's ledger record and then
// stores it as PENDING. Nothing is stored when the ledger step fails.
func (s *Service) AddRecord(ctx context.Context, clinicID, petID int64, req *models.AddRecordRequest) (*models.MedicalRecord, error) {
	req.Normalize()
	now := requestcontext.Now(ctx)
	givenAt, err := models.ParseGivenAt(req.GivenAt, now)
	if err != nil {
		return nil, err
	}
	pet, err := s.pets.FindPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	rec := &models.MedicalRecord{
		PetID:       pet.ID,
		ClinicID:    clinicID,
		VaccineType: req.VaccineType,
		BatchNumber: req.BatchNumber,
		GivenAt:     givenAt,
		Notes:       req.Notes,
		EvidenceURL: req.EvidenceURL,
		Status:      domain.ReviewPending,
		CreatedAt:   now,
	}

	parent, err := s.pets.ResolvePet(ctx, pet)
	if err != nil {
		return nil, err
	}
	fp := fingerprint.MedicalRecord(rec.Snapshot())
	if err := s.access.EnsureWriteAccess(ctx); err != nil {
		return nil, err
	}
	reg, err := s.ledger.AppendDependentRecord(ctx, parent.LedgerID, fp)
	if err != nil {
		s.logger.WarnContext(ctx, "medical record append failed on ledger",
			"pet_id", pet.ID,
			"ledger_id", parent.LedgerID,
			"error", err,
		)
		return nil, ledger.ToDomainError(err)
	}
	rec.LedgerRecordID = &reg.LedgerID
	rec.Fingerprint = fp
	rec.TxRef = reg.TxRef

	if err := s.store.Create(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "medical record appended on ledger but not stored",
			"pet_id", pet.ID,
			"ledger_record_id", reg.LedgerID,
			"tx_hash", reg.TxRef,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store medical record")
	}

	s.logger.InfoContext(ctx, "medical record added",
		"record_id", rec.ID,
		"pet_id", pet.ID,
		"ledger_record_id", reg.LedgerID,
		"tx_hash", reg.TxRef,
	)
	s.notify(ctx, pet.OwnerID, "New medical record",
		fmt.Sprintf("A %s vaccination was recorded for %s and awaits verification.", rec.VaccineType, pet.Name))
	return rec, nil
}

// ListByPet returns a pet's records, newest first. Owners may only list
// their own pets.
func (s *Service) ListByPet(ctx context.Context, p requestcontext.Principal, petID int64) ([]*models.MedicalRecord, error) {
	pet, err := s.pets.FindPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if p.Is(domain.RoleOwner) && pet.OwnerID != p.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "you do not own this pet")
	}
	records, err := s.store.ListByPet(ctx, petID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list medical records")
	}
	return records, nil
}

// ListPending returns the PENDING records created by clinicID.
func (s *Service) ListPending(ctx context.Context, clinicID int64) ([]*models.MedicalRecord, error) {
	records, err := s.store.ListPending(ctx, clinicID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list medical records")
	}
	return records, nil
}

// Review decides a PENDING record. A verification is written to the ledger
// before the record changes; a rejection is local only.
func (s *Service) Review(ctx context.Context, clinicID, recordID int64, verdict string) (*models.MedicalRecord, error) {
	status, err := models.ParseVerdict(verdict)
	if err != nil {
		return nil, err
	}
	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.ClinicID != clinicID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the clinic that created the record can review it")
	}
	if rec.Status.IsTerminal() {
		return nil, errAlreadyReviewed
	}
	pet, err := s.pets.FindPet(ctx, rec.PetID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		Status:     status,
		ReviewerID: clinicID,
		ReviewedAt: requestcontext.Now(ctx),
	}
	if status == domain.ReviewVerified {
		txRef, err := s.verifyOnLedger(ctx, pet, rec)
		if err != nil {
			return nil, err
		}
		review.TxRef = txRef
	}

	if err := s.store.Resolve(ctx, rec.ID, review); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, errAlreadyReviewed
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update medical record")
	}

	s.metrics.IncrementReview("medical", string(status))
	s.logger.InfoContext(ctx, "medical record reviewed",
		"record_id", rec.ID,
		"status", string(status),
		"tx_hash", review.TxRef,
	)
	s.notify(ctx, pet.OwnerID, "Medical record "+string(status),
		fmt.Sprintf("The %s vaccination of %s was %s.", rec.VaccineType, pet.Name, string(status)))
	return s.findRecord(ctx, rec.ID)
}

var errAlreadyReviewed = dErrors.New(dErrors.CodeConflict, "medical record has already been reviewed")

func (s *Service) verifyOnLedger(ctx context.Context, pet *petmodels.Pet, rec *models.MedicalRecord) (string, error) {
	if rec.LedgerRecordID == nil {
		return "", dErrors.New(dErrors.CodeIntegrity, "medical record has no ledger record id")
	}
	parent, err := s.pets.ResolvePet(ctx, pet)
	if err != nil {
		return "", err
	}
	if err := s.access.EnsureWriteAccess(ctx); err != nil {
		return "", err
	}
	txRef, err := s.ledger.ReviewDependentRecord(ctx, parent.LedgerID, *rec.LedgerRecordID, ledger.VerdictVerified)
	if err != nil {
		s.logger.WarnContext(ctx, "medical record verification failed on ledger",
			"record_id", rec.ID,
			"ledger_record_id", *rec.LedgerRecordID,
			"error", err,
		)
		return "", ledger.ToDomainError(err)
	}
	return txRef, nil
}

func (s *Service) CountRecords(ctx context.Context) (int64, error) {
	return s.store.CountRecords(ctx)
}

func (s *Service) findRecord(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "medical record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load medical record")
	}
	return rec, nil
}

func (s *Service) notify(ctx context.Context, userID int64, title, message string) {
	if s.notifier != nil {
		s.notifier.Send(ctx, userID, title, message)
	}
}

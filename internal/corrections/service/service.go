package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"petidentity/internal/corrections/models"
	"petidentity/internal/fingerprint"
	"petidentity/internal/identity"
	"petidentity/internal/ledger"
	petmodels "petidentity/internal/pets/models"
	"petidentity/internal/platform/metrics"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/platform/tx"
	"petidentity/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, id int64) (*models.CorrectionRequest, error)
	List(ctx context.Context, status *domain.ReviewStatus) ([]*models.CorrectionRequest, error)
	// Resolve returns sentinel.ErrInvalidState when the request is no longer
	// PENDING.
	Resolve(ctx context.Context, id int64, review models.Review) error
}

// Pets loads pets and writes approved corrections back to them.
type Pets interface {
	FindPet(ctx context.Context, id int64) (*petmodels.Pet, error)
	ResolvePet(ctx context.Context, pet *petmodels.Pet) (identity.Resolution, error)
	// ApplyCorrection returns a CodeConflict error when the stored pet is no
	// longer at prev.
	ApplyCorrection(ctx context.Context, pet *petmodels.Pet, prev petmodels.Revision) error
}

type Ledger interface {
	UpdateMirroredFields(ctx context.Context, ledgerID int64, fp fingerprint.Fingerprint) (string, error)
}

type AccessEnsurer interface {
	EnsureWriteAccess(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, userID int64, title, message string)
}

// RecordInvalidator drops cached ledger reads for a pet after its
// fingerprint changes.
type RecordInvalidator interface {
	Invalidate(ctx context.Context, ledgerID int64)
}

// Service reviews owner-submitted pet corrections.
type Service struct {
	store       Store
	pets        Pets
	ledger      Ledger
	access      AccessEnsurer
	runner      tx.Runner
	notifier    Notifier
	invalidator RecordInvalidator
	logger      *slog.Logger
	metrics     *metrics.Metrics
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

func WithInvalidator(i RecordInvalidator) Option {
	return func(s *Service) {
		s.invalidator = i
	}
}

func New(store Store, runner tx.Runner, pets Pets, l Ledger, access AccessEnsurer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("correction store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if pets == nil {
		return nil, errors.New("pet service is required")
	}
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	if access == nil {
		return nil, errors.New("access provisioner is required")
	}
	s := &Service{
		store:  store,
		runner: runner,
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

// List returns correction requests, newest first, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, status string) ([]*models.CorrectionRequest, error) {
	var filter *domain.ReviewStatus
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		st := domain.ReviewStatus(status)
		switch st {
		case domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected:
		default:
			return nil, dErrors.New(dErrors.CodeValidation, "status must be PENDING, APPROVED or REJECTED")
		}
		filter = &st
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list correction requests")
	}
	return items, nil
}

// Review approves or rejects a PENDING request. Approving a mirrored field
// writes the pet's new fingerprint to the ledger first; when that write fails
// neither the request nor the pet changes. An approval computed from a pet
// that changed meanwhile returns Conflict and leaves the request PENDING.
func (s *Service) Review(ctx context.Context, reviewerID, id int64, approve bool, reason *string) (*models.CorrectionRequest, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, errAlreadyReviewed
	}
	pet, err := s.pets.FindPet(ctx, c.PetID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	review := models.Review{
		Status:     domain.ReviewRejected,
		ReviewerID: reviewerID,
		ReviewedAt: now,
		Reason:     reason,
	}
	var updated *petmodels.Pet
	if approve {
		review.Status = domain.ReviewApproved
		updated, review.TxRef, err = s.corrected(ctx, c, pet)
		if err != nil {
			return nil, err
		}
	}
	// corrected may re-link pet, so the revision is taken afterwards.
	prev := pet.Revision()

	// The pet write precedes the request update; tx.LocalRunner cannot roll
	// back.
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.find(ctx, c.ID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return errAlreadyReviewed
		}
		if updated != nil {
			if err := s.pets.ApplyCorrection(ctx, updated, prev); err != nil {
				return err
			}
		}
		if err := s.store.Resolve(ctx, c.ID, review); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return errAlreadyReviewed
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update correction request")
		}
		return nil
	})
	if err != nil {
		if review.TxRef != "" {
			s.logger.ErrorContext(ctx, "pet updated on ledger but correction not stored",
				"correction_id", c.ID,
				"pet_id", pet.ID,
				"tx_hash", review.TxRef,
				"error", err,
			)
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				s.resyncLedger(ctx, c.ID, updated)
			}
		}
		return nil, err
	}

	if review.TxRef != "" && s.invalidator != nil && updated.LedgerID != nil {
		s.invalidator.Invalidate(ctx, *updated.LedgerID)
	}
	s.metrics.IncrementReview("correction", string(review.Status))
	s.logger.InfoContext(ctx, "correction reviewed",
		"correction_id", c.ID,
		"pet_id", pet.ID,
		"field", string(c.Field),
		"status", string(review.Status),
		"tx_hash", review.TxRef,
	)
	s.notify(ctx, c.OwnerID, review.Status, c, pet)
	return s.find(ctx, c.ID)
}

var errAlreadyReviewed = dErrors.New(dErrors.CodeConflict, "correction request has already been reviewed")

// corrected returns a copy of pet with the correction applied. For mirrored
// fields the new fingerprint is first written to the ledger, and the copy
// carries the resulting sync state along with the update's tx reference.
func (s *Service) corrected(ctx context.Context, c *models.CorrectionRequest, pet *petmodels.Pet) (*petmodels.Pet, string, error) {
	if !c.Field.Mirrored() {
		updated := *pet
		if err := c.Field.Apply(&updated, c.NewValue, requestcontext.Now(ctx)); err != nil {
			return nil, "", err
		}
		return &updated, "", nil
	}

	// Resolve before copying so a re-linked ledger id lands on the copy.
	res, err := s.pets.ResolvePet(ctx, pet)
	if err != nil {
		return nil, "", err
	}
	updated := *pet
	if err := c.Field.Apply(&updated, c.NewValue, requestcontext.Now(ctx)); err != nil {
		return nil, "", err
	}
	fp := updated.CurrentFingerprint()
	if err := s.access.EnsureWriteAccess(ctx); err != nil {
		return nil, "", err
	}
	txRef, err := s.ledger.UpdateMirroredFields(ctx, res.LedgerID, fp)
	if err != nil {
		s.logger.WarnContext(ctx, "correction update failed on ledger",
			"correction_id", c.ID,
			"ledger_id", res.LedgerID,
			"error", err,
		)
		return nil, "", ledger.ToDomainError(err)
	}
	updated.LedgerID = &res.LedgerID
	updated.Fingerprint = fp
	updated.TxRef = txRef
	return &updated, txRef, nil
}

// resyncLedger rewrites the stored pet's fingerprint to the ledger after a
// review lost the race for the row it had already mirrored.
func (s *Service) resyncLedger(ctx context.Context, correctionID int64, stale *petmodels.Pet) {
	if stale == nil || stale.LedgerID == nil {
		return
	}
	current, err := s.pets.FindPet(ctx, stale.ID)
	if err != nil || current.Fingerprint == "" || current.Fingerprint == stale.Fingerprint {
		return
	}
	if _, err := s.ledger.UpdateMirroredFields(ctx, *stale.LedgerID, current.Fingerprint); err != nil {
		s.logger.WarnContext(ctx, "ledger resync after correction conflict failed",
			"correction_id", correctionID,
			"ledger_id", *stale.LedgerID,
			"error", err,
		)
		return
	}
	s.logger.InfoContext(ctx, "ledger resynced after correction conflict",
		"correction_id", correctionID,
		"ledger_id", *stale.LedgerID,
		"fingerprint", current.Fingerprint.String(),
	)
}

func (s *Service) find(ctx context.Context, id int64) (*models.CorrectionRequest, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "correction request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load correction request")
	}
	return c, nil
}

func (s *Service) notify(ctx context.Context, ownerID int64, status domain.ReviewStatus, c *models.CorrectionRequest, pet *petmodels.Pet) {
	if s.notifier == nil {
		return
	}
	if status == domain.ReviewApproved {
		s.notifier.Send(ctx, ownerID, "Correction approved",
			fmt.Sprintf("The %s of %s is now %q.", c.Field, pet.Name, c.NewValue))
		return
	}
	s.notifier.Send(ctx, ownerID, "Correction rejected",
		fmt.Sprintf("Your request to change the %s of %s was rejected.", c.Field, pet.Name))
}

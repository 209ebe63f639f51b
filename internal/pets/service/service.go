package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	correctionmodels "petidentity/internal/corrections/models"
	"petidentity/internal/fingerprint"
	"petidentity/internal/identity"
	"petidentity/internal/pets/models"
	"petidentity/internal/platform/metrics"
	usermodels "petidentity/internal/users/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/platform/tx"
	"petidentity/pkg/requestcontext"
)

// Store persists pets and their ownership history.
type Store interface {
	// Create inserts p and sets its ID. It returns sentinel.ErrConflict when
	// the public id is taken.
	Create(ctx context.Context, p *models.Pet) error
	FindByID(ctx context.Context, id int64) (*models.Pet, error)
	FindByPublicID(ctx context.Context, publicID string) (*models.Pet, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Pet, error)
	// LinkLedger records a resolution. An empty txRef keeps the stored one.
	LinkLedger(ctx context.Context, petID, ledgerID int64, fp fingerprint.Fingerprint, txRef string) error
	// UpdateDetails writes the correctable fields and ledger sync state of p
	// if the stored row is still at prev, else returns sentinel.ErrConflict.
	UpdateDetails(ctx context.Context, p *models.Pet, prev models.Revision) error
	SetStatus(ctx context.Context, petID int64, status domain.PetStatus) error
	SetOwner(ctx context.Context, petID, ownerID int64, status domain.PetStatus) error
	CountPets(ctx context.Context) (int64, error)

	// CreateTransfer inserts a pending transfer. It returns
	// sentinel.ErrConflict when the pet already has one.
	CreateTransfer(ctx context.Context, r *models.OwnershipRecord) error
	FindPendingTransfer(ctx context.Context, petID int64) (*models.OwnershipRecord, error)
	// CompleteTransfer stamps a pending transfer. It returns
	// sentinel.ErrNotFound when the transfer is no longer pending.
	CompleteTransfer(ctx context.Context, id int64, at time.Time) error
	ListHistory(ctx context.Context, petID int64) ([]*models.OwnershipRecord, error)
	CountCompletedTransfers(ctx context.Context) (int64, error)
}

// Resolver obtains ledger ids for pets.
type Resolver interface {
	Resolve(ctx context.Context, s identity.Subject) (identity.Resolution, error)
	ResolveFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (identity.Resolution, error)
}

// UserDirectory looks up accounts. Both methods return a CodeNotFound domain
// error for unknown users.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*usermodels.User, error)
	FindByEmail(ctx context.Context, email string) (*usermodels.User, error)
}

type CorrectionStore interface {
	Create(ctx context.Context, c *correctionmodels.CorrectionRequest) error
}

// VaccinationReader lists the vaccinations of a pet for its public trace.
type VaccinationReader interface {
	ListVaccinations(ctx context.Context, petID int64) ([]models.Vaccination, error)
}

// Notifier delivers best-effort user notifications.
type Notifier interface {
	Send(ctx context.Context, userID int64, title, message string)
}

type Service struct {
	store        Store
	tx           tx.Runner
	resolver     Resolver
	users        UserDirectory
	corrections  CorrectionStore
	vaccinations VaccinationReader
	notifier     Notifier
	logger       *slog.Logger
	metrics      *metrics.Metrics
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

// WithVaccinations enables the vaccination summary of the public trace.
func WithVaccinations(v VaccinationReader) Option {
	return func(s *Service) {
		s.vaccinations = v
	}
}

func New(store Store, runner tx.Runner, resolver Resolver, users UserDirectory, corrections CorrectionStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("pet store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	if users == nil {
		return nil, errors.New("user directory is required")
	}
	if corrections == nil {
		return nil, errors.New("correction store is required")
	}
	s := &Service{
		store:       store,
		tx:          runner,
		resolver:    resolver,
		users:       users,
		corrections: corrections,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreatePet registers a new pet on the ledger and then stores it. Nothing is
// stored when the ledger step fails. Submitting the same snapshot again for
// the same owner returns the stored pet.
func (s *Service) CreatePet(ctx context.Context, ownerID int64, req *models.CreatePetRequest) (*models.Pet, error) {
	req.Normalize()
	now := requestcontext.Now(ctx)
	birth, err := models.ParseBirthDate(req.BirthDate, now)
	if err != nil {
		return nil, err
	}

	pet := &models.Pet{
		PublicID:     req.PublicID,
		Name:         req.Name,
		Species:      req.Species,
		Breed:        req.Breed,
		BirthDate:    birth,
		Age:          models.CalculateAge(birth, now),
		Color:        req.Color,
		PhysicalMark: req.PhysicalMark,
		OwnerID:      ownerID,
		Status:       domain.PetStatusRegistered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if pet.PublicID == "" {
		pet.PublicID = models.NewPublicID()
	}
	fp := pet.CurrentFingerprint()

	if existing, err := s.sameSubmission(ctx, pet.PublicID, ownerID, fp); err != nil || existing != nil {
		return existing, err
	}

	res, err := s.resolver.ResolveFingerprint(ctx, fp)
	if err != nil {
		s.logger.WarnContext(ctx, "pet registration failed on ledger",
			"public_id", pet.PublicID,
			"fingerprint", fp.String(),
			"error", err,
		)
		return nil, err
	}
	pet.LedgerID = &res.LedgerID
	pet.Fingerprint = res.Fingerprint
	pet.TxRef = res.TxRef

	if err := s.store.Create(ctx, pet); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			existing, err := s.sameSubmission(ctx, pet.PublicID, ownerID, fp)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return existing, nil
			}
			return nil, dErrors.New(dErrors.CodeConflict, "publicId is already in use")
		}
		s.logger.ErrorContext(ctx, "pet registered on ledger but not stored",
			"public_id", pet.PublicID,
			"ledger_id", res.LedgerID,
			"tx_hash", res.TxRef,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pet")
	}

	s.metrics.IncrementPetsRegistered()
	s.logger.InfoContext(ctx, "pet registered",
		"pet_id", pet.ID,
		"public_id", pet.PublicID,
		"ledger_id", res.LedgerID,
		"outcome", string(res.Outcome),
	)
	return pet, nil
}

// sameSubmission returns the stored pet when publicID already holds the same
// snapshot for ownerID, nil when publicID is free, and Conflict otherwise.
func (s *Service) sameSubmission(ctx context.Context, publicID string, ownerID int64, fp fingerprint.Fingerprint) (*models.Pet, error) {
	existing, err := s.store.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pet")
	}
	if existing.OwnerID == ownerID && existing.Fingerprint == fp {
		return existing, nil
	}
	return nil, dErrors.New(dErrors.CodeConflict, "publicId is already in use")
}

// ListPets returns pets visible to p: owners see their own, other roles see
// all. search matches name or public id case-insensitively.
func (s *Service) ListPets(ctx context.Context, p requestcontext.Principal, search string) ([]*models.Pet, error) {
	filter := models.ListFilter{Search: search}
	if p.Is(domain.RoleOwner) {
		filter.OwnerID = &p.UserID
	}
	pets, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pets")
	}
	return pets, nil
}

// GetPet returns a pet. Owners may only read their own pets.
func (s *Service) GetPet(ctx context.Context, p requestcontext.Principal, id int64) (*models.Pet, error) {
	pet, err := s.FindPet(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Is(domain.RoleOwner) && pet.OwnerID != p.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "you do not own this pet")
	}
	return pet, nil
}

// FindPet returns a pet without any access check.
func (s *Service) FindPet(ctx context.Context, id int64) (*models.Pet, error) {
	pet, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pet not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pet")
	}
	return pet, nil
}

// FindByPublicID returns a pet by its public identifier.
func (s *Service) FindByPublicID(ctx context.Context, publicID string) (*models.Pet, error) {
	pet, err := s.store.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pet not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pet")
	}
	return pet, nil
}

func (s *Service) OwnershipHistory(ctx context.Context, p requestcontext.Principal, id int64) ([]*models.OwnershipRecord, error) {
	if _, err := s.GetPet(ctx, p, id); err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership history")
	}
	return history, nil
}

// ResolvePet returns the ledger id of pet for its current mirrored fields,
// linking a reconciled id back onto the row.
func (s *Service) ResolvePet(ctx context.Context, pet *models.Pet) (identity.Resolution, error) {
	return s.resolver.Resolve(ctx, identity.Subject{
		CachedLedgerID: pet.LedgerID,
		Fingerprint:    pet.CurrentFingerprint(),
		Link: func(ctx context.Context, r identity.Resolution) error {
			if err := s.store.LinkLedger(ctx, pet.ID, r.LedgerID, r.Fingerprint, r.TxRef); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link ledger id")
			}
			pet.LedgerID = &r.LedgerID
			pet.Fingerprint = r.Fingerprint
			if r.TxRef != "" {
				pet.TxRef = r.TxRef
			}
			return nil
		},
	})
}

// ApplyCorrection persists the corrected fields and sync state of pet over
// the revision the correction was computed from. It is called inside the
// correction review transaction.
func (s *Service) ApplyCorrection(ctx context.Context, pet *models.Pet, prev models.Revision) error {
	pet.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateDetails(ctx, pet, prev); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "pet not found")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "pet changed while the correction was under review, retry the review")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pet")
	}
	return nil
}

func (s *Service) CountPets(ctx context.Context) (int64, error) {
	return s.store.CountPets(ctx)
}

func (s *Service) CountCompletedTransfers(ctx context.Context) (int64, error) {
	return s.store.CountCompletedTransfers(ctx)
}

func (s *Service) notify(ctx context.Context, userID int64, title, message string) {
	if s.notifier != nil {
		s.notifier.Send(ctx, userID, title, message)
	}
}

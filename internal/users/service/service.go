package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/bcrypt"

	"petidentity/internal/platform/metrics"
	"petidentity/internal/users/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/email"
	"petidentity/pkg/platform/sentinel"
	"petidentity/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role *domain.Role) ([]*models.User, error)
	// BindWallet sets the wallet when none is bound; it returns
	// sentinel.ErrConflict when a different wallet is already bound.
	BindWallet(ctx context.Context, id int64, address string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, role domain.Role) (string, error)
	TTL() time.Duration
}

// PetCounter and RecordCounter feed the admin stats.
type PetCounter interface {
	CountPets(ctx context.Context) (int64, error)
	CountCompletedTransfers(ctx context.Context) (int64, error)
}

type RecordCounter interface {
	CountRecords(ctx context.Context) (int64, error)
}

const invalidCredentials = "invalid email or password"

// Service handles accounts, sign-in and admin views over users.
type Service struct {
	store      Store
	tokens     TokenIssuer
	pets       PetCounter
	records    RecordCounter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	bcryptCost int
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

// WithStats enables the admin Stats view.
func WithStats(pets PetCounter, records RecordCounter) Option {
	return func(s *Service) {
		s.pets = pets
		s.records = records
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(store Store, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{
		store:      store,
		tokens:     tokens,
		logger:     slog.Default(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account. Only OWNER and CLINIC may self-register;
// the role defaults to OWNER.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()

	role := domain.RoleOwner
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	if !role.CanSelfRegister() {
		return nil, dErrors.New(dErrors.CodeValidation, "role cannot be self-registered: "+string(role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	user, err := s.store.FindByEmail(ctx, email.Normalize(req.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.LoginResult{AccessToken: token, ExpiresIn: s.tokens.TTL(), User: user}, nil
}

// FindByID returns a user or NotFound.
func (s *Service) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// FindByEmail returns a user or NotFound.
func (s *Service) FindByEmail(ctx context.Context, address string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, email.Normalize(address))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// BindWallet stores the checksummed wallet address for userID. Re-binding the
// same address is a no-op.
func (s *Service) BindWallet(ctx context.Context, userID int64, address string) (*models.User, error) {
	if !common.IsHexAddress(address) {
		return nil, dErrors.New(dErrors.CodeValidation, "walletAddress must be a 20-byte hex address")
	}
	checksummed := common.HexToAddress(address).Hex()

	if err := s.store.BindWallet(ctx, userID, checksummed); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a different wallet is already bound to this account")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind wallet")
	}
	return s.FindByID(ctx, userID)
}

// ListUsers returns users, optionally restricted to one role.
func (s *Service) ListUsers(ctx context.Context, role string) ([]*models.User, error) {
	var filter *domain.Role
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}
	users, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// Stats summarizes pets, medical records and completed transfers.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	if s.pets == nil || s.records == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "stats are not configured")
	}
	pets, err := s.pets.CountPets(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pets")
	}
	records, err := s.records.CountRecords(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count medical records")
	}
	transfers, err := s.pets.CountCompletedTransfers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count transfers")
	}
	return &models.Stats{TotalPets: pets, TotalMedicalRecords: records, TotalTransfers: transfers}, nil
}

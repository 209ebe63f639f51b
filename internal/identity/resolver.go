// Package identity resolves the authoritative ledger id for a local row,
// registering on the ledger only when no record with the row's fingerprint
// exists yet.
package identity

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"petidentity/internal/fingerprint"
	"petidentity/internal/ledger"
	dErrors "petidentity/pkg/domain-errors"
)

// ErrNotRegistered is returned when a row has no resolvable ledger id and the
// network does not allow implicit registration.
var ErrNotRegistered = dErrors.New(dErrors.CodeBadRequest, "pet is not registered on the ledger")

// Ledger is the subset of the ledger client the resolver drives.
type Ledger interface {
	ReadByID(ctx context.Context, ledgerID int64) (ledger.PetRecord, error)
	LookupByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (int64, error)
	Register(ctx context.Context, fp fingerprint.Fingerprint) (ledger.Registration, error)
}

// RecordReader answers readById, optionally through a cache.
type RecordReader interface {
	ReadByID(ctx context.Context, ledgerID int64) (ledger.PetRecord, error)
}

// AccessEnsurer grants the write role before registrations.
type AccessEnsurer interface {
	EnsureWriteAccess(ctx context.Context) error
	IsTestNetwork() bool
}

// Outcome describes how a resolution was reached.
type Outcome string

const (
	OutcomeCached       Outcome = "cached"
	OutcomeDiscovered   Outcome = "discovered"
	OutcomeRegistered   Outcome = "registered"
	OutcomeRaceAbsorbed Outcome = "race_absorbed"
)

// Resolution is the ledger identity of a row.
type Resolution struct {
	LedgerID    int64
	Fingerprint fingerprint.Fingerprint
	// TxRef is the registration transaction when the fingerprint was
	// registered by this round trip. Callers that joined another caller's
	// round trip see the same TxRef under OutcomeRaceAbsorbed.
	TxRef   string
	Outcome Outcome
}

// LinkFunc persists a resolution onto the local row.
type LinkFunc func(ctx context.Context, r Resolution) error

// Subject is a local row awaiting resolution.
type Subject struct {
	CachedLedgerID *int64
	// Fingerprint of the row's current mirrored fields.
	Fingerprint fingerprint.Fingerprint
	// Link is called when the resolution differs from the cached id.
	Link LinkFunc
}

type Resolver struct {
	ledger  Ledger
	reader  RecordReader
	access  AccessEnsurer
	logger  *slog.Logger
	metrics *Metrics
	group   singleflight.Group
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithRecordReader serves cached-id validation from reader instead of the
// ledger, typically a Redis read-through cache.
func WithRecordReader(reader RecordReader) Option {
	return func(r *Resolver) {
		if reader != nil {
			r.reader = reader
		}
	}
}

func New(l Ledger, access AccessEnsurer, opts ...Option) (*Resolver, error) {
	if l == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "ledger is required")
	}
	if access == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "access provisioner is required")
	}
	r := &Resolver{
		ledger: l,
		reader: l,
		access: access,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns a valid ledger id for s. A cached id that still resolves is
// returned without any write. Otherwise, on allow-listed networks only, the
// fingerprint is looked up and registered if absent, and the result linked
// onto the row.
func (r *Resolver) Resolve(ctx context.Context, s Subject) (Resolution, error) {
	if s.CachedLedgerID != nil {
		rec, err := r.reader.ReadByID(ctx, *s.CachedLedgerID)
		switch {
		case err == nil:
			r.metrics.IncOutcome(string(OutcomeCached))
			return Resolution{LedgerID: rec.ID, Fingerprint: s.Fingerprint, Outcome: OutcomeCached}, nil
		case !ledger.IsKind(err, ledger.KindNotFound):
			r.metrics.IncOutcome("failed")
			return Resolution{}, ledger.ToDomainError(err)
		}
		r.logger.WarnContext(ctx, "cached ledger id no longer resolves",
			"ledger_id", *s.CachedLedgerID,
			"fingerprint", s.Fingerprint.String(),
		)
	}

	if !r.access.IsTestNetwork() {
		r.metrics.IncOutcome("refused")
		return Resolution{}, ErrNotRegistered
	}

	res, err := r.ResolveFingerprint(ctx, s.Fingerprint)
	if err != nil {
		return Resolution{}, err
	}
	if s.Link != nil {
		if err := s.Link(ctx, res); err != nil {
			return Resolution{}, err
		}
	}
	if s.CachedLedgerID != nil && *s.CachedLedgerID != res.LedgerID {
		r.logger.WarnContext(ctx, "ledger id re-linked",
			"previous_ledger_id", *s.CachedLedgerID,
			"ledger_id", res.LedgerID,
		)
	}
	return res, nil
}

// ResolveFingerprint returns the ledger id registered for fp, registering it
// when no record exists. Concurrent calls for the same fingerprint share one
// ledger round trip.
func (r *Resolver) ResolveFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (Resolution, error) {
	if fp.IsZero() {
		return Resolution{}, dErrors.New(dErrors.CodeInternal, "fingerprint is required")
	}
	// The shared call outlives any single caller's cancellation so a write in
	// flight is never abandoned halfway.
	shared := context.WithoutCancel(ctx)
	leader := false
	v, err, _ := r.group.Do(fp.String(), func() (any, error) {
		leader = true
		return r.lookupOrRegister(shared, fp)
	})
	if err != nil {
		r.metrics.IncOutcome("failed")
		return Resolution{}, err
	}
	res := v.(Resolution)
	if !leader {
		res = followerView(res)
	}
	r.metrics.IncOutcome(string(res.Outcome))
	return res, nil
}

// followerView is the resolution as seen by a caller that joined another
// caller's round trip: a registration it did not perform is an absorbed race.
// TxRef is kept so whichever caller stores the row records the transaction.
func followerView(res Resolution) Resolution {
	if res.Outcome == OutcomeRegistered {
		res.Outcome = OutcomeRaceAbsorbed
	}
	return res
}

func (r *Resolver) lookupOrRegister(ctx context.Context, fp fingerprint.Fingerprint) (Resolution, error) {
	if id, found, err := r.lookup(ctx, fp); err != nil {
		return Resolution{}, err
	} else if found {
		return Resolution{LedgerID: id, Fingerprint: fp, Outcome: OutcomeDiscovered}, nil
	}

	if err := r.access.EnsureWriteAccess(ctx); err != nil {
		return Resolution{}, err
	}

	reg, regErr := r.ledger.Register(ctx, fp)
	if regErr == nil {
		r.logger.InfoContext(ctx, "registered on ledger",
			"ledger_id", reg.LedgerID,
			"fingerprint", fp.String(),
			"tx_hash", reg.TxRef,
		)
		return Resolution{LedgerID: reg.LedgerID, Fingerprint: fp, TxRef: reg.TxRef, Outcome: OutcomeRegistered}, nil
	}
	if !ledger.IsKind(regErr, ledger.KindDuplicateFingerprint) {
		return Resolution{}, ledger.ToDomainError(regErr)
	}

	// Lost a race against another writer between lookup and register.
	id, found, err := r.lookup(ctx, fp)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		r.logger.ErrorContext(ctx, "duplicate fingerprint rejected but not found on lookup",
			"fingerprint", fp.String(),
			"error", regErr,
		)
		return Resolution{}, ledger.ToDomainError(regErr)
	}
	return Resolution{LedgerID: id, Fingerprint: fp, Outcome: OutcomeRaceAbsorbed}, nil
}

func (r *Resolver) lookup(ctx context.Context, fp fingerprint.Fingerprint) (int64, bool, error) {
	id, err := r.ledger.LookupByFingerprint(ctx, fp)
	if err == nil {
		return id, true, nil
	}
	if ledger.IsKind(err, ledger.KindNotFound) {
		return 0, false, nil
	}
	return 0, false, ledger.ToDomainError(err)
}

package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"petidentity/internal/fingerprint"
	"petidentity/internal/ledger/access"
	"petidentity/internal/ledger/ledgertest"
	dErrors "petidentity/pkg/domain-errors"
)

var testChains = []int64{1337, 31337}

type ResolverSuite struct {
	suite.Suite
	ledger   *ledgertest.Ledger
	resolver *Resolver
	ctx      context.Context
	fp       fingerprint.Fingerprint
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = ledgertest.New(31337)
	s.resolver = s.newResolver(s.ledger)
	s.fp = fingerprint.Pet(fingerprint.PetSnapshot{
		PublicID:     "PET-1A2B3C4D",
		Name:         "Rex",
		Species:      "dog",
		Breed:        "mix",
		BirthDate:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Color:        "brown",
		PhysicalMark: "scar-left-ear",
	})
}

func (s *ResolverSuite) newResolver(l *ledgertest.Ledger) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prov, err := access.New(l, testChains, access.WithLogger(logger))
	s.Require().NoError(err)
	r, err := New(l, prov, WithLogger(logger))
	s.Require().NoError(err)
	return r
}

func ptr(v int64) *int64 { return &v }

func (s *ResolverSuite) TestNew() {
	s.Run("nil ledger returns error", func() {
		_, err := New(nil, nil)
		s.ErrorContains(err, "ledger is required")
	})
}

func (s *ResolverSuite) TestCachedIDFastPath() {
	id := s.ledger.Seed(s.fp)
	linked := false

	res, err := s.resolver.Resolve(s.ctx, Subject{
		CachedLedgerID: ptr(id),
		Fingerprint:    s.fp,
		Link:           func(context.Context, Resolution) error { linked = true; return nil },
	})

	s.Require().NoError(err)
	s.Equal(id, res.LedgerID)
	s.Equal(OutcomeCached, res.Outcome)
	s.False(linked, "a valid cached id is returned unchanged")
	s.Zero(s.ledger.Calls(ledgertest.OpLookup))
	s.Zero(s.ledger.Calls(ledgertest.OpRegister))
}

func (s *ResolverSuite) TestStaleCachedIDIsReconciled() {
	id := s.ledger.Seed(s.fp)
	var linked Resolution

	res, err := s.resolver.Resolve(s.ctx, Subject{
		CachedLedgerID: ptr(id + 100),
		Fingerprint:    s.fp,
		Link:           func(_ context.Context, r Resolution) error { linked = r; return nil },
	})

	s.Require().NoError(err)
	s.Equal(id, res.LedgerID)
	s.Equal(OutcomeDiscovered, res.Outcome)
	s.Equal(res, linked)
	s.Zero(s.ledger.Calls(ledgertest.OpRegister))
}

func (s *ResolverSuite) TestAbsentIDRegisters() {
	var linked Resolution

	res, err := s.resolver.Resolve(s.ctx, Subject{
		Fingerprint: s.fp,
		Link:        func(_ context.Context, r Resolution) error { linked = r; return nil },
	})

	s.Require().NoError(err)
	s.Equal(OutcomeRegistered, res.Outcome)
	s.NotEmpty(res.TxRef)
	s.Equal(s.fp, res.Fingerprint)
	s.Equal(res, linked)
	s.Equal(1, s.ledger.PetCount())
	s.Equal(1, s.ledger.Calls(ledgertest.OpGrant), "write role provisioned before the first registration")
}

func (s *ResolverSuite) TestProductionNetworkRefusesImplicitRegistration() {
	l := ledgertest.New(1)
	r := s.newResolver(l)

	_, err := r.Resolve(s.ctx, Subject{CachedLedgerID: ptr(5), Fingerprint: s.fp})

	s.Require().Error(err)
	s.True(errors.Is(err, ErrNotRegistered))
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	s.Zero(l.Calls(ledgertest.OpRegister))
}

func (s *ResolverSuite) TestUnavailableLedgerOnCachedRead() {
	s.ledger.Fail(ledgertest.OpRead, errors.New("dial tcp 127.0.0.1:8545: connection refused"))

	_, err := s.resolver.Resolve(s.ctx, Subject{CachedLedgerID: ptr(1), Fingerprint: s.fp})

	s.Equal(dErrors.CodeLedgerUnavailable, dErrors.CodeOf(err))
	s.Zero(s.ledger.Calls(ledgertest.OpLookup), "uncertain reads never trigger reconciliation")
}

func (s *ResolverSuite) TestDuplicateRaceIsAbsorbed() {
	var once sync.Once
	s.ledger.BeforeRegister = func(fp fingerprint.Fingerprint) {
		once.Do(func() { s.ledger.Seed(fp) })
	}

	res, err := s.resolver.ResolveFingerprint(s.ctx, s.fp)

	s.Require().NoError(err)
	s.Equal(OutcomeRaceAbsorbed, res.Outcome)
	s.Equal(1, s.ledger.PetCount())
	s.Equal(2, s.ledger.Calls(ledgertest.OpLookup))
}

func (s *ResolverSuite) TestDuplicateWithoutRecordSurfacesOriginalError() {
	s.ledger.Fail(ledgertest.OpRegister, errors.New("execution reverted: DataHash already used"))

	_, err := s.resolver.ResolveFingerprint(s.ctx, s.fp)

	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	s.Equal(2, s.ledger.Calls(ledgertest.OpLookup), "lookup retried exactly once")
}

func (s *ResolverSuite) TestRegistrationFailurePropagates() {
	s.ledger.Fail(ledgertest.OpRegister, context.DeadlineExceeded)

	_, err := s.resolver.ResolveFingerprint(s.ctx, s.fp)

	s.Equal(dErrors.CodeLedgerUnavailable, dErrors.CodeOf(err))
	s.Zero(s.ledger.PetCount())
}

func (s *ResolverSuite) TestConcurrentResolutionRegistersOnce() {
	const n = 24
	s.ledger.WriteLatency = 20 * time.Millisecond

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.resolver.Resolve(s.ctx, Subject{
				Fingerprint: s.fp,
				Link: func(_ context.Context, r Resolution) error {
					ids[i] = r.LedgerID
					return nil
				},
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Equal(1, s.ledger.Calls(ledgertest.OpRegister))
	s.Equal(1, s.ledger.PetCount())
	for _, id := range ids {
		s.Equal(ids[0], id)
		s.NotZero(id)
	}
}

func (s *ResolverSuite) TestOnlyTheRegisteringCallerReportsRegistration() {
	const n = 12
	s.ledger.WriteLatency = 20 * time.Millisecond

	results := make([]Resolution, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.resolver.ResolveFingerprint(s.ctx, s.fp)
			s.NoError(err)
			results[i] = res
		}()
	}
	wg.Wait()

	registered := 0
	for _, res := range results {
		switch res.Outcome {
		case OutcomeRegistered:
			registered++
			s.NotEmpty(res.TxRef)
		case OutcomeRaceAbsorbed:
			s.NotEmpty(res.TxRef, "joined callers still see the registration tx")
		case OutcomeDiscovered:
			s.Empty(res.TxRef)
		default:
			s.Failf("unexpected outcome", "%s", res.Outcome)
		}
	}
	s.Equal(1, registered)
	s.Equal(1, s.ledger.Calls(ledgertest.OpRegister))
}

func TestFollowerView(t *testing.T) {
	res := followerView(Resolution{LedgerID: 4, TxRef: "0xab", Outcome: OutcomeRegistered})
	assert.Equal(t, OutcomeRaceAbsorbed, res.Outcome)
	assert.Equal(t, "0xab", res.TxRef)
	assert.Equal(t, int64(4), res.LedgerID)

	assert.Equal(t, OutcomeDiscovered, followerView(Resolution{Outcome: OutcomeDiscovered}).Outcome)
}

func (s *ResolverSuite) TestConcurrentResolversConverge() {
	// Two resolvers stand in for two backend processes sharing one ledger.
	s.ledger.WriteLatency = 20 * time.Millisecond
	resolvers := []*Resolver{s.resolver, s.newResolver(s.ledger)}

	const n = 16
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := resolvers[i%2].ResolveFingerprint(s.ctx, s.fp)
			s.NoError(err)
			ids[i] = res.LedgerID
		}()
	}
	wg.Wait()

	s.Equal(1, s.ledger.PetCount())
	for _, id := range ids {
		s.Equal(ids[0], id)
	}
}

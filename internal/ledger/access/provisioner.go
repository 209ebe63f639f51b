// Package access guarantees the backend signer holds the ledger write role
// before privileged writes are attempted.
package access

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"petidentity/internal/ledger"
	dErrors "petidentity/pkg/domain-errors"
)

// RoleLedger is the subset of the ledger client used for role management.
type RoleLedger interface {
	ChainID() int64
	SignerAddress() common.Address
	HasWriteRole(ctx context.Context, addr common.Address) (bool, error)
	Administrator(ctx context.Context) (common.Address, error)
	GrantWriteRole(ctx context.Context, grantee common.Address) (string, error)
	GrantWriteRoleAs(ctx context.Context, admin, grantee common.Address) (string, error)
}

// Provisioner checks and, on allow-listed chains only, grants the write role
// to the backend signer. The provisioned flag only ever flips to true.
type Provisioner struct {
	ledger      RoleLedger
	allowed     []int64
	logger      *slog.Logger
	metrics     *Metrics
	mu          sync.Mutex
	provisioned atomic.Bool
}

type Option func(*Provisioner)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Provisioner) {
		p.metrics = m
	}
}

// New builds a Provisioner. allowedChainIDs lists the networks where
// auto-provisioning is permitted; it is never inferred.
func New(l RoleLedger, allowedChainIDs []int64, opts ...Option) (*Provisioner, error) {
	if l == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "role ledger is required")
	}
	p := &Provisioner{
		ledger:  l,
		allowed: slices.Clone(allowedChainIDs),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IsTestNetwork reports whether the connected chain is on the allow-list.
func (p *Provisioner) IsTestNetwork() bool {
	return slices.Contains(p.allowed, p.ledger.ChainID())
}

// EnsureWriteAccess returns nil once the signer holds the write role. On
// networks outside the allow-list it does nothing.
func (p *Provisioner) EnsureWriteAccess(ctx context.Context) error {
	if p.provisioned.Load() {
		return nil
	}
	if !p.IsTestNetwork() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.provisioned.Load() {
		return nil
	}

	signer := p.ledger.SignerAddress()
	has, err := p.ledger.HasWriteRole(ctx, signer)
	if err != nil {
		return ledger.ToDomainError(err)
	}
	if has {
		p.provisioned.Store(true)
		return nil
	}

	admin, err := p.ledger.Administrator(ctx)
	if err != nil {
		return ledger.ToDomainError(err)
	}

	var txRef string
	if admin == signer {
		txRef, err = p.ledger.GrantWriteRole(ctx, signer)
	} else {
		txRef, err = p.ledger.GrantWriteRoleAs(ctx, admin, signer)
	}
	if err != nil {
		p.metrics.IncGrant("failed")
		p.logger.ErrorContext(ctx, "ledger write role grant failed",
			"chain_id", p.ledger.ChainID(),
			"signer", signer.Hex(),
			"admin", admin.Hex(),
			"error", err,
		)
		if ledger.IsKind(err, ledger.KindAccessDenied) {
			return dErrors.Wrap(err, dErrors.CodeForbidden, "ledger write role is missing and cannot be provisioned")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger write role grant did not finalize")
	}

	p.metrics.IncGrant("granted")
	p.logger.InfoContext(ctx, "ledger write role granted",
		"chain_id", p.ledger.ChainID(),
		"signer", signer.Hex(),
		"tx", txRef,
	)
	p.provisioned.Store(true)
	return nil
}

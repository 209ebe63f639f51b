// Package ledger is the only component that talks to the pet identity
// registry contract. It submits signed writes, waits for their receipts,
// decodes emitted events and classifies every remote failure.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"petidentity/internal/fingerprint"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultCallTimeout  = 60 * time.Second
)

// Verdict is the review outcome recorded for a dependent record.
type Verdict uint8

const (
	VerdictVerified Verdict = 1
	VerdictRejected Verdict = 2
)

// Backend is the node connection the client needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// RawCaller issues raw JSON-RPC calls. *rpc.Client satisfies it. It is only
// needed to submit transactions from node-managed accounts.
type RawCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Registration is the outcome of a write that creates a ledger record.
type Registration struct {
	LedgerID int64
	TxRef    string
}

// PetRecord is the on-ledger state of a registered pet.
type PetRecord struct {
	ID          int64
	Fingerprint fingerprint.Fingerprint
	Registrar   common.Address
	UpdatedAt   time.Time
}

// Config holds the connection settings for Dial.
type Config struct {
	RPCURL          string
	PrivateKeyHex   string
	ContractAddress string
	PollInterval    time.Duration
	CallTimeout     time.Duration
}

// Client is a typed binding to the registry contract, signing with one key.
type Client struct {
	backend  Backend
	raw      RawCaller
	contract *bind.BoundContract
	address  common.Address
	auth     *bind.TransactOpts
	signer   common.Address
	chainID  int64

	pollInterval time.Duration
	callTimeout  time.Duration

	// submitMu orders submissions from the signer so pending nonces are
	// assigned one at a time. Receipt waits happen outside it.
	submitMu sync.Mutex

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithRawCaller enables submitting transactions from node-managed accounts.
func WithRawCaller(raw RawCaller) Option {
	return func(c *Client) {
		c.raw = raw
	}
}

// Dial connects to cfg.RPCURL and binds the registry at cfg.ContractAddress.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(cfg.PrivateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("parse ledger private key: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	opts = append([]Option{
		WithRawCaller(rpcClient),
		WithPollInterval(cfg.PollInterval),
		WithCallTimeout(cfg.CallTimeout),
	}, opts...)
	return New(ctx, ethclient.NewClient(rpcClient), key, common.HexToAddress(cfg.ContractAddress), opts...)
}

// New binds the registry at address over backend, signing with key. The
// chain id is resolved once here and reused for every signature.
func New(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, address common.Address, opts ...Option) (*Client, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, Classify("chainId", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build ledger transactor: %w", err)
	}
	if !chainID.IsInt64() {
		return nil, fmt.Errorf("chain id %s out of range", chainID)
	}
	c := &Client{
		backend:      backend,
		contract:     bind.NewBoundContract(address, RegistryABI, backend, backend, backend),
		address:      address,
		auth:         auth,
		signer:       auth.From,
		chainID:      chainID.Int64(),
		pollInterval: defaultPollInterval,
		callTimeout:  defaultCallTimeout,
		tracer:       otel.Tracer("petidentity/internal/ledger"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// ChainID is the network identifier the client signs for.
func (c *Client) ChainID() int64 {
	return c.chainID
}

// SignerAddress is the backend's signing identity.
func (c *Client) SignerAddress() common.Address {
	return c.signer
}

// -----------------------------------------------------------------------------
// Pet records
// -----------------------------------------------------------------------------

// Register creates a ledger record keyed by fp and returns the id assigned by
// the PetRegistered event.
func (c *Client) Register(ctx context.Context, fp fingerprint.Fingerprint) (Registration, error) {
	var out Registration
	err := c.observe(ctx, methodRegisterPet, func(ctx context.Context, span trace.Span) error {
		receipt, err := c.transact(ctx, methodRegisterPet, fp.Hash())
		if err != nil {
			return err
		}
		id, err := registeredPetID(c.address, receipt)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int64("ledger.id", id))
		out = Registration{LedgerID: id, TxRef: receipt.TxHash.Hex()}
		return nil
	})
	return out, err
}

// UpdateMirroredFields replaces the fingerprint stored for ledgerID.
func (c *Client) UpdateMirroredFields(ctx context.Context, ledgerID int64, fp fingerprint.Fingerprint) (string, error) {
	var txRef string
	err := c.observe(ctx, methodUpdatePetBasicData, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int64("ledger.id", ledgerID))
		receipt, err := c.transact(ctx, methodUpdatePetBasicData, big.NewInt(ledgerID), fp.Hash())
		if err != nil {
			return err
		}
		txRef = receipt.TxHash.Hex()
		return nil
	})
	return txRef, err
}

// LookupByFingerprint returns the ledger id registered for fp.
func (c *Client) LookupByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (int64, error) {
	var id int64
	err := c.observe(ctx, methodGetPetIDByHash, func(ctx context.Context, span trace.Span) error {
		var out []any
		if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodGetPetIDByHash, fp.Hash()); err != nil {
			return Classify(methodGetPetIDByHash, err)
		}
		v, err := bigAt(out, 0)
		if err != nil {
			return newError(KindUnclassified, methodGetPetIDByHash, "unexpected return value", err)
		}
		// Unset mappings read as zero on contracts that do not revert.
		if v.Sign() == 0 {
			return newError(KindNotFound, methodGetPetIDByHash, "pet not found", nil)
		}
		if !v.IsInt64() {
			return newError(KindUnclassified, methodGetPetIDByHash, "ledger id out of range", nil)
		}
		id = v.Int64()
		span.SetAttributes(attribute.Int64("ledger.id", id))
		return nil
	})
	return id, err
}

// ReadByID returns the ledger state of a registered pet.
func (c *Client) ReadByID(ctx context.Context, ledgerID int64) (PetRecord, error) {
	var rec PetRecord
	err := c.observe(ctx, methodGetPet, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int64("ledger.id", ledgerID))
		var out []any
		if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodGetPet, big.NewInt(ledgerID)); err != nil {
			return Classify(methodGetPet, err)
		}
		if len(out) != 4 {
			return newError(KindUnclassified, methodGetPet, fmt.Sprintf("expected 4 return values, got %d", len(out)), nil)
		}
		id, err := bigAt(out, 0)
		if err != nil {
			return newError(KindUnclassified, methodGetPet, "unexpected return value", err)
		}
		if id.Sign() == 0 {
			return newError(KindNotFound, methodGetPet, "pet does not exist", nil)
		}
		hash, ok := out[1].([32]byte)
		if !ok {
			return newError(KindUnclassified, methodGetPet, "unexpected dataHash type", nil)
		}
		registrar, ok := out[2].(common.Address)
		if !ok {
			return newError(KindUnclassified, methodGetPet, "unexpected registrar type", nil)
		}
		updatedAt, err := bigAt(out, 3)
		if err != nil {
			return newError(KindUnclassified, methodGetPet, "unexpected return value", err)
		}
		rec = PetRecord{
			ID:          id.Int64(),
			Fingerprint: fingerprint.FromHash(common.Hash(hash)),
			Registrar:   registrar,
			UpdatedAt:   time.Unix(updatedAt.Int64(), 0).UTC(),
		}
		return nil
	})
	return rec, err
}

// -----------------------------------------------------------------------------
// Dependent records
// -----------------------------------------------------------------------------

// AppendDependentRecord registers a vaccination entry under parentID.
func (c *Client) AppendDependentRecord(ctx context.Context, parentID int64, fp fingerprint.Fingerprint) (Registration, error) {
	var out Registration
	err := c.observe(ctx, methodAddMedicalRecord, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int64("ledger.id", parentID))
		receipt, err := c.transact(ctx, methodAddMedicalRecord, big.NewInt(parentID), fp.Hash())
		if err != nil {
			return err
		}
		id, err := addedRecordID(c.address, receipt)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int64("ledger.record_id", id))
		out = Registration{LedgerID: id, TxRef: receipt.TxHash.Hex()}
		return nil
	})
	return out, err
}

// ReviewDependentRecord records verdict for recordID under parentID.
func (c *Client) ReviewDependentRecord(ctx context.Context, parentID, recordID int64, verdict Verdict) (string, error) {
	var txRef string
	err := c.observe(ctx, methodVerifyMedicalRecord, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(
			attribute.Int64("ledger.id", parentID),
			attribute.Int64("ledger.record_id", recordID),
			attribute.Int("ledger.verdict", int(verdict)),
		)
		receipt, err := c.transact(ctx, methodVerifyMedicalRecord, big.NewInt(parentID), big.NewInt(recordID), uint8(verdict))
		if err != nil {
			return err
		}
		txRef = receipt.TxHash.Hex()
		return nil
	})
	return txRef, err
}

// -----------------------------------------------------------------------------
// Write role administration
// -----------------------------------------------------------------------------

// HasWriteRole reports whether addr holds the clinic role.
func (c *Client) HasWriteRole(ctx context.Context, addr common.Address) (bool, error) {
	var granted bool
	err := c.observe(ctx, methodClinics, func(ctx context.Context, _ trace.Span) error {
		var out []any
		if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodClinics, addr); err != nil {
			return Classify(methodClinics, err)
		}
		if len(out) != 1 {
			return newError(KindUnclassified, methodClinics, "unexpected return value", nil)
		}
		v, ok := out[0].(bool)
		if !ok {
			return newError(KindUnclassified, methodClinics, "unexpected return type", nil)
		}
		granted = v
		return nil
	})
	return granted, err
}

// Administrator returns the contract's administrative identity.
func (c *Client) Administrator(ctx context.Context) (common.Address, error) {
	var admin common.Address
	err := c.observe(ctx, methodContractOwner, func(ctx context.Context, _ trace.Span) error {
		var out []any
		if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodContractOwner); err != nil {
			return Classify(methodContractOwner, err)
		}
		if len(out) != 1 {
			return newError(KindUnclassified, methodContractOwner, "unexpected return value", nil)
		}
		v, ok := out[0].(common.Address)
		if !ok {
			return newError(KindUnclassified, methodContractOwner, "unexpected return type", nil)
		}
		admin = v
		return nil
	})
	return admin, err
}

// GrantWriteRole grants the clinic role to grantee, signed by the client's key.
func (c *Client) GrantWriteRole(ctx context.Context, grantee common.Address) (string, error) {
	var txRef string
	err := c.observe(ctx, methodAddClinic, func(ctx context.Context, _ trace.Span) error {
		receipt, err := c.transact(ctx, methodAddClinic, grantee)
		if err != nil {
			return err
		}
		txRef = receipt.TxHash.Hex()
		return nil
	})
	return txRef, err
}

// GrantWriteRoleAs grants the clinic role to grantee from a node-managed
// account, as development nodes expose for their prefunded accounts.
func (c *Client) GrantWriteRoleAs(ctx context.Context, admin, grantee common.Address) (string, error) {
	var txRef string
	err := c.observe(ctx, methodAddClinic, func(ctx context.Context, _ trace.Span) error {
		if c.raw == nil {
			return newError(KindAccessDenied, methodAddClinic, "no proxy signer available for "+admin.Hex(), nil)
		}
		data, err := RegistryABI.Pack(methodAddClinic, grantee)
		if err != nil {
			return fmt.Errorf("pack %s: %w", methodAddClinic, err)
		}
		call := map[string]any{
			"from": admin,
			"to":   c.address,
			"data": hexutil.Bytes(data),
		}
		var hash common.Hash
		if err := c.raw.CallContext(ctx, &hash, "eth_sendTransaction", call); err != nil {
			return Classify(methodAddClinic, err)
		}
		receipt, err := c.waitMined(ctx, methodAddClinic, hash)
		if err != nil {
			return err
		}
		txRef = receipt.TxHash.Hex()
		return nil
	})
	return txRef, err
}

// -----------------------------------------------------------------------------
// Plumbing
// -----------------------------------------------------------------------------

func (c *Client) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	opts := *c.auth
	opts.Context = ctx

	c.submitMu.Lock()
	tx, err := c.contract.Transact(&opts, method, args...)
	c.submitMu.Unlock()
	if err != nil {
		return nil, Classify(method, err)
	}
	c.logger.DebugContext(ctx, "ledger transaction submitted",
		"method", method,
		"tx_hash", tx.Hash().Hex(),
	)
	return c.waitMined(ctx, method, tx.Hash())
}

// waitMined polls for the receipt of hash until it is available or ctx ends.
func (c *Client) waitMined(ctx context.Context, method string, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, newError(KindUnclassified, method, "transaction reverted: "+hash.Hex(), nil)
			}
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, Classify(method, err)
		}
		select {
		case <-ctx.Done():
			return nil, newError(KindUnclassified, method, "timed out waiting for receipt of "+hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// observe runs fn under a span, the call timeout and the call metrics.
func (c *Client) observe(ctx context.Context, op string, fn func(ctx context.Context, span trace.Span) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("ledger.op", op),
		attribute.Int64("ledger.chain_id", c.chainID),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx, span)
	err = Classify(op, err)
	c.metrics.ObserveCall(op, outcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	return err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}

func bigAt(values []any, i int) (*big.Int, error) {
	if i >= len(values) {
		return nil, fmt.Errorf("missing return value %d", i)
	}
	v, ok := values[i].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("return value %d is %T, want *big.Int", i, values[i])
	}
	return v, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// Package ledgertest provides an in-memory registry that behaves like the
// pet identity contract, for resolver and workflow tests.
package ledgertest

import (
	"context"
	"errors"
	"math/big"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"petidentity/internal/fingerprint"
	"petidentity/internal/ledger"
)

// Operation names used for call counting and failure injection.
const (
	OpRegister      = "registerPet"
	OpUpdate        = "updatePetBasicData"
	OpLookup        = "getPetIdByHash"
	OpRead          = "getPet"
	OpAppend        = "addMedicalRecord"
	OpReview        = "verifyMedicalRecord"
	OpHasWriteRole  = "clinics"
	OpAdministrator = "contractOwner"
	OpGrant         = "addClinic"
)

type pet struct {
	fp        fingerprint.Fingerprint
	updatedAt time.Time
}

type record struct {
	petID   int64
	fp      fingerprint.Fingerprint
	verdict ledger.Verdict
}

// Ledger is a concurrency-safe fake of the registry contract. Reverts are
// produced as the node would phrase them and classified by ledger.Classify,
// so callers see the same error kinds as against a real node.
type Ledger struct {
	mu sync.Mutex

	chainID int64
	signer  common.Address
	admin   common.Address
	clinics map[common.Address]bool

	pets    map[int64]*pet
	byHash  map[fingerprint.Fingerprint]int64
	records map[int64]*record
	nextPet int64
	nextRec int64
	nextTx  int64

	calls    map[string]int
	failures map[string]error

	// WriteLatency delays every write before it is applied, widening race
	// windows in concurrency tests.
	WriteLatency time.Duration
	// BeforeRegister runs before a registration is applied, outside the lock.
	BeforeRegister func(fp fingerprint.Fingerprint)
}

// New returns an empty ledger on chainID where signer is the backend identity
// and also the contract administrator.
func New(chainID int64) *Ledger {
	signer := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	return &Ledger{
		chainID:  chainID,
		signer:   signer,
		admin:    signer,
		clinics:  map[common.Address]bool{},
		pets:     map[int64]*pet{},
		byHash:   map[fingerprint.Fingerprint]int64{},
		records:  map[int64]*record{},
		calls:    map[string]int{},
		failures: map[string]error{},
	}
}

// SetAdministrator makes admin, rather than the signer, the contract owner.
func (l *Ledger) SetAdministrator(admin common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admin = admin
}

// GrantClinic marks addr as holding the write role.
func (l *Ledger) GrantClinic(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clinics[addr] = true
}

// Fail makes every subsequent call to op return err until Recover(op).
func (l *Ledger) Fail(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = err
}

// Recover clears an injected failure.
func (l *Ledger) Recover(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, op)
}

// Calls returns how many times op was invoked, failed calls included.
func (l *Ledger) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// PetCount returns the number of registered pets.
func (l *Ledger) PetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pets)
}

// Seed registers fp directly, as if another process had done so.
func (l *Ledger) Seed(fp fingerprint.Fingerprint) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextPet++
	l.pets[l.nextPet] = &pet{fp: fp, updatedAt: time.Now()}
	l.byHash[fp] = l.nextPet
	return l.nextPet
}

// PetFingerprint returns the fingerprint currently stored for id.
func (l *Ledger) PetFingerprint(id int64) (fingerprint.Fingerprint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pets[id]
	if !ok {
		return "", false
	}
	return p.fp, true
}

// RecordVerdict returns the verdict stored for a dependent record.
func (l *Ledger) RecordVerdict(recordID int64) (ledger.Verdict, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[recordID]
	if !ok {
		return 0, false
	}
	return r.verdict, true
}

func (l *Ledger) ChainID() int64 {
	return l.chainID
}

func (l *Ledger) SignerAddress() common.Address {
	return l.signer
}

// enter counts the call and returns an injected failure, if any. Callers
// hold l.mu.
func (l *Ledger) enter(op string) error {
	l.calls[op]++
	if err := l.failures[op]; err != nil {
		return ledger.Classify(op, err)
	}
	return nil
}

func (l *Ledger) revert(op, reason string) error {
	return ledger.Classify(op, errors.New("execution reverted: "+reason))
}

func (l *Ledger) txRef() string {
	l.nextTx++
	return common.BigToHash(big.NewInt(l.nextTx)).Hex()
}

func (l *Ledger) requireClinic(op string) error {
	if !l.clinics[l.signer] {
		return l.revert(op, "Only clinic can perform this action")
	}
	return nil
}

func (l *Ledger) Register(ctx context.Context, fp fingerprint.Fingerprint) (ledger.Registration, error) {
	if l.BeforeRegister != nil {
		l.BeforeRegister(fp)
	}
	if err := l.delay(ctx); err != nil {
		return ledger.Registration{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpRegister); err != nil {
		return ledger.Registration{}, err
	}
	if _, exists := l.byHash[fp]; exists {
		return ledger.Registration{}, l.revert(OpRegister, "DataHash already used")
	}
	l.nextPet++
	l.pets[l.nextPet] = &pet{fp: fp, updatedAt: time.Now()}
	l.byHash[fp] = l.nextPet
	return ledger.Registration{LedgerID: l.nextPet, TxRef: l.txRef()}, nil
}

func (l *Ledger) UpdateMirroredFields(ctx context.Context, ledgerID int64, fp fingerprint.Fingerprint) (string, error) {
	if err := l.delay(ctx); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpUpdate); err != nil {
		return "", err
	}
	if err := l.requireClinic(OpUpdate); err != nil {
		return "", err
	}
	p, ok := l.pets[ledgerID]
	if !ok {
		return "", l.revert(OpUpdate, "Pet does not exist")
	}
	if owner, taken := l.byHash[fp]; taken && owner != ledgerID {
		return "", l.revert(OpUpdate, "DataHash already used")
	}
	delete(l.byHash, p.fp)
	p.fp = fp
	p.updatedAt = time.Now()
	l.byHash[fp] = ledgerID
	return l.txRef(), nil
}

func (l *Ledger) LookupByFingerprint(_ context.Context, fp fingerprint.Fingerprint) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpLookup); err != nil {
		return 0, err
	}
	id, ok := l.byHash[fp]
	if !ok {
		return 0, l.revert(OpLookup, "Pet not found")
	}
	return id, nil
}

func (l *Ledger) ReadByID(_ context.Context, ledgerID int64) (ledger.PetRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpRead); err != nil {
		return ledger.PetRecord{}, err
	}
	p, ok := l.pets[ledgerID]
	if !ok {
		return ledger.PetRecord{}, l.revert(OpRead, "Pet does not exist")
	}
	return ledger.PetRecord{ID: ledgerID, Fingerprint: p.fp, Registrar: l.signer, UpdatedAt: p.updatedAt}, nil
}

func (l *Ledger) AppendDependentRecord(ctx context.Context, parentID int64, fp fingerprint.Fingerprint) (ledger.Registration, error) {
	if err := l.delay(ctx); err != nil {
		return ledger.Registration{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpAppend); err != nil {
		return ledger.Registration{}, err
	}
	if err := l.requireClinic(OpAppend); err != nil {
		return ledger.Registration{}, err
	}
	if _, ok := l.pets[parentID]; !ok {
		return ledger.Registration{}, l.revert(OpAppend, "Pet does not exist")
	}
	l.nextRec++
	l.records[l.nextRec] = &record{petID: parentID, fp: fp}
	return ledger.Registration{LedgerID: l.nextRec, TxRef: l.txRef()}, nil
}

func (l *Ledger) ReviewDependentRecord(ctx context.Context, parentID, recordID int64, verdict ledger.Verdict) (string, error) {
	if err := l.delay(ctx); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpReview); err != nil {
		return "", err
	}
	if err := l.requireClinic(OpReview); err != nil {
		return "", err
	}
	r, ok := l.records[recordID]
	if !ok || r.petID != parentID {
		return "", l.revert(OpReview, "Medical record does not exist")
	}
	r.verdict = verdict
	return l.txRef(), nil
}

func (l *Ledger) HasWriteRole(_ context.Context, addr common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpHasWriteRole); err != nil {
		return false, err
	}
	return l.clinics[addr], nil
}

func (l *Ledger) Administrator(_ context.Context) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpAdministrator); err != nil {
		return common.Address{}, err
	}
	return l.admin, nil
}

func (l *Ledger) GrantWriteRole(_ context.Context, grantee common.Address) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpGrant); err != nil {
		return "", err
	}
	if l.signer != l.admin {
		return "", l.revert(OpGrant, "Only contract owner")
	}
	l.clinics[grantee] = true
	return l.txRef(), nil
}

func (l *Ledger) GrantWriteRoleAs(_ context.Context, admin, grantee common.Address) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter(OpGrant); err != nil {
		return "", err
	}
	if admin != l.admin {
		return "", l.revert(OpGrant, "Only contract owner")
	}
	l.clinics[grantee] = true
	return l.txRef(), nil
}

func (l *Ledger) delay(ctx context.Context) error {
	if l.WriteLatency <= 0 {
		return nil
	}
	select {
	case <-time.After(l.WriteLatency):
		return nil
	case <-ctx.Done():
		return ledger.Classify("write", fmt.Errorf("waiting for receipt: %w", ctx.Err()))
	}
}

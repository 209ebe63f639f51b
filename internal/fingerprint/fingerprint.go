// Package fingerprint computes the canonical digests the ledger stores for
// pets, medical records and correction requests.
//
// A fingerprint is keccak256 over the ABI encoding of a fixed, ordered tuple.
// The tuple layouts below are part of the ledger contract: reordering fields or
// changing a type yields different digests for existing records and needs a
// migration.
package fingerprint

import (
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fingerprint is a 0x-prefixed, lowercase, 32-byte hex digest.
type Fingerprint string

var hexPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// Parse validates s as a fingerprint.
func Parse(s string) (Fingerprint, error) {
	if !hexPattern.MatchString(s) {
		return "", fmt.Errorf("invalid fingerprint %q", s)
	}
	return Fingerprint(s), nil
}

// FromHash renders a 32-byte digest as a Fingerprint.
func FromHash(h common.Hash) Fingerprint {
	return Fingerprint(h.Hex())
}

// Hash returns the digest as the bytes32 value sent to the ledger.
func (f Fingerprint) Hash() common.Hash {
	return common.HexToHash(string(f))
}

func (f Fingerprint) IsZero() bool {
	return f == ""
}

func (f Fingerprint) String() string {
	return string(f)
}

// PetSnapshot is the mirrored state of a pet, in tuple order.
type PetSnapshot struct {
	PublicID     string
	Name         string
	Species      string
	Breed        string
	BirthDate    time.Time
	Color        string
	PhysicalMark string
}

// MedicalRecordSnapshot is the state of a vaccination entry, in tuple order.
type MedicalRecordSnapshot struct {
	PetID       int64
	VaccineType string
	BatchNumber string
	GivenAt     time.Time
	Notes       *string
	EvidenceURL *string
}

// CorrectionSnapshot is the state of a correction request, in tuple order.
type CorrectionSnapshot struct {
	PetID     int64
	OwnerID   int64
	FieldName string
	OldValue  string
	NewValue  string
	Reason    *string
}

var (
	stringType  = mustType("string")
	uint256Type = mustType("uint256")

	// (publicId, name, species, breed, birthDate, color, physicalMark)
	petTuple = abi.Arguments{
		{Type: stringType}, {Type: stringType}, {Type: stringType}, {Type: stringType},
		{Type: uint256Type}, {Type: stringType}, {Type: stringType},
	}
	// (petId, vaccineType, batchNumber, givenAt, notes, evidenceUrl)
	medicalRecordTuple = abi.Arguments{
		{Type: uint256Type}, {Type: stringType}, {Type: stringType},
		{Type: uint256Type}, {Type: stringType}, {Type: stringType},
	}
	// (petId, ownerId, fieldName, oldValue, newValue, reason)
	correctionTuple = abi.Arguments{
		{Type: uint256Type}, {Type: uint256Type}, {Type: stringType},
		{Type: stringType}, {Type: stringType}, {Type: stringType},
	}
)

// Pet fingerprints a pet snapshot.
func Pet(s PetSnapshot) Fingerprint {
	return sum(petTuple,
		s.PublicID, s.Name, s.Species, s.Breed,
		seconds(s.BirthDate), s.Color, s.PhysicalMark,
	)
}

// MedicalRecord fingerprints a vaccination entry.
func MedicalRecord(s MedicalRecordSnapshot) Fingerprint {
	return sum(medicalRecordTuple,
		integer(s.PetID), s.VaccineType, s.BatchNumber,
		seconds(s.GivenAt), text(s.Notes), text(s.EvidenceURL),
	)
}

// Correction fingerprints a correction request.
func Correction(s CorrectionSnapshot) Fingerprint {
	return sum(correctionTuple,
		integer(s.PetID), integer(s.OwnerID), s.FieldName,
		s.OldValue, s.NewValue, text(s.Reason),
	)
}

func sum(args abi.Arguments, values ...any) Fingerprint {
	encoded, err := args.Pack(values...)
	if err != nil {
		// Tuple types are fixed above and every value is normalised, so Pack
		// only fails if the two disagree.
		panic(fmt.Sprintf("fingerprint: tuple encoding: %v", err))
	}
	return FromHash(crypto.Keccak256Hash(encoded))
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Epoch is the earliest instant a snapshot can carry. Dates are packed as
// unsigned unix seconds, so parsers reject anything earlier.
var Epoch = time.Unix(0, 0).UTC()

// seconds encodes t as unix seconds. Pre-epoch instants clamp to zero; the
// date parsers keep them out of snapshots.
func seconds(t time.Time) *big.Int {
	return integer(t.Unix())
}

func integer(v int64) *big.Int {
	if v < 0 {
		v = 0
	}
	return big.NewInt(v)
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

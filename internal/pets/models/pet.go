package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"petidentity/internal/fingerprint"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
)

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

type Pet struct {
	ID           int64
	PublicID     string
	Name         string
	Species      string
	Breed        string
	BirthDate    time.Time
	Age          int
	Color        string
	PhysicalMark string
	OwnerID      int64
	Status       domain.PetStatus
	// LedgerID, Fingerprint and TxRef describe the last successful ledger
	// sync. LedgerID is nil and Fingerprint empty until then.
	LedgerID    *int64
	Fingerprint fingerprint.Fingerprint
	TxRef       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot returns the mirrored fields of p in tuple order.
func (p *Pet) Snapshot() fingerprint.PetSnapshot {
	return fingerprint.PetSnapshot{
		PublicID:     p.PublicID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		BirthDate:    p.BirthDate,
		Color:        p.Color,
		PhysicalMark: p.PhysicalMark,
	}
}

// Revision identifies the stored state of the correctable fields: the
// fingerprint covers the mirrored ones and Age is the only other.
type Revision struct {
	Fingerprint fingerprint.Fingerprint
	Age         int
}

func (p *Pet) Revision() Revision {
	return Revision{Fingerprint: p.Fingerprint, Age: p.Age}
}

// CurrentFingerprint fingerprints p's mirrored fields as they are now, which
// may differ from the stored Fingerprint after an unsynced edit.
func (p *Pet) CurrentFingerprint() fingerprint.Fingerprint {
	return fingerprint.Pet(p.Snapshot())
}

// OwnershipRecord is one ownership transfer. TransferredAt is nil while the
// transfer awaits acceptance.
type OwnershipRecord struct {
	ID            int64
	PetID         int64
	FromOwnerID   int64
	ToOwnerID     int64
	TransferredAt *time.Time
	CreatedAt     time.Time
}

func (r *OwnershipRecord) Pending() bool {
	return r.TransferredAt == nil
}

// NewPublicID returns a public identifier of the form PET-XXXXXXXX.
func NewPublicID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PET-" + strings.ToUpper(id[:8])
}

// ParseBirthDate parses a YYYY-MM-DD date between the unix epoch and now.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "birthDate must be formatted as YYYY-MM-DD")
	}
	if d.After(now) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "birthDate cannot be in the future")
	}
	if d.Before(fingerprint.Epoch) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "birthDate cannot be before 1970-01-01")
	}
	return d, nil
}

// CalculateAge returns the completed years between birth and now, never
// negative.
func CalculateAge(birth, now time.Time) int {
	now = now.UTC()
	birth = birth.UTC()
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return max(age, 0)
}

// MaskOwnerName keeps the first word of name and reduces the rest to their
// initials: "Budi Santoso Putra" becomes "Budi SP".
func MaskOwnerName(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	if len(words) == 1 {
		return words[0]
	}
	var initials strings.Builder
	for _, w := range words[1:] {
		initials.WriteString(strings.ToUpper(string([]rune(w)[0])))
	}
	return words[0] + " " + initials.String()
}

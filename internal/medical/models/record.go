package models

import (
	"strings"
	"time"

	"petidentity/internal/fingerprint"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
)

// MedicalRecord is a vaccination entry registered under a pet's ledger record.
type MedicalRecord struct {
	ID          int64
	PetID       int64
	ClinicID    int64
	VaccineType string
	BatchNumber string
	GivenAt     time.Time
	Notes       *string
	EvidenceURL *string
	Status      domain.ReviewStatus
	// LedgerRecordID, Fingerprint and TxRef are fixed when the entry is
	// appended to the ledger and never change afterwards.
	LedgerRecordID *int64
	Fingerprint    fingerprint.Fingerprint
	TxRef          string
	ReviewedBy     *int64
	ReviewedAt     *time.Time
	ReviewTxRef    string
	CreatedAt      time.Time
}

func (r *MedicalRecord) Snapshot() fingerprint.MedicalRecordSnapshot {
	return fingerprint.MedicalRecordSnapshot{
		PetID:       r.PetID,
		VaccineType: r.VaccineType,
		BatchNumber: r.BatchNumber,
		GivenAt:     r.GivenAt,
		Notes:       r.Notes,
		EvidenceURL: r.EvidenceURL,
	}
}

// Review is the terminal state written when a record is decided.
type Review struct {
	Status     domain.ReviewStatus
	ReviewerID int64
	ReviewedAt time.Time
	TxRef      string
}

// ParseVerdict accepts VERIFIED or REJECTED.
func ParseVerdict(s string) (domain.ReviewStatus, error) {
	switch v := domain.ReviewStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case domain.ReviewVerified, domain.ReviewRejected:
		return v, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be VERIFIED or REJECTED")
}

// ParseGivenAt accepts a YYYY-MM-DD date or an RFC 3339 timestamp between the
// unix epoch and now.
func ParseGivenAt(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
	}
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "givenAt must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	if t.After(now) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "givenAt cannot be in the future")
	}
	if t.Before(fingerprint.Epoch) {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "givenAt cannot be before 1970-01-01")
	}
	return t.UTC(), nil
}

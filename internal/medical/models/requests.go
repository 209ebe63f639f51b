package models

import (
	"strings"
	"time"
)

type AddRecordRequest struct {
	VaccineType string  `json:"vaccineType" validate:"required,max=100"`
	BatchNumber string  `json:"batchNumber" validate:"required,max=100"`
	GivenAt     string  `json:"givenAt" validate:"required"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
	EvidenceURL *string `json:"evidenceUrl" validate:"omitempty,url"`
}

func (r *AddRecordRequest) Normalize() {
	r.VaccineType = strings.TrimSpace(r.VaccineType)
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	r.Notes = trimmed(r.Notes)
	r.EvidenceURL = trimmed(r.EvidenceURL)
}

// trimmed drops blank optional text so it fingerprints like an absent value.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type ReviewRequest struct {
	Status string `json:"status" validate:"required"`
}

type RecordResponse struct {
	ID             int64      `json:"id"`
	PetID          int64      `json:"petId"`
	ClinicID       int64      `json:"clinicId"`
	VaccineType    string     `json:"vaccineType"`
	BatchNumber    string     `json:"batchNumber"`
	GivenAt        time.Time  `json:"givenAt"`
	Notes          *string    `json:"notes"`
	EvidenceURL    *string    `json:"evidenceUrl"`
	Status         string     `json:"status"`
	LedgerRecordID *int64     `json:"ledgerRecordId"`
	Fingerprint    string     `json:"fingerprint"`
	TxRef          string     `json:"txRef"`
	ReviewedBy     *int64     `json:"reviewedBy"`
	ReviewedAt     *time.Time `json:"reviewedAt"`
	ReviewTxRef    string     `json:"reviewTxRef,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func ToResponse(r *MedicalRecord) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		PetID:          r.PetID,
		ClinicID:       r.ClinicID,
		VaccineType:    r.VaccineType,
		BatchNumber:    r.BatchNumber,
		GivenAt:        r.GivenAt,
		Notes:          r.Notes,
		EvidenceURL:    r.EvidenceURL,
		Status:         string(r.Status),
		LedgerRecordID: r.LedgerRecordID,
		Fingerprint:    r.Fingerprint.String(),
		TxRef:          r.TxRef,
		ReviewedBy:     r.ReviewedBy,
		ReviewedAt:     r.ReviewedAt,
		ReviewTxRef:    r.ReviewTxRef,
		CreatedAt:      r.CreatedAt,
	}
}

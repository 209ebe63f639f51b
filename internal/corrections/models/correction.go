package models

import (
	"time"

	"petidentity/internal/fingerprint"
	"petidentity/pkg/domain"
)

type CorrectionRequest struct {
	ID       int64
	PetID    int64
	OwnerID  int64
	Field    Field
	OldValue string
	NewValue string
	Reason   *string
	Status   domain.ReviewStatus
	// Fingerprint identifies the request itself, not the pet.
	Fingerprint  fingerprint.Fingerprint
	ReviewedBy   *int64
	ReviewedAt   *time.Time
	ReviewReason *string
	// TxRef is the pet update written on approval of a mirrored field.
	TxRef     string
	CreatedAt time.Time
}

func (c *CorrectionRequest) Snapshot() fingerprint.CorrectionSnapshot {
	return fingerprint.CorrectionSnapshot{
		PetID:     c.PetID,
		OwnerID:   c.OwnerID,
		FieldName: string(c.Field),
		OldValue:  c.OldValue,
		NewValue:  c.NewValue,
		Reason:    c.Reason,
	}
}

// Review is the terminal state written when a request is decided.
type Review struct {
	Status     domain.ReviewStatus
	ReviewerID int64
	ReviewedAt time.Time
	Reason     *string
	TxRef      string
}

type ReviewRequest struct {
	Approve *bool   `json:"approve" validate:"required"`
	Reason  *string `json:"reason" validate:"omitempty,max=500"`
}

type CorrectionResponse struct {
	ID           int64      `json:"id"`
	PetID        int64      `json:"petId"`
	OwnerID      int64      `json:"ownerId"`
	Field        string     `json:"field"`
	OldValue     string     `json:"oldValue"`
	NewValue     string     `json:"newValue"`
	Reason       *string    `json:"reason"`
	Status       string     `json:"status"`
	Fingerprint  string     `json:"fingerprint"`
	ReviewedBy   *int64     `json:"reviewedBy"`
	ReviewedAt   *time.Time `json:"reviewedAt"`
	ReviewReason *string    `json:"reviewReason"`
	TxRef        string     `json:"txRef,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func ToResponse(c *CorrectionRequest) CorrectionResponse {
	return CorrectionResponse{
		ID:           c.ID,
		PetID:        c.PetID,
		OwnerID:      c.OwnerID,
		Field:        string(c.Field),
		OldValue:     c.OldValue,
		NewValue:     c.NewValue,
		Reason:       c.Reason,
		Status:       string(c.Status),
		Fingerprint:  c.Fingerprint.String(),
		ReviewedBy:   c.ReviewedBy,
		ReviewedAt:   c.ReviewedAt,
		ReviewReason: c.ReviewReason,
		TxRef:        c.TxRef,
		CreatedAt:    c.CreatedAt,
	}
}

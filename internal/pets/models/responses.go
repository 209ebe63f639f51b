package models

import "time"

type PetResponse struct {
	ID           int64     `json:"id"`
	PublicID     string    `json:"publicId"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	BirthDate    string    `json:"birthDate"`
	Age          int       `json:"age"`
	Color        string    `json:"color"`
	PhysicalMark string    `json:"physicalMark"`
	OwnerID      int64     `json:"ownerId"`
	Status       string    `json:"status"`
	LedgerID     *int64    `json:"ledgerId"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	TxRef        string    `json:"txRef,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToResponse(p *Pet) PetResponse {
	return PetResponse{
		ID:           p.ID,
		PublicID:     p.PublicID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		BirthDate:    p.BirthDate.Format(DateLayout),
		Age:          p.Age,
		Color:        p.Color,
		PhysicalMark: p.PhysicalMark,
		OwnerID:      p.OwnerID,
		Status:       string(p.Status),
		LedgerID:     p.LedgerID,
		Fingerprint:  p.Fingerprint.String(),
		TxRef:        p.TxRef,
		CreatedAt:    p.CreatedAt,
	}
}

type OwnershipResponse struct {
	ID            int64      `json:"id"`
	FromOwnerID   int64      `json:"fromOwnerId"`
	ToOwnerID     int64      `json:"toOwnerId"`
	TransferredAt *time.Time `json:"transferredAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func ToOwnershipResponse(r *OwnershipRecord) OwnershipResponse {
	return OwnershipResponse{
		ID:            r.ID,
		FromOwnerID:   r.FromOwnerID,
		ToOwnerID:     r.ToOwnerID,
		TransferredAt: r.TransferredAt,
		CreatedAt:     r.CreatedAt,
	}
}

// Vaccination is one entry of the public trace.
type Vaccination struct {
	VaccineType string    `json:"vaccineType"`
	LastGivenAt time.Time `json:"lastGivenAt"`
	Status      string    `json:"status"`
}

// Trace is the public view of a pet, safe to serve without authentication.
type Trace struct {
	PublicID     string        `json:"publicId"`
	Name         string        `json:"name"`
	Species      string        `json:"species"`
	Breed        string        `json:"breed"`
	OwnerName    string        `json:"ownerName"`
	LedgerID     *int64        `json:"ledgerId"`
	Vaccinations []Vaccination `json:"vaccinations"`
}

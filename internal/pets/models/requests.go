package models

import "strings"

type CreatePetRequest struct {
	PublicID     string `json:"publicId" validate:"omitempty,max=32"`
	Name         string `json:"name" validate:"required,max=100"`
	Species      string `json:"species" validate:"required,max=50"`
	Breed        string `json:"breed" validate:"max=100"`
	BirthDate    string `json:"birthDate" validate:"required"`
	Color        string `json:"color" validate:"max=50"`
	PhysicalMark string `json:"physicalMark" validate:"max=255"`
}

// Normalize trims every field so equal inputs fingerprint identically.
func (r *CreatePetRequest) Normalize() {
	r.PublicID = strings.ToUpper(strings.TrimSpace(r.PublicID))
	r.Name = strings.TrimSpace(r.Name)
	r.Species = strings.TrimSpace(r.Species)
	r.Breed = strings.TrimSpace(r.Breed)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Color = strings.TrimSpace(r.Color)
	r.PhysicalMark = strings.TrimSpace(r.PhysicalMark)
}

type TransferRequest struct {
	NewOwnerEmail string `json:"newOwnerEmail" validate:"required,email"`
}

type CorrectionInput struct {
	Field    string  `json:"field" validate:"required"`
	NewValue string  `json:"newValue" validate:"required,max=255"`
	Reason   *string `json:"reason" validate:"omitempty,max=500"`
}

// ListFilter narrows ListPets. A nil OwnerID lists every owner's pets.
type ListFilter struct {
	OwnerID *int64
	Search  string
}

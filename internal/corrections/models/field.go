package models

import (
	"strconv"
	"strings"
	"time"

	petmodels "petidentity/internal/pets/models"
	dErrors "petidentity/pkg/domain-errors"
)

// Field names a pet attribute an owner may ask to correct.
type Field string

const (
	FieldName         Field = "name"
	FieldSpecies      Field = "species"
	FieldBreed        Field = "breed"
	FieldBirthDate    Field = "birth_date"
	FieldColor        Field = "color"
	FieldPhysicalMark Field = "physical_mark"
	FieldAge          Field = "age"
)

const maxAge = 100

var correctable = map[Field]bool{
	FieldName:         true,
	FieldSpecies:      true,
	FieldBreed:        true,
	FieldBirthDate:    true,
	FieldColor:        true,
	FieldPhysicalMark: true,
	FieldAge:          true,
}

func ParseField(s string) (Field, error) {
	f := Field(strings.TrimSpace(s))
	if !correctable[f] {
		return "", dErrors.New(dErrors.CodeValidation, "field cannot be corrected: "+s)
	}
	return f, nil
}

// Mirrored reports whether the field is part of the pet's ledger fingerprint.
func (f Field) Mirrored() bool {
	return f != FieldAge
}

// ParseValue validates raw for the field and returns its canonical form.
func (f Field) ParseValue(raw string, now time.Time) (string, error) {
	v := strings.TrimSpace(raw)
	switch f {
	case FieldBirthDate:
		d, err := petmodels.ParseBirthDate(v, now)
		if err != nil {
			return "", err
		}
		return d.Format(petmodels.DateLayout), nil
	case FieldAge:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxAge {
			return "", dErrors.New(dErrors.CodeValidation, "age must be a whole number between 0 and 100")
		}
		return strconv.Itoa(n), nil
	case FieldName, FieldSpecies:
		if v == "" {
			return "", dErrors.New(dErrors.CodeValidation, string(f)+" cannot be empty")
		}
	}
	return v, nil
}

// Current returns the field's value on p in canonical form.
func (f Field) Current(p *petmodels.Pet) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldSpecies:
		return p.Species
	case FieldBreed:
		return p.Breed
	case FieldBirthDate:
		return p.BirthDate.Format(petmodels.DateLayout)
	case FieldColor:
		return p.Color
	case FieldPhysicalMark:
		return p.PhysicalMark
	case FieldAge:
		return strconv.Itoa(p.Age)
	}
	return ""
}

// Apply writes a canonical value onto p. A birth date change recomputes the
// age as of now.
func (f Field) Apply(p *petmodels.Pet, value string, now time.Time) error {
	switch f {
	case FieldName:
		p.Name = value
	case FieldSpecies:
		p.Species = value
	case FieldBreed:
		p.Breed = value
	case FieldBirthDate:
		d, err := time.Parse(petmodels.DateLayout, value)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "birthDate must be formatted as YYYY-MM-DD")
		}
		p.BirthDate = d
		p.Age = petmodels.CalculateAge(d, now)
	case FieldColor:
		p.Color = value
	case FieldPhysicalMark:
		p.PhysicalMark = value
	case FieldAge:
		n, err := strconv.Atoi(value)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "age must be a whole number")
		}
		p.Age = n
	default:
		return dErrors.New(dErrors.CodeValidation, "field cannot be corrected: "+string(f))
	}
	return nil
}

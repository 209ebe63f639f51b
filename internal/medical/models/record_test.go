package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petidentity/internal/fingerprint"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
)

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(" verified ")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewVerified, v)

	_, err = ParseVerdict("APPROVED")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParseGivenAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	d, err := ParseGivenAt("2024-04-30", now)
	require.NoError(t, err)
	assert.Equal(t, 30, d.Day())

	ts, err := ParseGivenAt("2024-04-30T08:15:00+07:00", now)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Hour())

	_, err = ParseGivenAt("2024-05-02", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ParseGivenAt("yesterday", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParseGivenAtRejectsPreEpochInstants(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, raw := range []string{"1969-12-31", "1965-03-01", "1969-12-31T23:59:59Z"} {
		_, err := ParseGivenAt(raw, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), raw)
	}

	d, err := ParseGivenAt("1970-01-01T07:00:00+07:00", now)
	require.NoError(t, err)
	assert.Zero(t, d.Unix())
}

func TestBlankOptionalTextFingerprintsAsAbsent(t *testing.T) {
	blank := "  "
	a := &AddRecordRequest{VaccineType: "rabies", BatchNumber: "B1", Notes: &blank}
	a.Normalize()
	assert.Nil(t, a.Notes)

	given := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	withNil := &MedicalRecord{PetID: 1, VaccineType: "rabies", BatchNumber: "B1", GivenAt: given}
	empty := ""
	withEmpty := &MedicalRecord{PetID: 1, VaccineType: "rabies", BatchNumber: "B1", GivenAt: given, Notes: &empty}
	assert.Equal(t, fingerprint.MedicalRecord(withNil.Snapshot()), fingerprint.MedicalRecord(withEmpty.Snapshot()))
}

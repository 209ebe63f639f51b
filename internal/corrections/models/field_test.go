package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	petmodels "petidentity/internal/pets/models"
	dErrors "petidentity/pkg/domain-errors"
)

var now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestParseField(t *testing.T) {
	f, err := ParseField("physical_mark")
	require.NoError(t, err)
	assert.Equal(t, FieldPhysicalMark, f)
	assert.True(t, f.Mirrored())
	assert.False(t, FieldAge.Mirrored())

	_, err = ParseField("owner_id")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		field   Field
		raw     string
		want    string
		wantErr bool
	}{
		{FieldSpecies, "  canine-mix ", "canine-mix", false},
		{FieldName, "   ", "", true},
		{FieldBreed, "", "", false},
		{FieldBirthDate, "2021-02-03", "2021-02-03", false},
		{FieldBirthDate, "2030-01-01", "", true},
		{FieldBirthDate, "3 Feb 2021", "", true},
		{FieldAge, "07", "7", false},
		{FieldAge, "-1", "", true},
		{FieldAge, "101", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.raw, func(t *testing.T) {
			got, err := tt.field.ParseValue(tt.raw, now)
			if tt.wantErr {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyBirthDateRecomputesAge(t *testing.T) {
	p := &petmodels.Pet{BirthDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Age: 4}

	require.NoError(t, FieldBirthDate.Apply(p, "2022-01-01", now))
	assert.Equal(t, "2022-01-01", FieldBirthDate.Current(p))
	assert.Equal(t, 2, p.Age)

	require.NoError(t, FieldAge.Apply(p, "5", now))
	assert.Equal(t, "5", FieldAge.Current(p))
}

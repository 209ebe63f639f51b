package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "budi@example.com", Normalize("  Budi@Example.COM\t"))
	assert.Equal(t, "", Normalize("   "))
}

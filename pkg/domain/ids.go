package domain

import (
	"strconv"

	dErrors "petidentity/pkg/domain-errors"
)

// ParseID parses a positive integer surrogate key from a path or query value.
//
// Errors: returns CodeBadRequest when the value is not a positive integer.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id: "+s)
	}
	return id, nil
}

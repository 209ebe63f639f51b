// Package email holds the address normalization shared by sign-up, sign-in,
// transfers and lockout keys.
package email

import "strings"

// Normalize trims surrounding space and lower-cases the address so lookups
// are case-insensitive.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

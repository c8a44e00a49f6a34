// Package normalize canonicalizes configured values before they are written,
// so repeated runs compare equal.
package normalize

import "strings"

// Email trims surrounding space and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key trims surrounding space; case is significant.
func Key(s string) string {
	return strings.TrimSpace(s)
}

// Package ids issues the opaque identifiers used as lookup keys and filename
// stems for assets, artifacts and jobs.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken returns a random 128-bit (UUID v4) token in canonical form.
func NewToken() string {
	return uuid.NewString()
}

// IsToken reports whether s is safe to use as a bare filename stem: non-empty,
// no leading dot (reserved entries such as ".tmp"), no parent references, no
// path separators and no control characters.
func IsToken(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	if s[0] == '.' || strings.Contains(s, "..") {
		return false
	}
	for _, c := range s {
		switch {
		case c == '/' || c == '\\':
			return false
		case c < 0x20 || c == 0x7f:
			return false
		}
	}
	return true
}

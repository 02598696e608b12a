// Package occ implements optimistic concurrency control for versioned
// resources. Every mutable row carries a monotonic version counter minted by
// the database on each successful write; it is surfaced to clients as an
// opaque weak ETag and must be presented back on conditional mutations.
package occ

import (
	"fmt"
	"strconv"
	"strings"
)

// Token is the opaque client-facing form of a row version, e.g. W/"7".
// Clients must pass it back unmodified; only this package interprets it.
type Token string

// FormatToken encodes a version counter as a weak ETag token.
func FormatToken(version int64) Token {
	return Token(fmt.Sprintf(`W/"%d"`, version))
}

// ParseToken decodes a token back to its version counter. Both the weak form
// (W/"3") and a bare quoted or unquoted value are accepted.
func ParseToken(t Token) (int64, error) {
	s := strings.TrimSpace(string(t))
	s = strings.TrimPrefix(s, "W/")
	s = strings.Trim(s, `"`)

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("version token must contain a numeric version: %q", t)
	}
	return v, nil
}

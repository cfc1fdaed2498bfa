// Package roundid generates round identifiers: UUIDv7 values written as 26
// characters of Crockford base32, so they sort by creation time.
package roundid

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lower case
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded identifier
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh round identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// The random source failed; a v4 still gives a unique, if unordered, ID.
		id = uuid.New()
	}
	return Encode(id)
}

// Encode writes id in base32.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Parse decodes an identifier produced by Encode.
func Parse(s string) (uuid.UUID, error) {
	if len(s) != Length {
		return uuid.Nil, fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(s))
	}
	raw, err := encoding.DecodeString(strings.ToLower(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid round ID %q: %w", s, err)
	}
	return uuid.FromBytes(raw)
}

// Validate checks that s is a well-formed round identifier.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// Time returns when a v7 identifier was created.
func Time(s string) (time.Time, error) {
	id, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	if id.Version() != 7 {
		return time.Time{}, fmt.Errorf("round ID %q is not time-ordered", s)
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}

// Package qr implements the textual identity tokens printed as QR codes
// on copy labels and borrow slips. A token is a fixed prefix plus the
// entity's UUID; it is always derived from the id and never stored.
package qr

import (
	"strings"

	"github.com/google/uuid"
)

const (
	copyPrefix   = "COPY-"
	borrowPrefix = "BORROW-"
)

// EncodeCopy returns the label token for a physical copy.
func EncodeCopy(copyID uuid.UUID) string {
	return copyPrefix + copyID.String()
}

// EncodeBorrow returns the slip token for a borrow request.
func EncodeBorrow(requestID uuid.UUID) string {
	return borrowPrefix + requestID.String()
}

// DecodeCopy parses a COPY-<uuid> token. Malformed input reports ok=false.
func DecodeCopy(code string) (uuid.UUID, bool) {
	return decode(code, copyPrefix)
}

// DecodeBorrow parses a BORROW-<uuid> token. Malformed input reports ok=false.
func DecodeBorrow(code string) (uuid.UUID, bool) {
	return decode(code, borrowPrefix)
}

func decode(code, prefix string) (uuid.UUID, bool) {
	rest, found := strings.CutPrefix(code, prefix)
	if !found {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

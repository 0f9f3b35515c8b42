package models

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// shortIDEncoding is an unpadded base32 alphabet, lowercased for URL friendliness.
var shortIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewShortID returns a URL-safe public identifier derived from a fresh UUID.
// The underlying UUID is not stored; the short form is the public handle.
func NewShortID() string {
	id := uuid.New()
	return strings.ToLower(shortIDEncoding.EncodeToString(id[:]))
}

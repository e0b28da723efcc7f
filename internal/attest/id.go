package attest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// IdentifierPrefix is the fixed leading component of every attestation
// identifier.
const IdentifierPrefix = "ATT"

const randSuffixBytes = 4

var identifierShape = regexp.MustCompile(`^ATT-\d+-[0-9A-F]{8}$`)

// NewIdentifier mints a fresh attestation identifier of the form
// ATT-<unix-millis>-<8 uppercase hex>. The millisecond component gives
// coarse ordering; collision resistance comes from the random suffix, drawn
// from the system CSPRNG. The identifier carries no information about the
// content or the creating user, and uniqueness is probabilistic: the
// store's unique constraint is the final backstop, and a constraint hit is
// a creation failure to retry, never an overwrite.
func NewIdentifier() (string, error) {
	b := make([]byte, randSuffixBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("identifier entropy: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(b))
	return fmt.Sprintf("%s-%d-%s", IdentifierPrefix, time.Now().UnixMilli(), suffix), nil
}

// WellFormedIdentifier reports whether s has the shape of an identifier this
// system could have minted. Lookups do not require it (exact match on an
// unknown string simply misses) but callers can use it to short-circuit
// obviously foreign input.
func WellFormedIdentifier(s string) bool {
	return identifierShape.MatchString(s)
}

// Package hashx implements the content fingerprinting used for attestation
// identity: SHA-256 over the exact submitted bytes, rendered as lowercase
// hex. The digest is a pure function of the input, with no normalization
// or trimming, so any character-level edit changes it.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/veristamp/veristamp/internal/common"
)

// Size is the length in characters of every digest this package produces,
// regardless of input length (including empty input).
const Size = sha256.Size * 2

// Sum returns the lowercase hex SHA-256 digest of b.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// SumText returns the digest of the UTF-8 bytes of s. The bytes are hashed
// exactly as given, whitespace included, so the same text always verifies
// against itself and any edit produces a different digest.
func SumText(s string) string {
	return Sum([]byte(s))
}

// SumReader streams r to completion and returns its digest and byte count.
// If the stream yields more than limit bytes (limit > 0), it fails with
// common.ErrContentTooLarge and returns no digest: a digest is never
// produced over partial content.
func SumReader(r io.Reader, limit int64) (string, int64, error) {
	h := sha256.New()

	var src io.Reader = r
	if limit > 0 {
		// read one extra byte so an exactly-at-limit input still succeeds
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(h, src)
	if err != nil {
		return "", 0, fmt.Errorf("reading content: %w", err)
	}
	if limit > 0 && n > limit {
		return "", 0, common.ErrContentTooLarge
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Valid reports whether s has the shape of a digest: exactly Size
// hexadecimal characters, either case.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	if _, err := hex.DecodeString(s); err != nil {
		return false
	}
	return true
}

// Normalize lowercases a digest so lookups are case-insensitive on hex
// digits. Callers should check Valid first.
func Normalize(s string) string {
	return strings.ToLower(s)
}

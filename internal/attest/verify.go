package attest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/hashx"
)

// Status classifies the outcome of a verification.
type Status string

const (
	// StatusVerified: a matching record exists; Result.Record is set.
	StatusVerified Status = "VERIFIED"
	// StatusNotFound: the store answered and no record matches. For
	// content-based checks Result.Digest still carries the computed digest
	// so the caller can audit what was compared.
	StatusNotFound Status = "NOT_FOUND"
	// StatusError: the check could not be completed (bad input or store
	// failure). Never to be conflated with StatusNotFound.
	StatusError Status = "ERROR"
)

// Result is the outcome of one verification.
type Result struct {
	Status Status
	// Digest is the digest that was looked up (computed from content, or
	// the normalized caller-supplied value). Empty for identifier lookups
	// that found nothing.
	Digest string
	// Record is set only when Status is StatusVerified.
	Record *Record
	// Err is set only when Status is StatusError.
	Err error
}

// Source is the read side of the record store as seen by the protocol.
//
// ByDigest returns all records whose digest equals the (already normalized)
// value, ordered newest first. ByIdentifier returns all records with the
// exact identifier; by construction there should be at most one.
type Source interface {
	ByDigest(ctx context.Context, digest string) ([]*Record, error)
	ByIdentifier(ctx context.Context, identifier string) ([]*Record, error)
}

// Verifier implements the verification decision procedure over a Source.
// It is stateless and safe for concurrent use.
type Verifier struct {
	src Source
}

// NewVerifier returns a Verifier reading from src.
func NewVerifier(src Source) *Verifier {
	return &Verifier{src: src}
}

// VerifyContent digests the whole of r (failing explicitly if it exceeds
// limit bytes) and then proceeds as a digest lookup. The original content
// is never retrieved from anywhere; only the caller-supplied bytes are
// hashed and compared.
func (v *Verifier) VerifyContent(ctx context.Context, r io.Reader, limit int64) *Result {
	digest, _, err := hashx.SumReader(r, limit)
	if err != nil {
		return &Result{Status: StatusError, Err: err}
	}
	return v.VerifyDigest(ctx, digest)
}

// VerifyText digests the exact UTF-8 bytes of s and proceeds as a digest
// lookup. Empty text is valid input: it verifies against the digest of the
// empty byte sequence.
func (v *Verifier) VerifyText(ctx context.Context, s string) *Result {
	return v.VerifyDigest(ctx, hashx.SumText(s))
}

// VerifyDigest looks up the record for a digest. Matching is exact and
// case-insensitive on hex digits. A digest that is not exactly 64 hex
// characters is an input error, reported as StatusError before any query.
//
// The store does not necessarily enforce digest uniqueness at write time
// (re-attesting identical content yields a second record with the same
// digest), so a multi-row answer is legitimate: the most recently created
// record is canonical.
func (v *Verifier) VerifyDigest(ctx context.Context, digest string) *Result {
	if digest == "" {
		return &Result{Status: StatusError, Err: common.ErrNoContent}
	}
	if !hashx.Valid(digest) {
		return &Result{Status: StatusError, Err: fmt.Errorf("%w: %q", common.ErrInvalidDigest, digest)}
	}
	digest = hashx.Normalize(digest)

	recs, err := v.src.ByDigest(ctx, digest)
	if err != nil {
		return &Result{Status: StatusError, Digest: digest, Err: fmt.Errorf("digest lookup: %w", err)}
	}
	if len(recs) == 0 {
		return &Result{Status: StatusNotFound, Digest: digest}
	}
	// newest-first ordering is part of the Source contract
	return &Result{Status: StatusVerified, Digest: digest, Record: recs[0]}
}

// VerifyIdentifier looks up the record for an attestation identifier.
// Matching is exact and case-sensitive. An empty identifier is an input
// error. An unknown identifier, well-formed or not, is an ordinary
// negative result, not a fault. More than one record under one identifier
// violates the mint-time uniqueness guarantee and surfaces as StatusError
// rather than silently picking one.
func (v *Verifier) VerifyIdentifier(ctx context.Context, identifier string) *Result {
	if identifier == "" {
		return &Result{Status: StatusError, Err: common.ErrNoContent}
	}

	recs, err := v.src.ByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{Status: StatusNotFound}
		}
		return &Result{Status: StatusError, Err: fmt.Errorf("identifier lookup: %w", err)}
	}
	switch len(recs) {
	case 0:
		return &Result{Status: StatusNotFound}
	case 1:
		return &Result{Status: StatusVerified, Digest: recs[0].Digest, Record: recs[0]}
	default:
		return &Result{
			Status: StatusError,
			Err:    fmt.Errorf("%w: identifier %s matches %d records", common.ErrIntegrityViolation, identifier, len(recs)),
		}
	}
}

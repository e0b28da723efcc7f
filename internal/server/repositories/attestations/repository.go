package attestations

import (
	"context"

	"github.com/veristamp/veristamp/internal/attest"
)

// Repository is the persistence contract for attestation records. The store
// is insert-only: records are never updated, and deletion is an owner-scoped
// administrative operation.
type Repository interface {
	// Insert persists a new record atomically. It returns
	// common.ErrDuplicateIdentifier when the identifier's unique constraint
	// fires; the caller retries with a fresh identifier.
	Insert(ctx context.Context, rec *attest.Record) (*attest.Record, error)

	// ByDigest returns all records with the given (normalized) digest,
	// newest first. Part of the attest.Source contract.
	ByDigest(ctx context.Context, digest string) ([]*attest.Record, error)

	// ByIdentifier returns all records with the exact identifier.
	ByIdentifier(ctx context.Context, identifier string) ([]*attest.Record, error)

	// ExistsByDigest reports whether any record carries the digest. Used by
	// the optional no-re-attestation policy at write time.
	ExistsByDigest(ctx context.Context, digest string) (bool, error)

	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*attest.Record, error)

	// GetForOwner returns one record by row id, only if owned by ownerID.
	GetForOwner(ctx context.Context, ownerID, id string) (*attest.Record, error)

	// DeleteForOwner removes one record by row id, only if owned by ownerID.
	DeleteForOwner(ctx context.Context, ownerID, id string) error

	// CountByOwner returns how many records the owner has.
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Package attest is the core of VeriStamp: the attestation record type, the
// identifier generator and the verification protocol. It holds no mutable
// state and performs no I/O of its own beyond the Source it is given, so it
// can back an HTTP handler, a CLI or a batch job unchanged.
package attest

import "time"

// Record is one persisted attestation: a claim that content with a given
// digest existed and was registered at a given time. Records are immutable;
// the store only ever inserts and reads them.
//
// Identifier and Digest are the two lookup keys. DisplayName, ContentKind
// and ContentLength are descriptive only and never participate in matching.
// OwnerID attributes the record for listing, never for verification.
type Record struct {
	ID            string
	Identifier    string
	OwnerID       string
	DisplayName   string
	ContentKind   string
	ContentLength int64
	Digest        string
	StorageKey    string
	CreatedAt     time.Time
}

// Metadata is the subset of a Record disclosed to anonymous verifiers.
// Owner attribution and the storage key stay private.
type Metadata struct {
	Identifier    string    `json:"attestation_id"`
	DisplayName   string    `json:"file_name"`
	ContentKind   string    `json:"file_type"`
	ContentLength int64     `json:"file_size"`
	Digest        string    `json:"file_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// Meta returns the public view of r.
func (r *Record) Meta() Metadata {
	return Metadata{
		Identifier:    r.Identifier,
		DisplayName:   r.DisplayName,
		ContentKind:   r.ContentKind,
		ContentLength: r.ContentLength,
		Digest:        r.Digest,
		CreatedAt:     r.CreatedAt,
	}
}

// Package attestations implements the create, verify, list, share and
// delete flows over the attestation core and its collaborators.
package attestations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/veristamp/veristamp/internal/attest"
	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/hashx"
	"github.com/veristamp/veristamp/internal/server/blob"
	sc "github.com/veristamp/veristamp/internal/server/config"
	"github.com/veristamp/veristamp/internal/server/repositories/attestations"
)

// CreateInput describes one piece of content to attest. Content is read to
// completion; DisplayName and ContentKind are descriptive only.
type CreateInput struct {
	DisplayName string
	ContentKind string
	Content     io.Reader
}

// Receipt is what the creator gets back: everything needed to share and
// later verify the attestation.
type Receipt struct {
	Identifier  string    `json:"attestation_id"`
	Digest      string    `json:"file_hash"`
	DisplayName string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
	VerifyURL   string    `json:"verification_url"`
}

// Detail is the owner's view of one record, with share and download links.
type Detail struct {
	attest.Metadata
	ID          string `json:"id"`
	VerifyURL   string `json:"verification_url"`
	DownloadURL string `json:"download_url,omitempty"`
}

type Service struct {
	repo     attestations.Repository
	blobs    blob.Store
	verifier *attest.Verifier
	config   *sc.Config
}

func NewService(repo attestations.Repository, blobs blob.Store, config *sc.Config) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		verifier: attest.NewVerifier(repo),
		config:   config,
	}
}

// VerifyURL builds the shareable verification link for an identifier.
func (s *Service) VerifyURL(identifier string) string {
	return fmt.Sprintf("%s/verify?id=%s", strings.TrimRight(s.config.BaseURL, "/"), url.QueryEscape(identifier))
}

// Create attests one piece of content for ownerID.
//
// The content is buffered and digested first (failing early on empty input
// or on the size cap, before any I/O to collaborators), then written
// durably to the blob store, and only then recorded: a record must never
// point at content whose bytes were not confirmed written. If the record
// insert hits the identifier unique constraint, one retry with a freshly
// minted identifier reuses the already-written blob; storage keys do not
// embed identifiers for exactly this reason. If the insert fails outright
// the blob stays orphaned, which is harmless and never retried silently.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Receipt, error) {
	if in.DisplayName == "" {
		return nil, fmt.Errorf("%w: missing display name", common.ErrorIncorrectInput)
	}
	if in.Content == nil {
		return nil, common.ErrNoContent
	}
	kind := in.ContentKind
	if kind == "" {
		kind = "unknown"
	}

	var buf bytes.Buffer
	digest, size, err := hashx.SumReader(io.TeeReader(in.Content, &buf), s.config.MaxContentBytes)
	if err != nil {
		return nil, err
	}

	if !s.config.AllowReattest {
		exists, err := s.repo.ExistsByDigest(ctx, digest)
		if err != nil {
			return nil, fmt.Errorf("digest precheck: %w", err)
		}
		if exists {
			return nil, common.ErrAlreadyAttested
		}
	}

	storageKey := blob.NewStorageKey()
	if err := s.blobs.Put(ctx, storageKey, kind, &buf, size); err != nil {
		return nil, fmt.Errorf("storing content: %w", err)
	}

	rec, err := s.insertWithRetry(ctx, &attest.Record{
		OwnerID:       ownerID,
		DisplayName:   in.DisplayName,
		ContentKind:   kind,
		ContentLength: size,
		Digest:        digest,
		StorageKey:    storageKey,
	})
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Identifier:  rec.Identifier,
		Digest:      rec.Digest,
		DisplayName: rec.DisplayName,
		CreatedAt:   rec.CreatedAt,
		VerifyURL:   s.VerifyURL(rec.Identifier),
	}, nil
}

// CreateText attests pasted text, synthesizing the display name and kind
// the same way the dashboard does. Empty text is valid content: it attests
// the digest of the empty byte sequence.
func (s *Service) CreateText(ctx context.Context, ownerID, text string) (*Receipt, error) {
	return s.Create(ctx, ownerID, CreateInput{
		DisplayName: fmt.Sprintf("text-%d.txt", time.Now().UnixMilli()),
		ContentKind: "text/plain",
		Content:     strings.NewReader(text),
	})
}

// insertWithRetry inserts rec, minting its identifier; an identifier
// collision is retried exactly once with a fresh identifier. Identifiers
// carry no semantic meaning, so the retry is safe; a second collision is
// surfaced as a creation failure.
func (s *Service) insertWithRetry(ctx context.Context, rec *attest.Record) (*attest.Record, error) {
	for attempt := 0; attempt < 2; attempt++ {
		identifier, err := attest.NewIdentifier()
		if err != nil {
			return nil, fmt.Errorf("minting identifier: %w", err)
		}
		rec.Identifier = identifier

		inserted, err := s.repo.Insert(ctx, rec)
		if err == nil {
			return inserted, nil
		}
		if !errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, fmt.Errorf("recording attestation: %w", err)
		}
	}
	return nil, fmt.Errorf("recording attestation: %w", common.ErrDuplicateIdentifier)
}

// VerifyContent checks raw content against the record store.
func (s *Service) VerifyContent(ctx context.Context, r io.Reader) *attest.Result {
	return s.verifier.VerifyContent(ctx, r, s.config.MaxContentBytes)
}

// VerifyText checks pasted text against the record store.
func (s *Service) VerifyText(ctx context.Context, text string) *attest.Result {
	return s.verifier.VerifyText(ctx, text)
}

// VerifyDigest checks a caller-supplied digest against the record store.
func (s *Service) VerifyDigest(ctx context.Context, digest string) *attest.Result {
	return s.verifier.VerifyDigest(ctx, digest)
}

// VerifyIdentifier checks an attestation identifier against the record store.
func (s *Service) VerifyIdentifier(ctx context.Context, identifier string) *attest.Result {
	return s.verifier.VerifyIdentifier(ctx, identifier)
}

// List returns the owner's attestations, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*Detail, error) {
	recs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing attestations: %w", err)
	}

	details := make([]*Detail, 0, len(recs))
	for _, rec := range recs {
		details = append(details, &Detail{
			Metadata:  rec.Meta(),
			ID:        rec.ID,
			VerifyURL: s.VerifyURL(rec.Identifier),
		})
	}
	return details, nil
}

// Get returns one owned record with its share link and a short-lived
// download URL for the original content.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Detail, error) {
	rec, err := s.repo.GetForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting attestation: %w", err)
	}

	downloadURL, err := s.blobs.PresignGet(ctx, rec.StorageKey)
	if err != nil {
		// the record is still useful without a download link
		downloadURL = ""
	}

	return &Detail{
		Metadata:    rec.Meta(),
		ID:          rec.ID,
		VerifyURL:   s.VerifyURL(rec.Identifier),
		DownloadURL: downloadURL,
	}, nil
}

// Delete removes an owned record. Verification of its digest or identifier
// reports NOT_FOUND from then on; past verifications are not retroactively
// invalidated and the blob is left in place.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteForOwner(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("deleting attestation: %w", err)
	}
	return nil
}

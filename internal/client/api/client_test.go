package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristamp/veristamp/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second)
}

func TestLogin_DecodesTokenPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"access_token": "at", "refresh_token": "rt"},
		})
	})

	pair, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", pair.AccessToken)
	assert.Equal(t, "rt", pair.RefreshToken)
}

func TestLogin_UnauthorizedMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
	})

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAttestText_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"attestation_id": "ATT-1712345678901-0A0B0C0D",
				"file_hash":      strings.Repeat("ab", 32),
				"file_name":      "text-1712345678901.txt",
			},
		})
	})
	c.SetToken("tok")

	rec, err := c.AttestText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "ATT-1712345678901-0A0B0C0D", rec.Identifier)
	assert.Len(t, rec.Digest, 64)
}

func TestAttestFile_MultipartUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "contract.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"file_name": "contract.pdf"},
		})
	})
	c.SetToken("tok")

	rec, err := c.AttestFile(context.Background(), "contract.pdf", "application/pdf",
		strings.NewReader("%PDF-1.4 ..."))
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", rec.DisplayName)
}

func TestVerifyDigest_NotFoundCarriesComputedHash(t *testing.T) {
	digest := strings.Repeat("cd", 32)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, digest, r.URL.Query().Get("hash"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false, "verified": false,
			"message":       "No matching attestation found",
			"computed_hash": digest,
		})
	})

	res, err := c.VerifyDigest(context.Background(), digest)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, digest, res.ComputedHash)
	assert.Nil(t, res.Data)
}

func TestVerifyIdentifier_VerifiedCarriesMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ATT-1-00000000", r.URL.Query().Get("id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "verified": true,
			"data": map[string]any{
				"attestation_id": "ATT-1-00000000",
				"file_name":      "doc.txt",
				"file_hash":      strings.Repeat("ef", 32),
			},
		})
	})

	res, err := c.VerifyIdentifier(context.Background(), "ATT-1-00000000")
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.NotNil(t, res.Data)
	assert.Equal(t, "doc.txt", res.Data.DisplayName)
}

func TestVerify_ServerFailureIsAnErrorNotANegative(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "could not check attestation"})
	})

	_, err := c.VerifyDigest(context.Background(), strings.Repeat("ab", 32))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not check attestation")
}

func TestList_DecodesDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "count": 1,
			"data": []map[string]any{{
				"id":             "row-1",
				"attestation_id": "ATT-2-00000001",
				"file_name":      "a.txt",
				"file_size":      3,
				"download_url":   "https://blobs.example/x",
			}},
		})
	})
	c.SetToken("tok")

	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "row-1", list[0].ID)
	assert.Equal(t, int64(3), list[0].ContentSize)
}

func TestDelete_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	c.SetToken("tok")

	err := c.Delete(context.Background(), "row-404")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

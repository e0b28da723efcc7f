// Package api is the JSON HTTP client for the VeriStamp backend. It mirrors
// the server's envelope conventions: payloads arrive under "data" with a
// "success" flag, failures carry a single "error" message.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veristamp/veristamp/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Receipt struct {
	Identifier  string    `json:"attestation_id"`
	Digest      string    `json:"file_hash"`
	DisplayName string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
	VerifyURL   string    `json:"verification_url"`
}

type Detail struct {
	Receipt
	ID          string `json:"id"`
	ContentKind string `json:"file_type"`
	ContentSize int64  `json:"file_size"`
	DownloadURL string `json:"download_url"`
}

type Profile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	CreatedAt        time.Time `json:"created_at"`
	AttestationCount int64     `json:"attestation_count"`
}

// Metadata is the public record view returned for a successful verification.
type Metadata struct {
	Identifier  string    `json:"attestation_id"`
	DisplayName string    `json:"file_name"`
	ContentKind string    `json:"file_type"`
	ContentSize int64     `json:"file_size"`
	Digest      string    `json:"file_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// VerifyResult is the anonymous verification answer. Verified=false with a
// nil error means the content is genuinely not attested; transport and
// server failures surface as errors instead.
type VerifyResult struct {
	Verified     bool      `json:"verified"`
	Message      string    `json:"message"`
	ComputedHash string    `json:"computed_hash"`
	Data         *Metadata `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrAlreadyAttested, msg)
	default:
		return fmt.Errorf("server error (%d): %s", status, msg)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, common.BearerPrefix+c.token)
	}
	return req, nil
}

// do executes req and decodes the response body into out (when non-nil).
// Non-2xx statuses are turned into errors using the error envelope.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		return statusError(resp.StatusCode, env.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b), "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// --- auth ---

func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	in := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.postJSON(ctx, "/api/v1/auth/register", in, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	in := map[string]string{"email": email, "password": password}
	var out struct {
		Data TokenPair `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/v1/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	in := map[string]string{"refresh_token": refreshToken}
	var out struct {
		Data TokenPair `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/v1/auth/refresh", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/users/me", nil, "")
	if err != nil {
		return nil, err
	}
	var out struct {
		Data Profile `json:"data"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// --- attestations ---

func (c *Client) AttestText(ctx context.Context, text string) (*Receipt, error) {
	var out struct {
		Data Receipt `json:"data"`
	}
	if err := c.postJSON(ctx, "/api/v1/attestations", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// AttestFile uploads the named content as a multipart form. The reader is
// streamed as the "file" field; kind is its MIME type, best effort.
func (c *Client) AttestFile(ctx context.Context, name, kind string, content io.Reader) (*Receipt, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, name)}
	if kind != "" {
		h["Content-Type"] = []string{kind}
	}
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/attestations", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var out struct {
		Data Receipt `json:"data"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) List(ctx context.Context) ([]*Detail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/attestations", nil, "")
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []*Detail `json:"data"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/v1/attestations/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// --- verification (anonymous) ---

func (c *Client) VerifyDigest(ctx context.Context, digest string) (*VerifyResult, error) {
	return c.verifyLookup(ctx, url.Values{"hash": {digest}})
}

func (c *Client) VerifyIdentifier(ctx context.Context, identifier string) (*VerifyResult, error) {
	return c.verifyLookup(ctx, url.Values{"id": {identifier}})
}

func (c *Client) verifyLookup(ctx context.Context, q url.Values) (*VerifyResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/verify?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	var res VerifyResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) VerifyText(ctx context.Context, text string) (*VerifyResult, error) {
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/verify", bytes.NewReader(b), "application/json")
	if err != nil {
		return nil, err
	}
	var res VerifyResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

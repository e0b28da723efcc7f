package httpapi

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/veristamp/veristamp/internal/attest"
	"github.com/veristamp/veristamp/internal/common"
	"github.com/veristamp/veristamp/internal/server/attestations"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

// statusFromError maps service sentinels onto HTTP statuses.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorIncorrectInput), errors.Is(err, common.ErrNoContent):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrContentTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, common.ErrAlreadyAttested):
		return http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFromError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}
	writeError(w, status, msg)
}

// --- auth ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", user.Email)
	writeData(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tokens, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tokens, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.Profile(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}

// --- attestations ---

type textRequest struct {
	Text *string `json:"text"`
}

// contentFromRequest extracts either the uploaded file or the pasted text
// from r. The multipart form cap only bounds in-memory buffering; the true
// content size cap is enforced by the digest engine.
func contentFromRequest(r *http.Request) (multipart.File, *multipart.FileHeader, *string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, nil, nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, nil, nil, err
		}
		return file, header, nil, nil
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, nil, err
	}
	if req.Text == nil {
		return nil, nil, nil, common.ErrNoContent
	}
	return nil, nil, req.Text, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	file, header, text, err := contentFromRequest(r)
	if err != nil {
		if errors.Is(err, common.ErrNoContent) {
			writeError(w, http.StatusBadRequest, "no content supplied")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ownerID := userIDFromContext(r.Context())

	var receipt *attestations.Receipt
	if text != nil {
		receipt, err = s.attestations.CreateText(r.Context(), ownerID, *text)
	} else {
		defer file.Close()
		receipt, err = s.attestations.Create(r.Context(), ownerID, attestations.CreateInput{
			DisplayName: header.Filename,
			ContentKind: header.Header.Get("Content-Type"),
			Content:     file,
		})
	}
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "attestation created", "attestation_id", receipt.Identifier)
	writeData(w, http.StatusCreated, receipt)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.attestations.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": list, "count": len(list)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := s.attestations.Get(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.attestations.Delete(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

// --- verification (anonymous) ---

// writeVerifyResult renders a protocol result. NOT_FOUND is a successful
// negative answer (200); ERROR is 400 for bad input and 502 for a failing
// collaborator, so "could not check" is never presented as "not attested".
func (s *Server) writeVerifyResult(w http.ResponseWriter, r *http.Request, res *attest.Result) {
	switch res.Status {
	case attest.StatusVerified:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"verified": true,
			"data":     res.Record.Meta(),
		})
	case attest.StatusNotFound:
		body := map[string]any{
			"success":  false,
			"verified": false,
			"message":  "No matching attestation found",
		}
		if res.Digest != "" {
			body["computed_hash"] = res.Digest
		}
		writeJSON(w, http.StatusOK, body)
	default:
		if errors.Is(res.Err, common.ErrInvalidDigest) || errors.Is(res.Err, common.ErrNoContent) ||
			errors.Is(res.Err, common.ErrContentTooLarge) {
			writeError(w, http.StatusBadRequest, res.Err.Error())
			return
		}
		s.logger.Error(r.Context(), "verification failed", "error", res.Err.Error())
		writeError(w, http.StatusBadGateway, "could not check attestation")
	}
}

// handleVerifyLookup serves GET /api/v1/verify?hash=…|id=… with exactly one
// of the two parameters.
func (s *Server) handleVerifyLookup(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	id := r.URL.Query().Get("id")

	switch {
	case hash == "" && id == "":
		writeError(w, http.StatusBadRequest, "Missing hash or id parameter")
	case hash != "" && id != "":
		writeError(w, http.StatusBadRequest, "Provide either hash or id, not both")
	case hash != "":
		s.writeVerifyResult(w, r, s.attestations.VerifyDigest(r.Context(), hash))
	default:
		s.writeVerifyResult(w, r, s.attestations.VerifyIdentifier(r.Context(), id))
	}
}

// handleVerifyContent serves POST /api/v1/verify with raw content
// (multipart file or JSON text). The content is digested server-side and
// never stored.
func (s *Server) handleVerifyContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	file, _, text, err := contentFromRequest(r)
	if err != nil {
		if errors.Is(err, common.ErrNoContent) {
			writeError(w, http.StatusBadRequest, "no content supplied")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if text != nil {
		s.writeVerifyResult(w, r, s.attestations.VerifyText(r.Context(), *text))
		return
	}
	defer file.Close()
	s.writeVerifyResult(w, r, s.attestations.VerifyContent(r.Context(), file))
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/quorumworks/govledger/pkg/auth"
	"github.com/quorumworks/govledger/pkg/register"
)

const stateCookie = "govledger_oauth_state"

// maxUploadBytes caps document uploads at 16 MiB.
const maxUploadBytes = 16 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the register error taxonomy onto HTTP statuses: caller
// mistakes are 400, remote store failures are 502, the rest 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		unkErr *register.UnknownRecordTypeError
		encErr *register.EncodingError
		resErr *register.ResolutionError
		ioErr  *register.RemoteIOError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &unkErr), errors.As(err, &encErr):
		status = http.StatusBadRequest
	case errors.As(err, &resErr), errors.As(err, &ioErr):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// authenticate validates the session cookie, replying 401 on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, err := s.sessions.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return nil, false
	}
	return claims, true
}

// --- Auth handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauth.AuthURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("error") != "" {
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, "/?error=missing_code", http.StatusFound)
		return
	}

	if c, err := r.Cookie(stateCookie); err != nil || c.Value == "" || c.Value != q.Get("state") {
		http.Redirect(w, r, "/?error=state_mismatch", http.StatusFound)
		return
	}

	tok, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("Token exchange failed", "error", err)
		http.Redirect(w, r, "/?error=callback_failed", http.StatusFound)
		return
	}

	info, err := s.oauth.FetchUserInfo(r.Context(), tok)
	if err != nil {
		s.logger.Error("Userinfo fetch failed", "error", err)
		http.Redirect(w, r, "/?error=callback_failed", http.StatusFound)
		return
	}

	session, err := s.sessions.Issue(info.ID, info.Email, tok.AccessToken, tok.RefreshToken)
	if err != nil {
		s.logger.Error("Session issue failed", "error", err)
		http.Redirect(w, r, "/?error=callback_failed", http.StatusFound)
		return
	}

	s.sessions.SetCookie(w, session)
	s.logger.Info("User signed in", "email", info.Email)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// --- Register handlers ---

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEntries(w, r)
	case http.MethodPost:
		s.createEntry(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	reg, _, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var entries []register.Entry
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t, perr := register.ParseRecordType(typeParam)
		if perr != nil {
			s.writeError(w, perr)
			return
		}
		entries, err = reg.Entries(r.Context(), t)
	} else {
		entries, err = reg.CurrentWeekEntries(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, perr := strconv.Atoi(limitParam)
		if perr != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		// Keep the most recent rows.
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var e register.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		var unkErr *register.UnknownRecordTypeError
		if errors.As(err, &unkErr) {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	reg, _, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := reg.Append(r.Context(), e); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Document handlers ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.uploadDocument(w, r)
	case http.MethodGet:
		s.listDocuments(w, r)
	case http.MethodDelete:
		s.deleteDocument(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read file"})
		return
	}

	_, bucket, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := bucket.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "file": res})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	_, bucket, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}

	files, err := bucket.ListWeekFiles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file id required"})
		return
	}

	_, bucket, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := bucket.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Summary and links ---

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	reg, _, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}

	entries, err := reg.CurrentWeekEntries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	text, err := s.summarizer.Summarize(r.Context(), entries)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	reg, bucket, err := s.registerFor(r.Context(), claims)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sheetLink, err := reg.SpreadsheetLink(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	folderLink, err := bucket.WeekFolderLink(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"spreadsheet": sheetLink,
		"folder":      folderLink,
	})
}

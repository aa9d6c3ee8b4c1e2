package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumworks/govledger/pkg/auth"
	"github.com/quorumworks/govledger/pkg/register"
	"github.com/quorumworks/govledger/pkg/remote"
)

var testInstant = time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC) // a Wednesday

type stubSummarizer struct {
	text string
	err  error
	got  []register.Entry
}

func (s *stubSummarizer) Summarize(ctx context.Context, entries []register.Entry) (string, error) {
	s.got = entries
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type fixture struct {
	server     *Server
	handler    http.Handler
	mock       *remote.MockStore
	sessions   *auth.Sessions
	summarizer *stubSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := remote.NewMockStore()
	sessions := auth.NewSessions("test-secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	summarizer := &stubSummarizer{text: "- weekly summary"}

	srv := NewServer(Config{
		Sessions: sessions,
		OAuth:    auth.NewOAuth("client-id", "client-secret", "http://localhost/auth/callback"),
		Stores: func(ctx context.Context, claims *auth.Claims) (remote.ContainerStore, remote.TabularStore, error) {
			return mock, mock, nil
		},
		Summarizer: summarizer,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      func() time.Time { return testInstant },
	})

	return &fixture{
		server:     srv,
		handler:    srv.Handler(),
		mock:       mock,
		sessions:   sessions,
		summarizer: summarizer,
	}
}

func (f *fixture) authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	token, err := f.sessions.Issue("user-1", "alice@example.com", "access-token", "")
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEntries_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/entries?type=decision", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEntries_CreateAndList(t *testing.T) {
	f := newFixture(t)

	body := `{"type":"decision","title":"Adopt schema v2","description":"desc","status":"Approved","owner":"alice","impact":"High"}`
	rec := f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(f.authedRequest(t, http.MethodGet, "/api/entries?type=decision", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []register.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "decision-0", resp.Entries[0].ID)
	require.Equal(t, "Adopt schema v2", resp.Entries[0].Title)
	require.Equal(t, register.DecisionDetail{Status: "Approved", Owner: "alice", Impact: "High"}, resp.Entries[0].Detail)
}

func TestEntries_ListWithoutTypeReturnsCurrentWeek(t *testing.T) {
	f := newFixture(t)

	body := `{"type":"risk","title":"Vendor lock-in","description":"d","severity":"Medium"}`
	rec := f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(f.authedRequest(t, http.MethodGet, "/api/entries", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []register.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	require.Equal(t, register.TypeRisk, resp.Entries[0].Type)
}

func TestEntries_Limit(t *testing.T) {
	f := newFixture(t)

	for _, title := range []string{"one", "two", "three"} {
		body := `{"type":"dataset","title":"` + title + `","description":"d"}`
		rec := f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(f.authedRequest(t, http.MethodGet, "/api/entries?type=dataset&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []register.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	require.Equal(t, "two", resp.Entries[0].Title)
	require.Equal(t, "three", resp.Entries[1].Title)
}

func TestEntries_UnknownTypeIs400(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.authedRequest(t, http.MethodGet, "/api/entries?type=minutes", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"type":"minutes","title":"t","description":"d"}`
	rec = f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntries_MissingTitleIs400(t *testing.T) {
	f := newFixture(t)

	body := `{"type":"decision","description":"d"}`
	rec := f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntries_RemoteFailureIs502(t *testing.T) {
	f := newFixture(t)
	f.mock.SearchErr = context.DeadlineExceeded

	rec := f.do(f.authedRequest(t, http.MethodGet, "/api/entries?type=decision", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload_RoundTrip(t *testing.T) {
	f := newFixture(t)

	buf, contentType := multipartBody(t, "minutes.pdf", "minutes")
	req := f.authedRequest(t, http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploadResp struct {
		File remote.Resource `json:"file"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	require.Equal(t, "minutes.pdf", uploadResp.File.Name)

	rec = f.do(f.authedRequest(t, http.MethodGet, "/api/upload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Files []remote.Resource `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Files, 1)

	rec = f.do(f.authedRequest(t, http.MethodDelete, "/api/upload?id="+uploadResp.File.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(f.authedRequest(t, http.MethodGet, "/api/upload", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Empty(t, listResp.Files)
}

func TestUpload_NoFileIs400(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())

	req := f.authedRequest(t, http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := f.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary_PassesCurrentWeekEntries(t *testing.T) {
	f := newFixture(t)

	body := `{"type":"decision","title":"t","description":"d","status":"Approved"}`
	rec := f.do(f.authedRequest(t, http.MethodPost, "/api/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(f.authedRequest(t, http.MethodPost, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"summary":"- weekly summary"}`, rec.Body.String())
	require.Len(t, f.summarizer.got, 1)
}

func TestLinks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.authedRequest(t, http.MethodGet, "/api/links", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp["spreadsheet"], "https://mock.local/spreadsheets/")
	require.NotEmpty(t, resp["folder"])
}

func TestLogin_RedirectsToConsent(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc := rec.Header().Get("Location")
	require.Contains(t, loc, "accounts.google.com")
	require.Contains(t, loc, "state=")
	require.Contains(t, loc, "access_type=offline")

	var stateSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookie && c.Value != "" {
			stateSet = true
		}
	}
	require.True(t, stateSet, "state cookie must be set")
}

func TestCallback_StateMismatch(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "good"})
	rec := f.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/?error=state_mismatch", rec.Header().Get("Location"))
}

func TestCallback_MissingCode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/?error=missing_code", rec.Header().Get("Location"))
}

func TestLogout_ClearsSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(f.authedRequest(t, http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.SessionCookie, cookies[0].Name)
	require.Less(t, cookies[0].MaxAge, 0)
}

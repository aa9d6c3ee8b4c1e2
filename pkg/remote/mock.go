package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is a deterministic in-memory implementation of both store
// contracts. It backs unit tests and the CLI's hidden mock mode, and counts
// remote calls so tests can pin resolution idempotency.
type MockStore struct {
	mu        sync.Mutex
	seq       int
	resources map[string]Resource
	deleted   map[string]bool
	// spreadsheetID -> sheet title -> rows (header excluded; data rows only)
	rows    map[string]map[string][][]string
	headers map[string]map[string][]string
	clock   func() time.Time

	// Call counters.
	SearchCalls int
	CreateCalls int
	AppendCalls int
	ReadCalls   int

	// Error injection. A non-nil value fails the matching operation.
	SearchErr error
	CreateErr error
	AppendErr error
	ReadErr   error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		resources: make(map[string]Resource),
		deleted:   make(map[string]bool),
		rows:      make(map[string]map[string][][]string),
		headers:   make(map[string]map[string][]string),
		clock:     time.Now,
	}
}

// WithClock overrides the creation-time stamp source.
func (m *MockStore) WithClock(now func() time.Time) *MockStore {
	m.clock = now
	return m
}

func (m *MockStore) nextID(kind Kind) string {
	m.seq++
	return fmt.Sprintf("mock-%s-%d", kind, m.seq)
}

func (m *MockStore) Search(ctx context.Context, kind Kind, name, parentID string) ([]Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	var out []Resource
	for _, r := range m.resources {
		if m.deleted[r.ID] || r.Kind != kind || r.Name != name {
			continue
		}
		if parentID != "" && r.ParentID != parentID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) CreateFolder(ctx context.Context, name, parentID string) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return Resource{}, m.CreateErr
	}

	r := Resource{
		ID:       m.nextID(KindFolder),
		Name:     name,
		Kind:     KindFolder,
		ParentID: parentID,
		Created:  m.clock(),
	}
	r.Link = "https://mock.local/folders/" + r.ID
	m.resources[r.ID] = r
	return r, nil
}

func (m *MockStore) Link(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok || m.deleted[id] {
		return "", fmt.Errorf("mock: resource %s not found", id)
	}
	return r.Link, nil
}

func (m *MockStore) Upload(ctx context.Context, parentID, name, mimeType string, data []byte) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return Resource{}, m.CreateErr
	}

	m.seq++
	r := Resource{
		ID:       fmt.Sprintf("mock-file-%d", m.seq),
		Name:     name,
		ParentID: parentID,
		MIMEType: mimeType,
		Created:  m.clock(),
	}
	r.Link = "https://mock.local/files/" + r.ID
	m.resources[r.ID] = r
	return r, nil
}

func (m *MockStore) ListChildren(ctx context.Context, parentID string) ([]Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Resource
	for _, r := range m.resources {
		if r.ParentID == parentID && !m.deleted[r.ID] {
			out = append(out, r)
		}
	}
	// Newest first, mirroring the drive listing order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok || m.deleted[id] {
		return fmt.Errorf("mock: resource %s not found", id)
	}
	m.deleted[id] = true
	return nil
}

func (m *MockStore) CreateSpreadsheet(ctx context.Context, title string, sheetTitles []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	r := Resource{
		ID:      m.nextID(KindSpreadsheet),
		Name:    title,
		Kind:    KindSpreadsheet,
		Created: m.clock(),
	}
	r.Link = "https://mock.local/spreadsheets/" + r.ID
	m.resources[r.ID] = r

	sheets := make(map[string][][]string, len(sheetTitles))
	for _, t := range sheetTitles {
		sheets[t] = nil
	}
	m.rows[r.ID] = sheets
	m.headers[r.ID] = make(map[string][]string)
	return r.ID, nil
}

func (m *MockStore) WriteHeaderRows(ctx context.Context, spreadsheetID string, headers map[string][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[spreadsheetID]; !ok {
		return fmt.Errorf("mock: spreadsheet %s not found", spreadsheetID)
	}
	for sheet, cols := range headers {
		m.headers[spreadsheetID][sheet] = append([]string(nil), cols...)
	}
	return nil
}

func (m *MockStore) AppendRow(ctx context.Context, spreadsheetID, sheetTitle string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendErr != nil {
		return m.AppendErr
	}

	sheets, ok := m.rows[spreadsheetID]
	if !ok {
		return fmt.Errorf("mock: spreadsheet %s not found", spreadsheetID)
	}
	if _, ok := sheets[sheetTitle]; !ok {
		return fmt.Errorf("mock: sheet %q not found in %s", sheetTitle, spreadsheetID)
	}
	sheets[sheetTitle] = append(sheets[sheetTitle], append([]string(nil), values...))
	return nil
}

func (m *MockStore) ReadRows(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	sheets, ok := m.rows[spreadsheetID]
	if !ok {
		return nil, fmt.Errorf("mock: spreadsheet %s not found", spreadsheetID)
	}
	rows := sheets[sheetTitle]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *MockStore) SpreadsheetLink(spreadsheetID string) string {
	return "https://mock.local/spreadsheets/" + spreadsheetID
}

// Headers returns the header row written for a sheet, for assertions.
func (m *MockStore) Headers(spreadsheetID, sheetTitle string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.headers[spreadsheetID]; ok {
		return h[sheetTitle]
	}
	return nil
}

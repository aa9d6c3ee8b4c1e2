// Package remote defines the narrow contracts GovLedger consumes from the
// hosted container and tabular stores. Implementations live in subpackages;
// the in-memory mock in this package backs tests and the CLI's mock mode.
package remote

import (
	"context"
	"time"
)

// Kind classifies a remote container.
type Kind string

const (
	KindFolder      Kind = "folder"
	KindSpreadsheet Kind = "spreadsheet"
)

// Resource is a named remote object that can be searched, created, and
// referenced by ID.
type Resource struct {
	ID       string
	Name     string
	Kind     Kind
	ParentID string
	MIMEType string
	Link     string
	Created  time.Time
}

// ContainerStore is the folder/file side of the remote store. Search must
// exclude soft-deleted resources. An empty parentID means "anywhere".
type ContainerStore interface {
	Search(ctx context.Context, kind Kind, name, parentID string) ([]Resource, error)
	CreateFolder(ctx context.Context, name, parentID string) (Resource, error)
	Link(ctx context.Context, id string) (string, error)
	Upload(ctx context.Context, parentID, name, mimeType string, data []byte) (Resource, error)
	ListChildren(ctx context.Context, parentID string) ([]Resource, error)
	Delete(ctx context.Context, id string) error
}

// TabularStore is the spreadsheet side of the remote store. Row order within
// a sheet is append order and is preserved by the store.
type TabularStore interface {
	CreateSpreadsheet(ctx context.Context, title string, sheetTitles []string) (string, error)
	WriteHeaderRows(ctx context.Context, spreadsheetID string, headers map[string][]string) error
	AppendRow(ctx context.Context, spreadsheetID, sheetTitle string, values []string) error
	ReadRows(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error)
	SpreadsheetLink(spreadsheetID string) string
}

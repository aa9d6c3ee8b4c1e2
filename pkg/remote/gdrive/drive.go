// Package gdrive implements the remote store contracts on the Google Drive
// and Google Sheets APIs.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/quorumworks/govledger/pkg/remote"
)

const (
	mimeFolder      = "application/vnd.google-apps.folder"
	mimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

	resourceFields = "files(id, name, mimeType, parents, webViewLink, createdTime)"
)

// DriveStore implements remote.ContainerStore on the Drive v3 API. All
// resources it creates carry the drive.file scope, so the app only ever
// sees files it created itself.
type DriveStore struct {
	Service *drive.Service
}

// NewDriveStore builds a Drive client from the user's token source.
func NewDriveStore(ctx context.Context, ts oauth2.TokenSource) (*DriveStore, error) {
	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %v", err)
	}
	return &DriveStore{Service: srv}, nil
}

func mimeFor(kind remote.Kind) string {
	if kind == remote.KindSpreadsheet {
		return mimeSpreadsheet
	}
	return mimeFolder
}

func kindFor(mimeType string) remote.Kind {
	if mimeType == mimeSpreadsheet {
		return remote.KindSpreadsheet
	}
	return remote.KindFolder
}

// escapeQuery escapes single quotes in user-supplied names embedded in a
// Drive query string.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toResource(f *drive.File) remote.Resource {
	r := remote.Resource{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     kindFor(f.MimeType),
		MIMEType: f.MimeType,
		Link:     f.WebViewLink,
	}
	if len(f.Parents) > 0 {
		r.ParentID = f.Parents[0]
	}
	if f.CreatedTime != "" {
		if ts, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			r.Created = ts
		}
	}
	return r
}

// Search finds non-trashed resources by exact name and kind, optionally
// scoped to a parent folder.
func (d *DriveStore) Search(ctx context.Context, kind remote.Kind, name, parentID string) ([]remote.Resource, error) {
	terms := []string{
		fmt.Sprintf("name = '%s'", escapeQuery(name)),
		fmt.Sprintf("mimeType = '%s'", mimeFor(kind)),
		"trashed = false",
	}
	if parentID != "" {
		terms = append(terms, fmt.Sprintf("'%s' in parents", escapeQuery(parentID)))
	}

	resp, err := d.Service.Files.List().
		Q(strings.Join(terms, " and ")).
		Spaces("drive").
		Fields(resourceFields).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %v", name, err)
	}

	out := make([]remote.Resource, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, toResource(f))
	}
	return out, nil
}

// CreateFolder creates a folder, optionally inside a parent.
func (d *DriveStore) CreateFolder(ctx context.Context, name, parentID string) (remote.Resource, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: mimeFolder,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := d.Service.Files.Create(meta).
		Fields("id, name, mimeType, parents, webViewLink, createdTime").
		Context(ctx).Do()
	if err != nil {
		return remote.Resource{}, fmt.Errorf("failed to create folder %q: %v", name, err)
	}
	return toResource(f), nil
}

// Link fetches the shareable web link for a resource.
func (d *DriveStore) Link(ctx context.Context, id string) (string, error) {
	f, err := d.Service.Files.Get(id).Fields("webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get link for %s: %v", id, err)
	}
	return f.WebViewLink, nil
}

// Upload stores a document inside a parent folder.
func (d *DriveStore) Upload(ctx context.Context, parentID, name, mimeType string, data []byte) (remote.Resource, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}

	f, err := d.Service.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id, name, mimeType, parents, webViewLink, createdTime").
		Context(ctx).Do()
	if err != nil {
		return remote.Resource{}, fmt.Errorf("failed to upload %q: %v", name, err)
	}
	return toResource(f), nil
}

// ListChildren lists a folder's non-trashed contents, newest first.
func (d *DriveStore) ListChildren(ctx context.Context, parentID string) ([]remote.Resource, error) {
	resp, err := d.Service.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))).
		Spaces("drive").
		OrderBy("createdTime desc").
		Fields(resourceFields).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %v", parentID, err)
	}

	out := make([]remote.Resource, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, toResource(f))
	}
	return out, nil
}

// Delete soft-deletes a resource by moving it to the trash, so Search and
// ListChildren stop returning it but the user can still recover it.
func (d *DriveStore) Delete(ctx context.Context, id string) error {
	_, err := d.Service.Files.Update(id, &drive.File{Trashed: true}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash %s: %v", id, err)
	}
	return nil
}

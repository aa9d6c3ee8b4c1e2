package docs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/register"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/rescache"
)

var testInstant = time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC) // a Wednesday

func newTestBucket(mock *remote.MockStore) *Bucket {
	ttls := config.DefaultCacheTTLs()
	resolver := register.NewResolver(register.ResolverConfig{
		Containers:       mock,
		Tabular:          mock,
		FolderCache:      rescache.New(ttls.Folder),
		SpreadsheetCache: rescache.New(ttls.Spreadsheet),
		Tenant:           "user-1",
	})
	return New(Config{
		Resolver:   resolver,
		Containers: mock,
		Clock:      func() time.Time { return testInstant },
	})
}

func TestUpload_FilesUnderWeekFolder(t *testing.T) {
	mock := remote.NewMockStore()
	b := newTestBucket(mock)
	ctx := context.Background()

	res, err := b.Upload(ctx, "minutes.pdf", "application/pdf", []byte("minutes"))
	require.NoError(t, err)
	require.Equal(t, "minutes.pdf", res.Name)
	require.NotEmpty(t, res.ID)

	files, err := b.ListWeekFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, res.ID, files[0].ID)

	// Root and week folders exist with the expected names.
	roots, err := mock.Search(ctx, remote.KindFolder, config.RootFolderName, "")
	require.NoError(t, err)
	require.Len(t, roots, 1)

	weeks, err := mock.Search(ctx, remote.KindFolder, "Week 2026-08-24", roots[0].ID)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	require.Equal(t, weeks[0].ID, res.ParentID)
}

func TestUpload_ReusesFolderChain(t *testing.T) {
	mock := remote.NewMockStore()
	b := newTestBucket(mock)
	ctx := context.Background()

	_, err := b.Upload(ctx, "a.pdf", "application/pdf", []byte("a"))
	require.NoError(t, err)
	_, err = b.Upload(ctx, "b.pdf", "application/pdf", []byte("b"))
	require.NoError(t, err)

	// Root plus week folder, created once each.
	require.Equal(t, 2, mock.CreateCalls)

	files, err := b.ListWeekFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestListWeekFiles_NewestFirst(t *testing.T) {
	clk := testInstant
	mock := remote.NewMockStore().WithClock(func() time.Time {
		clk = clk.Add(time.Minute)
		return clk
	})
	b := newTestBucket(mock)
	ctx := context.Background()

	_, err := b.Upload(ctx, "old.pdf", "application/pdf", []byte("old"))
	require.NoError(t, err)
	_, err = b.Upload(ctx, "new.pdf", "application/pdf", []byte("new"))
	require.NoError(t, err)

	files, err := b.ListWeekFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "new.pdf", files[0].Name)
	require.Equal(t, "old.pdf", files[1].Name)
}

func TestDelete_RemovesFromListing(t *testing.T) {
	mock := remote.NewMockStore()
	b := newTestBucket(mock)
	ctx := context.Background()

	res, err := b.Upload(ctx, "draft.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, res.ID))

	files, err := b.ListWeekFiles(ctx)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestUpload_SearchFailureSurfacesResolutionError(t *testing.T) {
	mock := remote.NewMockStore()
	b := newTestBucket(mock)
	mock.SearchErr = context.DeadlineExceeded

	_, err := b.Upload(context.Background(), "x.pdf", "application/pdf", []byte("x"))
	var resErr *register.ResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestWeekFolderLink(t *testing.T) {
	mock := remote.NewMockStore()
	b := newTestBucket(mock)

	link, err := b.WeekFolderLink(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, link)
}

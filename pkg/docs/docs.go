// Package docs manages the weekly document bucket: a root workflow folder
// holding one subfolder per week, where supporting documents are filed.
package docs

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/register"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/week"
)

// Bucket files documents under the current week's folder. It shares the
// register's resolver so folder lookups hit the same cache and tenant scope.
type Bucket struct {
	resolver   *register.Resolver
	containers remote.ContainerStore
	rootName   string
	now        week.Clock
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Config wires a document bucket.
type Config struct {
	Resolver   *register.Resolver
	Containers remote.ContainerStore

	// RootName defaults to config.RootFolderName.
	RootName string

	Clock  week.Clock
	Logger *slog.Logger
}

// New initializes a document bucket.
func New(cfg Config) *Bucket {
	if cfg.RootName == "" {
		cfg.RootName = config.RootFolderName
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bucket{
		resolver:   cfg.Resolver,
		containers: cfg.Containers,
		rootName:   cfg.RootName,
		now:        cfg.Clock,
		logger:     cfg.Logger,
		tracer:     otel.Tracer("govledger/docs"),
	}
}

// weekFolderID resolves root and week folders, creating either on first use.
func (b *Bucket) weekFolderID(ctx context.Context) (string, error) {
	rootID, err := b.resolver.FindOrCreate(ctx, remote.KindFolder, b.rootName, "")
	if err != nil {
		return "", err
	}
	name := week.FolderName(week.Current(b.now))
	return b.resolver.FindOrCreate(ctx, remote.KindFolder, name, rootID)
}

// Upload files a document in the current week's folder.
func (b *Bucket) Upload(ctx context.Context, name, mimeType string, data []byte) (remote.Resource, error) {
	ctx, span := b.tracer.Start(ctx, "docs.Upload", trace.WithAttributes(
		attribute.String("doc.name", name),
		attribute.Int("doc.size", len(data)),
	))
	defer span.End()

	folderID, err := b.weekFolderID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return remote.Resource{}, err
	}

	res, err := b.containers.Upload(ctx, folderID, name, mimeType, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return remote.Resource{}, &register.RemoteIOError{Op: "upload", Err: err}
	}
	b.logger.Info("Uploaded document", "name", name, "week", week.Current(b.now))
	return res, nil
}

// ListWeekFiles lists the current week's documents, newest first.
func (b *Bucket) ListWeekFiles(ctx context.Context) ([]remote.Resource, error) {
	ctx, span := b.tracer.Start(ctx, "docs.ListWeekFiles")
	defer span.End()

	folderID, err := b.weekFolderID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	files, err := b.containers.ListChildren(ctx, folderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &register.RemoteIOError{Op: "fetch", Err: err}
	}
	span.SetAttributes(attribute.Int("doc.count", len(files)))
	return files, nil
}

// Delete removes one document. The week folder itself is never deleted.
func (b *Bucket) Delete(ctx context.Context, fileID string) error {
	ctx, span := b.tracer.Start(ctx, "docs.Delete", trace.WithAttributes(
		attribute.String("doc.id", fileID),
	))
	defer span.End()

	if err := b.containers.Delete(ctx, fileID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &register.RemoteIOError{Op: "delete", Err: err}
	}
	return nil
}

// WeekFolderLink returns the shareable link for the current week's folder,
// creating the folder chain if needed.
func (b *Bucket) WeekFolderLink(ctx context.Context) (string, error) {
	folderID, err := b.weekFolderID(ctx)
	if err != nil {
		return "", err
	}
	link, err := b.containers.Link(ctx, folderID)
	if err != nil {
		return "", &register.RemoteIOError{Op: "fetch", Err: err}
	}
	return link, nil
}

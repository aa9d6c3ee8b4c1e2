package register

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/rescache"
)

// Resolver maps logical container names to remote resource IDs with
// find-or-create semantics. Resolution is idempotent for a single caller;
// concurrent first-time creation by two processes can race and duplicate,
// which the remote store cannot prevent without a compare-and-swap.
type Resolver struct {
	containers remote.ContainerStore
	tabular    remote.TabularStore
	folders    *rescache.Cache
	sheets     *rescache.Cache
	tenant     string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// ResolverConfig wires a resolver. Caches are shared process-wide so that
// every request-scoped resolver for the same tenant reuses prior lookups.
type ResolverConfig struct {
	Containers remote.ContainerStore
	Tabular    remote.TabularStore

	// FolderCache and SpreadsheetCache carry the per-class TTL policy.
	FolderCache      *rescache.Cache
	SpreadsheetCache *rescache.Cache

	// Tenant is a stable user identifier scoping cache keys. Never derive it
	// from the access token: tokens rotate and prefixes collide.
	Tenant string

	Logger *slog.Logger
}

// NewResolver initializes a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		containers: cfg.Containers,
		tabular:    cfg.Tabular,
		folders:    cfg.FolderCache,
		sheets:     cfg.SpreadsheetCache,
		tenant:     cfg.Tenant,
		logger:     logger,
		tracer:     otel.Tracer("govledger/resolver"),
	}
}

func (r *Resolver) cacheFor(kind remote.Kind) *rescache.Cache {
	if kind == remote.KindSpreadsheet {
		return r.sheets
	}
	return r.folders
}

func (r *Resolver) cacheKey(kind remote.Kind, name, parentID string) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.tenant, kind, parentID, name)
}

// FindOrCreate resolves a named container under parentID (empty for
// top-level), creating it when absent. A non-expired cache hit returns
// without any remote call. For the spreadsheet kind, creation also
// provisions one sheet per record type and writes the header rows.
func (r *Resolver) FindOrCreate(ctx context.Context, kind remote.Kind, name, parentID string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.FindOrCreate", trace.WithAttributes(
		attribute.String("resource.kind", string(kind)),
		attribute.String("resource.name", name),
	))
	defer span.End()

	key := r.cacheKey(kind, name, parentID)
	cache := r.cacheFor(kind)
	if cache != nil {
		if id, ok := cache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return id, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	found, err := r.containers.Search(ctx, kind, name, parentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &ResolutionError{Kind: string(kind), Name: name, Err: err}
	}
	if len(found) > 0 {
		// Duplicates can exist after a concurrent-create race; first match wins.
		id := found[0].ID
		if len(found) > 1 {
			r.logger.Warn("Duplicate containers found", "kind", kind, "name", name, "count", len(found))
		}
		if cache != nil {
			cache.Put(key, id)
		}
		return id, nil
	}

	id, err := r.create(ctx, kind, name, parentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &ResolutionError{Kind: string(kind), Name: name, Err: err}
	}
	if cache != nil {
		cache.Put(key, id)
	}
	r.logger.Info("Created remote container", "kind", kind, "name", name, "id", id)
	return id, nil
}

func (r *Resolver) create(ctx context.Context, kind remote.Kind, name, parentID string) (string, error) {
	if kind != remote.KindSpreadsheet {
		res, err := r.containers.CreateFolder(ctx, name, parentID)
		if err != nil {
			return "", err
		}
		return res.ID, nil
	}

	id, err := r.tabular.CreateSpreadsheet(ctx, name, SheetTitles())
	if err != nil {
		return "", err
	}
	// Headers are written exactly once, at creation.
	if err := r.tabular.WriteHeaderRows(ctx, id, HeaderRows()); err != nil {
		return "", fmt.Errorf("initialize headers: %w", err)
	}
	return id, nil
}

package register

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/rescache"
	"github.com/quorumworks/govledger/pkg/week"
)

// Register is the aggregation facade over the record store: cross-type
// weekly views, per-type listings, and share links.
type Register struct {
	store  *Store
	now    week.Clock
	logger *slog.Logger
	tracer trace.Tracer
}

// Config assembles a register for one tenant. Caches are optional; when nil
// a fresh pair with default TTLs is created, which is fine for tests but
// defeats cross-request reuse in a server.
type Config struct {
	Containers remote.ContainerStore
	Tabular    remote.TabularStore

	// Tenant scopes resolution cache keys. Required in multi-user settings.
	Tenant string

	FolderCache      *rescache.Cache
	SpreadsheetCache *rescache.Cache

	// SpreadsheetName defaults to config.SpreadsheetName.
	SpreadsheetName string

	Clock  week.Clock
	Logger *slog.Logger
}

// New assembles the resolver, store, and facade.
func New(cfg Config) *Register {
	if cfg.SpreadsheetName == "" {
		cfg.SpreadsheetName = config.SpreadsheetName
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ttls := config.DefaultCacheTTLs()
	if cfg.FolderCache == nil {
		cfg.FolderCache = rescache.New(ttls.Folder)
	}
	if cfg.SpreadsheetCache == nil {
		cfg.SpreadsheetCache = rescache.New(ttls.Spreadsheet)
	}

	resolver := NewResolver(ResolverConfig{
		Containers:       cfg.Containers,
		Tabular:          cfg.Tabular,
		FolderCache:      cfg.FolderCache,
		SpreadsheetCache: cfg.SpreadsheetCache,
		Tenant:           cfg.Tenant,
		Logger:           cfg.Logger,
	})
	store := NewStore(StoreConfig{
		Resolver:        resolver,
		Tabular:         cfg.Tabular,
		SpreadsheetName: cfg.SpreadsheetName,
		Clock:           cfg.Clock,
		Logger:          cfg.Logger,
	})

	return &Register{
		store:  store,
		now:    cfg.Clock,
		logger: cfg.Logger,
		tracer: otel.Tracer("govledger/register"),
	}
}

// Resolver exposes the shared resolver so sibling services (the weekly
// document bucket) reuse the same caches and tenant scoping.
func (r *Register) Resolver() *Resolver {
	return r.store.resolver
}

// Append records one entry.
func (r *Register) Append(ctx context.Context, e Entry) error {
	return r.store.Append(ctx, e)
}

// Entries lists every entry of one type in append order. Callers cap the
// result for presentation; the register does not.
func (r *Register) Entries(ctx context.Context, t RecordType) ([]Entry, error) {
	return r.store.Query(ctx, t)
}

// CurrentWeekEntries queries all record types concurrently, concatenates in
// canonical type order, and keeps only the current week. Any failed
// sub-query fails the whole aggregate; there is no partial result.
func (r *Register) CurrentWeekEntries(ctx context.Context) ([]Entry, error) {
	ctx, span := r.tracer.Start(ctx, "register.CurrentWeekEntries")
	defer span.End()

	types := AllRecordTypes()
	results := make([][]Entry, len(types))
	errs := make([]error, len(types))

	var wg sync.WaitGroup
	for i, t := range types {
		wg.Add(1)
		go func(i int, t RecordType) {
			defer wg.Done()
			results[i], errs[i] = r.store.Query(ctx, t)
		}(i, t)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	current := week.Current(r.now)
	out := make([]Entry, 0)
	for _, batch := range results {
		for _, e := range batch {
			if e.Week == current {
				out = append(out, e)
			}
		}
	}
	span.SetAttributes(attribute.Int("record.count", len(out)))
	return out, nil
}

// SpreadsheetLink returns the shareable register URL, resolving (and if
// needed creating) the spreadsheet first.
func (r *Register) SpreadsheetLink(ctx context.Context) (string, error) {
	return r.store.Link(ctx)
}

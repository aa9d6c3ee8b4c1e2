package register

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/week"
)

// Store appends structured entries as spreadsheet rows and decodes fetched
// rows back into entries. It never rewrites rows: the register is
// append-only, and concurrent appends from different callers are safe
// because the remote store serializes appends per sheet.
type Store struct {
	resolver        *Resolver
	tabular         remote.TabularStore
	spreadsheetName string
	now             week.Clock
	logger          *slog.Logger
	tracer          trace.Tracer
}

// StoreConfig wires a record store.
type StoreConfig struct {
	Resolver        *Resolver
	Tabular         remote.TabularStore
	SpreadsheetName string
	Clock           week.Clock
	Logger          *slog.Logger
}

// NewStore initializes a record store.
func NewStore(cfg StoreConfig) *Store {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		resolver:        cfg.Resolver,
		tabular:         cfg.Tabular,
		spreadsheetName: cfg.SpreadsheetName,
		now:             now,
		logger:          logger,
		tracer:          otel.Tracer("govledger/store"),
	}
}

// SpreadsheetID resolves the register spreadsheet.
func (s *Store) SpreadsheetID(ctx context.Context) (string, error) {
	return s.resolver.FindOrCreate(ctx, remote.KindSpreadsheet, s.spreadsheetName, "")
}

// Link returns the shareable spreadsheet URL.
func (s *Store) Link(ctx context.Context) (string, error) {
	id, err := s.SpreadsheetID(ctx)
	if err != nil {
		return "", err
	}
	return s.tabular.SpreadsheetLink(id), nil
}

// Append stamps the entry with the current timestamp and week key, encodes
// it in schema column order, and appends exactly one row to its type's
// sheet. The caller-supplied Timestamp, Week, and ID are ignored.
func (s *Store) Append(ctx context.Context, e Entry) error {
	ctx, span := s.tracer.Start(ctx, "store.Append", trace.WithAttributes(
		attribute.String("record.type", string(e.Type)),
	))
	defer span.End()

	sch, err := SchemaFor(e.Type)
	if err != nil {
		return err
	}

	ts := s.now()
	row, err := encodeRow(sch, e, ts, week.KeyFor(ts))
	if err != nil {
		return err
	}

	id, err := s.SpreadsheetID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.tabular.AppendRow(ctx, id, sch.SheetTitle, row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &RemoteIOError{Op: "append", Type: e.Type, Err: err}
	}
	s.logger.Debug("Appended entry", "type", e.Type, "week", week.KeyFor(ts))
	return nil
}

// Query fetches every data row of the type's sheet and decodes positionally.
// Order matches remote append order; IDs are synthetic "{type}-{rowIndex}"
// with a 0-based index among data rows.
func (s *Store) Query(ctx context.Context, t RecordType) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "store.Query", trace.WithAttributes(
		attribute.String("record.type", string(t)),
	))
	defer span.End()

	sch, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	id, err := s.SpreadsheetID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := s.tabular.ReadRows(ctx, id, sch.SheetTitle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &RemoteIOError{Op: "fetch", Type: t, Err: err}
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, decodeRow(t, i, row))
	}
	span.SetAttributes(attribute.Int("record.count", len(entries)))
	return entries, nil
}

// encodeRow lays an entry out in schema column order. Title and description
// are required; absent optionals encode as empty strings, an absent amount
// as 0.
func encodeRow(sch Schema, e Entry, ts time.Time, wk week.Key) ([]string, error) {
	if e.Title == "" {
		return nil, &EncodingError{Type: sch.Type, Field: "title"}
	}
	if e.Description == "" {
		return nil, &EncodingError{Type: sch.Type, Field: "description"}
	}
	if e.Detail != nil && e.Detail.recordType() != sch.Type {
		return nil, &EncodingError{Type: sch.Type, Field: "detail"}
	}

	head := []string{ts.UTC().Format(time.RFC3339), wk.String(), e.Title, e.Description}

	switch sch.Type {
	case TypeDecision:
		d, _ := e.Detail.(DecisionDetail)
		return append(head, d.Status, d.Owner, d.Impact), nil
	case TypeRisk:
		d, _ := e.Detail.(RiskDetail)
		return append(head, d.Severity, d.Likelihood, d.Mitigation, d.Owner), nil
	case TypeDataset:
		d, _ := e.Detail.(DatasetDetail)
		return append(head, d.Source, d.Status, d.Owner), nil
	case TypeFinancial:
		d, _ := e.Detail.(FinancialDetail)
		return append(head, formatAmount(d.Amount), d.Category, d.Status), nil
	}
	return nil, &UnknownRecordTypeError{Value: string(sch.Type)}
}

// decodeRow is positional and forgiving: short rows yield unset trailing
// fields, a malformed timestamp yields a zero time, and an unparseable
// amount yields nil rather than zero. The financial amount always reads
// from the Amount column, never from Status.
func decodeRow(t RecordType, index int, row []string) Entry {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	e := Entry{
		ID:          fmt.Sprintf("%s-%d", t, index),
		Week:        week.Key(cell(1)),
		Type:        t,
		Title:       cell(2),
		Description: cell(3),
	}
	if ts, err := time.Parse(time.RFC3339, cell(0)); err == nil {
		e.Timestamp = ts
	}

	switch t {
	case TypeDecision:
		e.Detail = DecisionDetail{Status: cell(4), Owner: cell(5), Impact: cell(6)}
	case TypeRisk:
		e.Detail = RiskDetail{Severity: cell(4), Likelihood: cell(5), Mitigation: cell(6), Owner: cell(7)}
	case TypeDataset:
		e.Detail = DatasetDetail{Source: cell(4), Status: cell(5), Owner: cell(6)}
	case TypeFinancial:
		e.Detail = FinancialDetail{Amount: parseAmount(cell(4)), Category: cell(5), Status: cell(6)}
	}
	return e
}

package register

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/week"
)

var testInstant = time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC) // a Wednesday

func newTestStore(mock *remote.MockStore) *Store {
	return NewStore(StoreConfig{
		Resolver:        newTestResolver(mock),
		Tabular:         mock,
		SpreadsheetName: "Governance Register",
		Clock:           func() time.Time { return testInstant },
	})
}

func amount(v float64) *float64 { return &v }

func TestAppendThenQuery_Decision(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	err := s.Append(ctx, Entry{
		Type:        TypeDecision,
		Title:       "Adopt schema v2",
		Description: "Migrate all registers to the v2 column layout",
		Detail:      DecisionDetail{Status: "Approved", Owner: "alice", Impact: "High"},
	})
	require.NoError(t, err)

	got, err := s.Query(ctx, TypeDecision)
	require.NoError(t, err)
	require.Len(t, got, 1)

	e := got[0]
	require.Equal(t, "decision-0", e.ID)
	require.Equal(t, "Adopt schema v2", e.Title)
	require.Equal(t, "Migrate all registers to the v2 column layout", e.Description)
	require.Equal(t, DecisionDetail{Status: "Approved", Owner: "alice", Impact: "High"}, e.Detail)
	require.False(t, e.Timestamp.IsZero())
	require.Equal(t, week.KeyFor(testInstant), e.Week)
}

func TestAppend_StampsWeekAndTimestampItself(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)

	// Caller-supplied partition fields are ignored, never trusted.
	err := s.Append(context.Background(), Entry{
		ID:          "bogus-99",
		Timestamp:   time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Week:        "1999-01-01",
		Type:        TypeRisk,
		Title:       "Vendor lock-in",
		Description: "Single supplier for storage",
		Detail:      RiskDetail{Severity: "Medium", Likelihood: "Low", Mitigation: "Dual-source", Owner: "bob"},
	})
	require.NoError(t, err)

	got, err := s.Query(context.Background(), TypeRisk)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "risk-0", got[0].ID)
	require.Equal(t, week.KeyFor(testInstant), got[0].Week)
	require.Equal(t, testInstant, got[0].Timestamp)
}

func TestRoundTrip_AllRecordTypes(t *testing.T) {
	cases := []Entry{
		{
			Type: TypeDecision, Title: "Adopt schema v2", Description: "desc",
			Detail: DecisionDetail{Status: "Approved", Owner: "alice", Impact: "High"},
		},
		{
			Type: TypeRisk, Title: "Data residency", Description: "desc",
			Detail: RiskDetail{Severity: "High", Likelihood: "Medium", Mitigation: "Regional buckets", Owner: "carol"},
		},
		{
			Type: TypeDataset, Title: "Customer churn", Description: "desc",
			Detail: DatasetDetail{Source: "warehouse", Status: "Active", Owner: "dave"},
		},
		{
			Type: TypeFinancial, Title: "Q3 audit", Description: "desc",
			Detail: FinancialDetail{Amount: amount(1250.50), Category: "Compliance", Status: "Actual"},
		},
	}

	for _, in := range cases {
		t.Run(string(in.Type), func(t *testing.T) {
			mock := remote.NewMockStore()
			s := newTestStore(mock)
			ctx := context.Background()

			require.NoError(t, s.Append(ctx, in))
			got, err := s.Query(ctx, in.Type)
			require.NoError(t, err)
			require.Len(t, got, 1)
			require.Equal(t, in.Title, got[0].Title)
			require.Equal(t, in.Description, got[0].Description)
			require.Equal(t, in.Detail, got[0].Detail)
		})
	}
}

func TestQuery_PreservesAppendOrder(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, s.Append(ctx, Entry{
			Type: TypeDataset, Title: title, Description: "d",
			Detail: DatasetDetail{},
		}))
	}

	got, err := s.Query(ctx, TypeDataset)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "dataset-0", got[0].ID)
	require.Equal(t, "first", got[0].Title)
	require.Equal(t, "dataset-2", got[2].ID)
	require.Equal(t, "third", got[2].Title)
}

// Pins the amount-column fix: the decoded amount comes from the Amount
// column, never from Status, and an empty amount cell is unset, not zero.
func TestQuery_FinancialAmountReadsAmountColumn(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	id, err := s.SpreadsheetID(ctx)
	require.NoError(t, err)

	require.NoError(t, mock.AppendRow(ctx, id, "Financial",
		[]string{"2026-08-26T10:00:00Z", "2026-08-24", "Audit fee", "External audit", "250", "Compliance", "Actual"}))
	require.NoError(t, mock.AppendRow(ctx, id, "Financial",
		[]string{"2026-08-26T11:00:00Z", "2026-08-24", "Placeholder", "No amount yet", "", "Compliance", "Actual"}))

	got, err := s.Query(ctx, TypeFinancial)
	require.NoError(t, err)
	require.Len(t, got, 2)

	withAmount := got[0].Detail.(FinancialDetail)
	require.NotNil(t, withAmount.Amount)
	require.Equal(t, 250.0, *withAmount.Amount)
	require.Equal(t, "Actual", withAmount.Status)

	unset := got[1].Detail.(FinancialDetail)
	require.Nil(t, unset.Amount, "empty amount cell must decode unset, not 0 and not parse(Status)")
	require.Equal(t, "Actual", unset.Status)
}

func TestQuery_ShortRowsYieldUnsetTrailingFields(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	id, err := s.SpreadsheetID(ctx)
	require.NoError(t, err)

	// Only timestamp, week, and title present.
	require.NoError(t, mock.AppendRow(ctx, id, "Risks",
		[]string{"2026-08-26T10:00:00Z", "2026-08-24", "Bare risk"}))

	got, err := s.Query(ctx, TypeRisk)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Bare risk", got[0].Title)
	require.Empty(t, got[0].Description)
	require.Equal(t, RiskDetail{}, got[0].Detail)
}

func TestAppend_MissingRequiredFields(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	err := s.Append(ctx, Entry{Type: TypeDecision, Description: "no title", Detail: DecisionDetail{}})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "title", encErr.Field)

	err = s.Append(ctx, Entry{Type: TypeDecision, Title: "no description", Detail: DecisionDetail{}})
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "description", encErr.Field)

	// Nothing may reach the remote store on an encoding failure.
	require.Zero(t, mock.AppendCalls)
}

func TestAppend_DetailTypeMismatch(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)

	err := s.Append(context.Background(), Entry{
		Type: TypeDecision, Title: "t", Description: "d",
		Detail: RiskDetail{Severity: "High"},
	})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "detail", encErr.Field)
}

func TestAppend_UnknownType(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)

	err := s.Append(context.Background(), Entry{Type: RecordType("minutes"), Title: "t", Description: "d"})
	var unkErr *UnknownRecordTypeError
	require.ErrorAs(t, err, &unkErr)
	require.Equal(t, "minutes", unkErr.Value)
}

func TestAppend_RemoteFailureIsRemoteIOError(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	// Resolve first so only the append fails.
	_, err := s.SpreadsheetID(ctx)
	require.NoError(t, err)
	mock.AppendErr = context.DeadlineExceeded

	err = s.Append(ctx, Entry{Type: TypeDecision, Title: "t", Description: "d", Detail: DecisionDetail{}})
	var ioErr *RemoteIOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "append", ioErr.Op)
	require.Equal(t, TypeDecision, ioErr.Type)
}

func TestQuery_FetchFailureIsRemoteIOError(t *testing.T) {
	mock := remote.NewMockStore()
	s := newTestStore(mock)
	ctx := context.Background()

	_, err := s.SpreadsheetID(ctx)
	require.NoError(t, err)
	mock.ReadErr = context.DeadlineExceeded

	_, err = s.Query(ctx, TypeDataset)
	var ioErr *RemoteIOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "fetch", ioErr.Op)
}

func TestEncodeRow_AbsentOptionalsAndAmount(t *testing.T) {
	sch, err := SchemaFor(TypeFinancial)
	require.NoError(t, err)

	row, err := encodeRow(sch, Entry{
		Type: TypeFinancial, Title: "Item", Description: "Desc",
		Detail: FinancialDetail{},
	}, testInstant, week.KeyFor(testInstant))
	require.NoError(t, err)
	require.Equal(t, []string{"2026-08-26T14:30:00Z", "2026-08-24", "Item", "Desc", "0", "", ""}, row)
}

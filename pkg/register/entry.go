// Package register implements the governance register core: schema-driven
// row mapping, idempotent container resolution, the append-only record store,
// and the cross-type weekly aggregation facade.
package register

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/quorumworks/govledger/pkg/week"
)

// RecordType selects the schema and target sheet for an entry.
type RecordType string

const (
	TypeDecision  RecordType = "decision"
	TypeRisk      RecordType = "risk"
	TypeDataset   RecordType = "dataset"
	TypeFinancial RecordType = "financial"
)

// AllRecordTypes returns the record types in their canonical order, which is
// also the aggregation concatenation order.
func AllRecordTypes() []RecordType {
	return []RecordType{TypeDecision, TypeRisk, TypeDataset, TypeFinancial}
}

// ParseRecordType validates a caller-supplied type string.
func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(s) {
	case TypeDecision, TypeRisk, TypeDataset, TypeFinancial:
		return RecordType(s), nil
	}
	return "", &UnknownRecordTypeError{Value: s}
}

// Detail carries the type-specific fields of an entry. Exactly one concrete
// detail type exists per record type.
type Detail interface {
	recordType() RecordType
}

type DecisionDetail struct {
	Status string
	Owner  string
	Impact string
}

func (DecisionDetail) recordType() RecordType { return TypeDecision }

type RiskDetail struct {
	Severity   string
	Likelihood string
	Mitigation string
	Owner      string
}

func (RiskDetail) recordType() RecordType { return TypeRisk }

type DatasetDetail struct {
	Source string
	Status string
	Owner  string
}

func (DatasetDetail) recordType() RecordType { return TypeDataset }

type FinancialDetail struct {
	// Amount is nil when the stored row has no parseable amount.
	Amount   *float64
	Category string
	Status   string
}

func (FinancialDetail) recordType() RecordType { return TypeFinancial }

// Entry is one governance record. The store assigns Timestamp, Week, and ID;
// callers supply the rest. Records are append-only: corrections are new
// entries, never in-place updates.
type Entry struct {
	ID          string
	Timestamp   time.Time
	Week        week.Key
	Type        RecordType
	Title       string
	Description string
	Detail      Detail
}

// entryJSON is the flat wire shape shared by the HTTP API and the CLI.
// Optional fields are pointers so absent and empty stay distinguishable.
type entryJSON struct {
	ID          string   `json:"id,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Week        string   `json:"week,omitempty"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      *string  `json:"status,omitempty"`
	Owner       *string  `json:"owner,omitempty"`
	Impact      *string  `json:"impact,omitempty"`
	Severity    *string  `json:"severity,omitempty"`
	Likelihood  *string  `json:"likelihood,omitempty"`
	Mitigation  *string  `json:"mitigation,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// MarshalJSON flattens the tagged detail into the wire shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		ID:          e.ID,
		Week:        e.Week.String(),
		Type:        string(e.Type),
		Title:       e.Title,
		Description: e.Description,
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	switch d := e.Detail.(type) {
	case DecisionDetail:
		out.Status = strPtr(d.Status)
		out.Owner = strPtr(d.Owner)
		out.Impact = strPtr(d.Impact)
	case RiskDetail:
		out.Severity = strPtr(d.Severity)
		out.Likelihood = strPtr(d.Likelihood)
		out.Mitigation = strPtr(d.Mitigation)
		out.Owner = strPtr(d.Owner)
	case DatasetDetail:
		out.Source = strPtr(d.Source)
		out.Status = strPtr(d.Status)
		out.Owner = strPtr(d.Owner)
	case FinancialDetail:
		out.Amount = d.Amount
		out.Category = strPtr(d.Category)
		out.Status = strPtr(d.Status)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the tagged detail from the flat wire shape.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t, err := ParseRecordType(in.Type)
	if err != nil {
		return err
	}

	e.ID = in.ID
	e.Type = t
	e.Title = in.Title
	e.Description = in.Description
	e.Week = week.Key(in.Week)
	e.Timestamp = time.Time{}
	if in.Timestamp != "" {
		if ts, perr := time.Parse(time.RFC3339, in.Timestamp); perr == nil {
			e.Timestamp = ts
		}
	}

	switch t {
	case TypeDecision:
		e.Detail = DecisionDetail{
			Status: strVal(in.Status),
			Owner:  strVal(in.Owner),
			Impact: strVal(in.Impact),
		}
	case TypeRisk:
		e.Detail = RiskDetail{
			Severity:   strVal(in.Severity),
			Likelihood: strVal(in.Likelihood),
			Mitigation: strVal(in.Mitigation),
			Owner:      strVal(in.Owner),
		}
	case TypeDataset:
		e.Detail = DatasetDetail{
			Source: strVal(in.Source),
			Status: strVal(in.Status),
			Owner:  strVal(in.Owner),
		}
	case TypeFinancial:
		e.Detail = FinancialDetail{
			Amount:   in.Amount,
			Category: strVal(in.Category),
			Status:   strVal(in.Status),
		}
	}
	return nil
}

func formatAmount(a *float64) string {
	if a == nil {
		// Absent amounts encode as 0 on write.
		return "0"
	}
	return strconv.FormatFloat(*a, 'f', -1, 64)
}

func parseAmount(cell string) *float64 {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}

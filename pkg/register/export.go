package register

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"time"
)

// ExportItem matches the JSON/CSV export structure.
type ExportItem struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Week        string  `json:"week"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
	Owner       string  `json:"owner,omitempty"`
	Impact      string  `json:"impact,omitempty"`
	Severity    string  `json:"severity,omitempty"`
	Likelihood  string  `json:"likelihood,omitempty"`
	Mitigation  string  `json:"mitigation,omitempty"`
	Source      string  `json:"source,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// GenerateCSV writes entries to a CSV file, newest first.
func GenerateCSV(entries []Entry, path string) error {
	items := exportItems(entries)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"ID", "Timestamp", "Week", "Type", "Title", "Description",
		"Status", "Owner", "Impact", "Severity", "Likelihood",
		"Mitigation", "Source", "Amount", "Category",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, it := range items {
		amount := ""
		if it.Amount != 0 {
			amount = formatAmount(&it.Amount)
		}
		record := []string{
			it.ID, it.Timestamp, it.Week, it.Type, it.Title, it.Description,
			it.Status, it.Owner, it.Impact, it.Severity, it.Likelihood,
			it.Mitigation, it.Source, amount, it.Category,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// GenerateJSON writes entries to a JSON file, newest first.
func GenerateJSON(entries []Entry, path string) error {
	items := exportItems(entries)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func exportItems(entries []Entry) []ExportItem {
	items := make([]ExportItem, 0, len(entries))
	for _, e := range entries {
		it := ExportItem{
			ID:          e.ID,
			Week:        e.Week.String(),
			Type:        string(e.Type),
			Title:       e.Title,
			Description: e.Description,
		}
		if !e.Timestamp.IsZero() {
			it.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		switch d := e.Detail.(type) {
		case DecisionDetail:
			it.Status, it.Owner, it.Impact = d.Status, d.Owner, d.Impact
		case RiskDetail:
			it.Severity, it.Likelihood, it.Mitigation, it.Owner = d.Severity, d.Likelihood, d.Mitigation, d.Owner
		case DatasetDetail:
			it.Source, it.Status, it.Owner = d.Source, d.Status, d.Owner
		case FinancialDetail:
			if d.Amount != nil {
				it.Amount = *d.Amount
			}
			it.Category, it.Status = d.Category, d.Status
		}
		items = append(items, it)
	}

	// Newest first.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	return items
}

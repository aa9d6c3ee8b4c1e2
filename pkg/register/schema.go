package register

// Schema fixes the sheet title and column order for one record type. Column
// order must match the header row written at spreadsheet creation; adding a
// field is a breaking change for existing spreadsheets since headers are
// written once and never reconciled.
type Schema struct {
	Type       RecordType
	SheetTitle string
	Columns    []string
}

var schemas = map[RecordType]Schema{
	TypeDecision: {
		Type:       TypeDecision,
		SheetTitle: "Decisions",
		Columns:    []string{"Timestamp", "Week", "Title", "Description", "Status", "Owner", "Impact"},
	},
	TypeRisk: {
		Type:       TypeRisk,
		SheetTitle: "Risks",
		Columns:    []string{"Timestamp", "Week", "Title", "Description", "Severity", "Likelihood", "Mitigation", "Owner"},
	},
	TypeDataset: {
		Type:       TypeDataset,
		SheetTitle: "Datasets",
		Columns:    []string{"Timestamp", "Week", "Dataset Name", "Description", "Source", "Status", "Owner"},
	},
	TypeFinancial: {
		Type:       TypeFinancial,
		SheetTitle: "Financial",
		Columns:    []string{"Timestamp", "Week", "Item", "Description", "Amount", "Category", "Status"},
	},
}

// SchemaFor looks up the static schema for a record type.
func SchemaFor(t RecordType) (Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return Schema{}, &UnknownRecordTypeError{Value: string(t)}
	}
	return s, nil
}

// SheetTitles returns the sheet titles in canonical type order, used when
// provisioning a new spreadsheet.
func SheetTitles() []string {
	out := make([]string, 0, len(schemas))
	for _, t := range AllRecordTypes() {
		out = append(out, schemas[t].SheetTitle)
	}
	return out
}

// HeaderRows returns the header row per sheet title, used once at
// spreadsheet creation.
func HeaderRows() map[string][]string {
	out := make(map[string][]string, len(schemas))
	for _, t := range AllRecordTypes() {
		s := schemas[t]
		out[s.SheetTitle] = append([]string(nil), s.Columns...)
	}
	return out
}

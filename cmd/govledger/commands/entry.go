package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quorumworks/govledger/pkg/register"
)

var (
	entryType        string
	entryTitle       string
	entryDescription string
	entryStatus      string
	entryOwner       string
	entryImpact      string
	entrySeverity    string
	entryLikelihood  string
	entryMitigation  string
	entrySource      string
	entryAmount      float64
	entryCategory    string
	entryLimit       int
)

var EntryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Record and list governance entries",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append an entry to the register",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := register.ParseRecordType(entryType)
		if err != nil {
			return err
		}

		e := register.Entry{
			Type:        t,
			Title:       entryTitle,
			Description: entryDescription,
		}
		switch t {
		case register.TypeDecision:
			e.Detail = register.DecisionDetail{
				Status: entryStatus,
				Owner:  entryOwner,
				Impact: entryImpact,
			}
		case register.TypeRisk:
			e.Detail = register.RiskDetail{
				Severity:   entrySeverity,
				Likelihood: entryLikelihood,
				Mitigation: entryMitigation,
				Owner:      entryOwner,
			}
		case register.TypeDataset:
			e.Detail = register.DatasetDetail{
				Source: entrySource,
				Status: entryStatus,
				Owner:  entryOwner,
			}
		case register.TypeFinancial:
			detail := register.FinancialDetail{
				Category: entryCategory,
				Status:   entryStatus,
			}
			if cmd.Flags().Changed("amount") {
				amount := entryAmount
				detail.Amount = &amount
			}
			e.Detail = detail
		}

		reg, err := cliRegister(cmd.Context())
		if err != nil {
			return err
		}
		if err := reg.Append(cmd.Context(), e); err != nil {
			return err
		}

		link, err := reg.SpreadsheetLink(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %s entry %q.\n", t, entryTitle)
		fmt.Printf("Register: %s\n", link)
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List register entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := cliRegister(cmd.Context())
		if err != nil {
			return err
		}

		var entries []register.Entry
		if entryType != "" {
			t, perr := register.ParseRecordType(entryType)
			if perr != nil {
				return perr
			}
			entries, err = reg.Entries(cmd.Context(), t)
		} else {
			entries, err = reg.CurrentWeekEntries(cmd.Context())
		}
		if err != nil {
			return err
		}

		if entryLimit > 0 && entryLimit < len(entries) {
			entries = entries[len(entries)-entryLimit:]
		}
		renderEntries(entries)
		return nil
	},
}

func renderEntries(entries []register.Entry) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AAFF"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))

	if len(entries) == 0 {
		fmt.Println(dimStyle.Render("No entries."))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-14s %-10s %-12s %-32s %s", "ID", "TYPE", "WEEK", "TITLE", "DETAIL")))
	for _, e := range entries {
		fmt.Printf("%-14s %-10s %-12s %-32s %s\n",
			e.ID, e.Type, e.Week, truncate(e.Title, 32), detailSummary(e.Detail))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d entries", len(entries))))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func detailSummary(d register.Detail) string {
	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+"="+v)
		}
	}
	switch det := d.(type) {
	case register.DecisionDetail:
		add("status", det.Status)
		add("owner", det.Owner)
		add("impact", det.Impact)
	case register.RiskDetail:
		add("severity", det.Severity)
		add("likelihood", det.Likelihood)
		add("owner", det.Owner)
	case register.DatasetDetail:
		add("source", det.Source)
		add("status", det.Status)
		add("owner", det.Owner)
	case register.FinancialDetail:
		if det.Amount != nil {
			parts = append(parts, fmt.Sprintf("amount=%.2f", *det.Amount))
		}
		add("category", det.Category)
		add("status", det.Status)
	}
	return strings.Join(parts, " ")
}

func init() {
	entryAddCmd.Flags().StringVar(&entryType, "type", "", "Record type: decision, risk, dataset, financial")
	entryAddCmd.Flags().StringVar(&entryTitle, "title", "", "Entry title")
	entryAddCmd.Flags().StringVar(&entryDescription, "description", "", "Entry description")
	entryAddCmd.Flags().StringVar(&entryStatus, "status", "", "Status")
	entryAddCmd.Flags().StringVar(&entryOwner, "owner", "", "Owner")
	entryAddCmd.Flags().StringVar(&entryImpact, "impact", "", "Impact (decision)")
	entryAddCmd.Flags().StringVar(&entrySeverity, "severity", "", "Severity (risk)")
	entryAddCmd.Flags().StringVar(&entryLikelihood, "likelihood", "", "Likelihood (risk)")
	entryAddCmd.Flags().StringVar(&entryMitigation, "mitigation", "", "Mitigation (risk)")
	entryAddCmd.Flags().StringVar(&entrySource, "source", "", "Source (dataset)")
	entryAddCmd.Flags().Float64Var(&entryAmount, "amount", 0, "Amount (financial)")
	entryAddCmd.Flags().StringVar(&entryCategory, "category", "", "Category (financial)")
	_ = entryAddCmd.MarkFlagRequired("type")
	_ = entryAddCmd.MarkFlagRequired("title")
	_ = entryAddCmd.MarkFlagRequired("description")

	entryListCmd.Flags().StringVar(&entryType, "type", "", "Record type (empty for current week across all types)")
	entryListCmd.Flags().IntVar(&entryLimit, "limit", 0, "Keep only the most recent N entries")

	EntryCmd.AddCommand(entryAddCmd)
	EntryCmd.AddCommand(entryListCmd)
}

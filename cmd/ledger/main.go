// Command ledger settles an exported spreadsheet ledger offline.
//
//	ledger -input ledger.json [-json]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/importer"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/pkg/logging"
)

// Report is what the ledger command prints.
type Report struct {
	Balances         []Row                 `json:"balances"`
	Settlements      []calculator.Transfer `json:"settlements"`
	TotalExpenses    float64               `json:"total_expenses"`
	ActiveCount      int                   `json:"active_count"`
	AveragePerActive float64               `json:"average_per_active"`
	Settled          bool                  `json:"settled"`
}

// Row is one participant's standing.
type Row struct {
	Participant models.Participant `json:"participant"`
	Paid        float64            `json:"paid"`
	Share       float64            `json:"share"`
	Balance     float64            `json:"balance"`
}

func main() {
	var inputPath string
	var outputJSON bool

	flag.StringVar(&inputPath, "input", "", "Path to the JSON ledger")
	flag.BoolVar(&outputJSON, "json", false, "Output JSON instead of tables")
	flag.Parse()

	if inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logging.Setup()

	ledger, err := importer.ReadFile(inputPath)
	if err != nil {
		slog.Error("Failed to read ledger", "error", err)
		os.Exit(1)
	}
	slog.Debug("Ledger loaded", "expenses", len(ledger.Expenses), "participants", len(ledger.Participants))

	report := buildReport(ledger)

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("Failed to encode report", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := printReport(os.Stdout, report); err != nil {
		slog.Error("Failed to print report", "error", err)
		os.Exit(1)
	}
}

func buildReport(ledger *importer.Ledger) Report {
	txns, participants := ledger.Expenses, ledger.Participants
	b := calculator.CalculateBalances(txns, participants)

	report := Report{
		Settlements:      calculator.CalculateSettlements(b.Balances, participants),
		TotalExpenses:    calculator.RoundCents(calculator.TotalExpenses(txns)),
		ActiveCount:      len(calculator.ActiveParticipants(txns, participants)),
		AveragePerActive: calculator.RoundCents(calculator.AveragePerActive(txns, participants)),
		Settled:          b.IsSettled(),
	}
	roster := make(map[models.ParticipantID]models.Participant, len(participants))
	for _, p := range participants {
		roster[p.ID] = p
	}
	for _, id := range b.IDs(participants) {
		p, ok := roster[id]
		if !ok {
			p = models.UnknownParticipant(id)
		}
		report.Balances = append(report.Balances, Row{
			Participant: p,
			Paid:        calculator.RoundCents(b.TotalPaid[id]),
			Share:       calculator.RoundCents(b.TotalShare[id]),
			Balance:     calculator.RoundCents(b.Balances[id]),
		})
	}
	return report
}

func printReport(w io.Writer, report Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Participant\tPaid\tShare\tBalance\t")
	for _, row := range report.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", row.Participant.Name, money(row.Paid), money(row.Share), money(row.Balance))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if report.Settled {
		fmt.Fprintln(w, "All settled up.")
	} else {
		fmt.Fprintf(w, "Settle up in %s:\n", english.Plural(len(report.Settlements), "payment", "payments"))
		for _, t := range report.Settlements {
			fmt.Fprintf(w, "  %s pays %s %s\n", t.From.Name, t.To.Name, money(t.Amount))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total expenses:     %s\n", money(report.TotalExpenses))
	fmt.Fprintf(w, "Active people:      %s\n", humanize.Comma(int64(report.ActiveCount)))
	_, err := fmt.Fprintf(w, "Average per person: %s\n", money(report.AveragePerActive))
	return err
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

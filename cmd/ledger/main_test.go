package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mmynk/esplit/internal/importer"
)

const roommates = `[
  {"id": 1, "description": "Groceries", "amount": 30, "paidBy": "Hamza", "shares": {"Hamza": 10, "Zumair": 10, "Faisal": 10}},
  {"id": 2, "description": "Internet", "amount": 1200, "paidBy": "Faisal", "shares": {"Hamza": 600, "Faisal": 600}}
]`

func TestBuildReport(t *testing.T) {
	ledger, err := importer.Read(strings.NewReader(roommates))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	report := buildReport(ledger)

	if report.TotalExpenses != 1230 {
		t.Errorf("expected total 1230, got %v", report.TotalExpenses)
	}
	if report.ActiveCount != 3 || report.AveragePerActive != 410 {
		t.Errorf("expected 3 active at 410, got %d at %v", report.ActiveCount, report.AveragePerActive)
	}

	balances := map[string]float64{}
	for _, row := range report.Balances {
		balances[row.Participant.Name] = row.Balance
	}
	if balances["Hamza"] != -580 || balances["Faisal"] != 590 || balances["Zumair"] != -10 {
		t.Errorf("unexpected balances: %v", balances)
	}

	if len(report.Settlements) != 2 || report.Settlements[0].From.Name != "Hamza" || report.Settlements[0].Amount != 580 {
		t.Errorf("unexpected plan: %+v", report.Settlements)
	}
	if report.Settled {
		t.Error("expected ledger to be unsettled")
	}
}

func TestPrintReport(t *testing.T) {
	ledger, err := importer.Read(strings.NewReader(roommates))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var buf bytes.Buffer
	if err := printReport(&buf, buildReport(ledger)); err != nil {
		t.Fatalf("printReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Settle up in 2 payments:",
		"Hamza pays Faisal $580.00",
		"Zumair pays Faisal $10.00",
		"Total expenses:     $1,230.00",
		"Average per person: $410.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintReport_Settled(t *testing.T) {
	ledger, err := importer.Read(strings.NewReader(`[{"id": 1, "description": "Solo", "amount": 5, "paidBy": "a", "shares": {"a": 5}}]`))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var buf bytes.Buffer
	if err := printReport(&buf, buildReport(ledger)); err != nil {
		t.Fatalf("printReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "All settled up.") {
		t.Errorf("expected settled message, got:\n%s", buf.String())
	}
}

func TestBuildReport_UnlistedParticipant(t *testing.T) {
	ledger, err := importer.Read(strings.NewReader(`{
		"participants": [{"id": "a", "name": "Alice"}],
		"expenses": [{"id": 1, "description": "Cab", "amount": 20, "paidBy": "a", "shares": {"a": 10, "b": 10}}]
	}`))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	report := buildReport(ledger)

	if len(report.Balances) != 2 {
		t.Fatalf("expected a row for the unlisted id, got %+v", report.Balances)
	}
	row := report.Balances[1]
	if row.Participant.ID != "b" || row.Participant.Name != "Unknown" || row.Balance != -10 {
		t.Errorf("unexpected row: %+v", row)
	}
	if len(report.Settlements) != 1 || report.Settlements[0].From.ID != "b" {
		t.Errorf("unexpected plan: %+v", report.Settlements)
	}
}

package calculator

import (
	"sort"
	"time"

	"github.com/mmynk/esplit/internal/models"
)

// dateLayouts are the date formats accepted for Transaction.Date.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "1/2/2006"}

// monthsInSummary is how many calendar months MonthlyTotals covers.
const monthsInSummary = 6

// CategoryTotal is the spending filed under one category.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Amount   float64         `json:"amount"`
	Percent  float64         `json:"percent"` // Share of total spending, 0-100
}

// SpenderTotal is how much one participant paid for expenses.
type SpenderTotal struct {
	Participant models.Participant `json:"participant"`
	Amount      float64            `json:"amount"`
}

// MonthTotal is the spending in one calendar month.
type MonthTotal struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

// Summary describes a group's spending. Settlements are not spending and are ignored.
type Summary struct {
	TotalSpending     float64         `json:"total_spending"`
	ExpenseCount      int             `json:"expense_count"`
	AveragePerExpense float64         `json:"average_per_expense"`
	Categories        []CategoryTotal `json:"categories"`   // Largest first
	TopSpenders       []SpenderTotal  `json:"top_spenders"` // Largest first
	Monthly           []MonthTotal    `json:"monthly"`      // Oldest first, ending with the month of now
}

// Summarize computes spending analytics for a group.
func Summarize(txns []models.Transaction, participants []models.Participant, now time.Time) Summary {
	roster := make(map[models.ParticipantID]models.Participant, len(participants))
	for _, p := range participants {
		roster[p.ID] = p
	}

	var s Summary
	byCategory := make(map[string]float64)
	bySpender := make(map[models.ParticipantID]float64)
	byMonth := make(map[string]float64)

	for _, txn := range txns {
		if txn.IsSettlement {
			continue
		}
		s.TotalSpending += txn.Amount
		s.ExpenseCount++
		byCategory[models.CategoryByID(txn.Category).ID] += txn.Amount
		bySpender[txn.PaidBy] += txn.Amount

		if d, ok := parseDate(txn.Date); ok {
			byMonth[d.Format("2006-01")] += txn.Amount
		}
	}

	if s.ExpenseCount > 0 {
		s.AveragePerExpense = s.TotalSpending / float64(s.ExpenseCount)
	}

	for id, amount := range byCategory {
		ct := CategoryTotal{Category: models.CategoryByID(id), Amount: RoundCents(amount)}
		if s.TotalSpending > 0 {
			ct.Percent = amount / s.TotalSpending * 100
		}
		s.Categories = append(s.Categories, ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Amount != s.Categories[j].Amount {
			return s.Categories[i].Amount > s.Categories[j].Amount
		}
		return s.Categories[i].Category.ID < s.Categories[j].Category.ID
	})

	for id, amount := range bySpender {
		s.TopSpenders = append(s.TopSpenders, SpenderTotal{
			Participant: resolveParticipant(roster, id),
			Amount:      RoundCents(amount),
		})
	}
	sort.Slice(s.TopSpenders, func(i, j int) bool {
		if s.TopSpenders[i].Amount != s.TopSpenders[j].Amount {
			return s.TopSpenders[i].Amount > s.TopSpenders[j].Amount
		}
		return s.TopSpenders[i].Participant.ID < s.TopSpenders[j].Participant.ID
	})

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for k := monthsInSummary - 1; k >= 0; k-- {
		month := start.AddDate(0, -k, 0).Format("2006-01")
		s.Monthly = append(s.Monthly, MonthTotal{Month: month, Amount: RoundCents(byMonth[month])})
	}

	return s
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

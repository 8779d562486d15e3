package calculator

import "github.com/mmynk/esplit/internal/models"

// ActiveParticipants returns the roster members that paid for something or
// hold a strictly positive share of something, in roster order.
//
// Zero shares do not count, so someone explicitly left out of every split is
// not active. Settlements are scanned through the same PaidBy/Shares fields as
// expenses.
func ActiveParticipants(txns []models.Transaction, participants []models.Participant) []models.Participant {
	active := make(map[models.ParticipantID]bool)
	for _, txn := range txns {
		if txn.PaidBy != "" {
			active[txn.PaidBy] = true
		}
		for id, share := range txn.Shares {
			if share > 0 {
				active[id] = true
			}
		}
	}

	result := make([]models.Participant, 0, len(active))
	for _, p := range participants {
		if active[p.ID] {
			result = append(result, p)
		}
	}
	return result
}

// TotalExpenses sums the amounts of all non-settlement transactions.
func TotalExpenses(txns []models.Transaction) float64 {
	var total float64
	for _, txn := range txns {
		if !txn.IsSettlement {
			total += txn.Amount
		}
	}
	return total
}

// AveragePerActive is TotalExpenses divided by the number of active
// participants, or 0 when nobody is active.
func AveragePerActive(txns []models.Transaction, participants []models.Participant) float64 {
	active := ActiveParticipants(txns, participants)
	if len(active) == 0 {
		return 0
	}
	return TotalExpenses(txns) / float64(len(active))
}
